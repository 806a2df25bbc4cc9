package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseDelete_CascadesEnrollments(t *testing.T) {
	repos := NewRepositories(NewStore())
	ctx := context.Background()

	course := &models.Course{Code: "CS101", Title: "Intro to Programming", Credits: 3}
	require.NoError(t, repos.Courses.Create(ctx, course))
	other := &models.Course{Code: "MA201", Title: "Linear Algebra", Credits: 4}
	require.NoError(t, repos.Courses.Create(ctx, other))

	_, err := repos.Enrollments.Create(ctx, "a@x.com", course.ID)
	require.NoError(t, err)
	_, err = repos.Enrollments.Create(ctx, "a@x.com", other.ID)
	require.NoError(t, err)

	got, err := repos.Courses.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StudentsEnrolled)

	require.NoError(t, repos.Courses.Delete(ctx, course.ID))
	assert.ErrorIs(t, repos.Courses.Delete(ctx, course.ID), apperrors.ErrCourseNotFound)

	list, err := repos.Enrollments.GetByStudent(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "MA201", list[0].Course.Code)

	n, err := repos.Enrollments.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEnrollmentCreate_Errors(t *testing.T) {
	repos := NewRepositories(NewStore())
	ctx := context.Background()

	_, err := repos.Enrollments.Create(ctx, "a@x.com", "not-an-id")
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)

	_, err = repos.Enrollments.Create(ctx, "a@x.com", "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestEnrollmentCreate_ConcurrentPairYieldsOneRow(t *testing.T) {
	repos := NewRepositories(NewStore())
	ctx := context.Background()

	course := &models.Course{Code: "CS101", Title: "Intro to Programming", Credits: 3}
	require.NoError(t, repos.Courses.Create(ctx, course))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Enrollments.Create(ctx, "race@x.com", course.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 15, rejected)
}

func TestEnrollmentReassign_DropsRowsHeldByNewAddress(t *testing.T) {
	repos := NewRepositories(NewStore())
	ctx := context.Background()

	cs := &models.Course{Code: "CS101", Title: "Intro to Programming", Credits: 3}
	require.NoError(t, repos.Courses.Create(ctx, cs))
	ma := &models.Course{Code: "MA201", Title: "Linear Algebra", Credits: 4}
	require.NoError(t, repos.Courses.Create(ctx, ma))

	for _, id := range []string{cs.ID, ma.ID} {
		_, err := repos.Enrollments.Create(ctx, "ada@x.com", id)
		require.NoError(t, err)
	}
	_, err := repos.Enrollments.Create(ctx, "grace@x.com", cs.ID)
	require.NoError(t, err)
	_, err = repos.Enrollments.Create(ctx, "linus@x.com", ma.ID)
	require.NoError(t, err)

	moved, err := repos.Enrollments.ReassignStudent(ctx, "grace@x.com", "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)

	list, err := repos.Enrollments.GetByStudent(ctx, "ada@x.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CS101", list[0].Course.Code)

	n, err := repos.Enrollments.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := repos.Courses.GetByID(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StudentsEnrolled)

	// Re-enrolling the surviving pair is still rejected
	_, err = repos.Enrollments.Create(ctx, "ada@x.com", cs.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)

	moved, err = repos.Enrollments.ReassignStudent(ctx, "linus@x.com", "linus@x.com")
	require.NoError(t, err)
	assert.Zero(t, moved)
	list, err = repos.Enrollments.GetByStudent(ctx, "linus@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStudentUniqueness(t *testing.T) {
	repos := NewRepositories(NewStore())
	ctx := context.Background()

	first := &models.Student{StudentID: "S12345", Name: "Ada", Email: "ada@x.com", Program: "CS"}
	require.NoError(t, repos.Students.Create(ctx, first))

	err := repos.Students.Create(ctx, &models.Student{StudentID: "S12345", Name: "B", Email: "b@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrStudentIDAlreadyExists)
	err = repos.Students.Create(ctx, &models.Student{StudentID: "S99999", Name: "B", Email: "ada@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = repos.Students.GetByID(ctx, "bogus")
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestCourseCodeUniqueIgnoresCase(t *testing.T) {
	repos := NewRepositories(NewStore())
	ctx := context.Background()

	require.NoError(t, repos.Courses.Create(ctx, &models.Course{Code: "CS101", Title: "Intro", Credits: 3}))
	err := repos.Courses.Create(ctx, &models.Course{Code: "cs101", Title: "Intro again", Credits: 3})
	assert.ErrorIs(t, err, apperrors.ErrCourseCodeExists)
}
