//go:build integration

package postgres

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/campuspulse/campuspulse/internal/app/migrations"
	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/db"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	schema "github.com/campuspulse/campuspulse/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: TEST_DATABASE_DSN=postgres://... go test -tags integration ./internal/app/repositories/postgres/
func setupTestDB(t *testing.T) *db.PostgresDB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.NewMigrator(pool, zerolog.Nop()).Apply(ctx, schema.FS))
	_, err = pool.Exec(ctx, `TRUNCATE enrollments, courses, students`)
	require.NoError(t, err)

	return &db.PostgresDB{Pool: pool}
}

func TestIntegration_CourseLifecycle(t *testing.T) {
	database := setupTestDB(t)
	repos := NewRepositories(database)
	ctx := context.Background()

	course := &models.Course{Code: "CS101", Title: "Intro to Programming", Credits: 3}
	require.NoError(t, repos.Courses.Create(ctx, course))
	assert.NotEmpty(t, course.ID)
	assert.Equal(t, 0, course.StudentsEnrolled)

	err := repos.Courses.Create(ctx, &models.Course{Code: "CS101", Title: "Duplicate course", Credits: 3})
	assert.ErrorIs(t, err, apperrors.ErrCourseCodeExists)

	_, err = repos.Enrollments.Create(ctx, "a@x.com", course.ID)
	require.NoError(t, err)
	_, err = repos.Enrollments.Create(ctx, "a@x.com", course.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)

	got, err := repos.Courses.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StudentsEnrolled)

	list, err := repos.Enrollments.GetByStudent(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CS101", list[0].Course.Code)

	require.NoError(t, repos.Courses.Delete(ctx, course.ID))
	assert.ErrorIs(t, repos.Courses.Delete(ctx, course.ID), apperrors.ErrCourseNotFound)

	list, err = repos.Enrollments.GetByStudent(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, list)

	n, err := repos.Enrollments.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIntegration_MalformedIDs(t *testing.T) {
	repos := NewRepositories(setupTestDB(t))
	ctx := context.Background()

	_, err := repos.Courses.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
	_, err = repos.Students.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	_, err = repos.Enrollments.Create(ctx, "a@x.com", "not-an-id")
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)
}

func TestIntegration_ConcurrentEnrollmentYieldsOneRow(t *testing.T) {
	repos := NewRepositories(setupTestDB(t))
	ctx := context.Background()

	course := &models.Course{Code: "MA201", Title: "Linear Algebra", Credits: 4}
	require.NoError(t, repos.Courses.Create(ctx, course))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Enrollments.Create(ctx, "race@x.com", course.ID)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	got, err := repos.Courses.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StudentsEnrolled)
}

func TestIntegration_ReassignOntoHeldAddress(t *testing.T) {
	repos := NewRepositories(setupTestDB(t))
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

	moved, err := repos.Enrollments.ReassignStudent(ctx, "grace@x.com", "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)

	n, err := repos.Enrollments.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := repos.Enrollments.GetByStudent(ctx, "ada@x.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CS101", list[0].Course.Code)

	got, err := repos.Courses.GetByID(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StudentsEnrolled)

	t.Run("failure leaves rows in place", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := repos.Enrollments.ReassignStudent(canceled, "ada@x.com", "ada.lovelace@x.com")
		require.Error(t, err)

		list, err := repos.Enrollments.GetByStudent(ctx, "ada@x.com")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestIntegration_StudentCredential(t *testing.T) {
	repos := NewRepositories(setupTestDB(t))
	ctx := context.Background()

	student := &models.Student{StudentID: "S12345", Name: "Ada Lovelace", Email: "ada@x.com", Program: "Computer Science"}
	require.NoError(t, repos.Students.Create(ctx, student))

	got, err := repos.Students.GetByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.False(t, got.Credential.IsSet())
	assert.True(t, got.Credential.Matches(auth.LegacyDefaultSecret))

	cred, err := auth.NewCredential("n3w-secret")
	require.NoError(t, err)
	require.NoError(t, repos.Students.UpdateCredential(ctx, student.ID, cred))

	got, err = repos.Students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, got.Credential.Matches("n3w-secret"))
	assert.False(t, got.Credential.Matches(auth.LegacyDefaultSecret))

	dup := &models.Student{StudentID: "S12345", Name: "Other", Email: "other@x.com", Program: "Physics"}
	assert.ErrorIs(t, repos.Students.Create(ctx, dup), apperrors.ErrStudentIDAlreadyExists)
}
