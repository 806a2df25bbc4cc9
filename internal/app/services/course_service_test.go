package services

import (
	"context"
	"sync"
	"testing"

	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCourseService(t *testing.T) (*courseServiceImpl, *recordingNotifier, EnrollmentService, StudentService) {
	t.Helper()
	repos := newTestRepos()
	notifier := &recordingNotifier{}
	courses := NewCourseService(repos.Courses, repos.Students, notifier, nopLogger).(*courseServiceImpl)
	enrollments := NewEnrollmentService(repos.Enrollments, repos.Students, repos.Courses, nil, nopLogger)
	students := NewStudentService(repos.Students, repos.Enrollments, nopLogger)
	return courses, notifier, enrollments, students
}

func cs101() *dto.CourseRequest {
	return &dto.CourseRequest{Code: "CS101", Title: "Intro to Programming", Credits: 3}
}

func TestCourseService_CreateStartsWithZeroEnrolled(t *testing.T) {
	svc, _, _, _ := setupCourseService(t)

	course, err := svc.CreateCourse(context.Background(), &dto.CourseRequest{Code: "cs101", Title: "Intro to Programming", Credits: 3})
	require.NoError(t, err)
	assert.Equal(t, "CS101", course.Code)
	assert.Equal(t, 0, course.StudentsEnrolled)
	assert.NotEmpty(t, course.ID)
}

func TestCourseService_CreateRejectsCodeIgnoringCase(t *testing.T) {
	svc, _, _, _ := setupCourseService(t)
	ctx := context.Background()

	_, err := svc.CreateCourse(ctx, &dto.CourseRequest{Code: "cs101", Title: "Intro to Programming", Credits: 3})
	require.NoError(t, err)

	_, err = svc.CreateCourse(ctx, cs101())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "Course code CS101 already exists.", err.Error())
}

func TestCourseService_CreateValidates(t *testing.T) {
	svc, _, _, _ := setupCourseService(t)

	tests := []struct {
		name  string
		req   *dto.CourseRequest
		field string
	}{
		{"short code", &dto.CourseRequest{Code: "CS", Title: "Intro to Programming", Credits: 3}, "code"},
		{"short title", &dto.CourseRequest{Code: "CS101", Title: "Intr", Credits: 3}, "title"},
		{"short description", &dto.CourseRequest{Code: "CS101", Title: "Intro to Programming", Description: "short", Credits: 3}, "description"},
		{"too many credits", &dto.CourseRequest{Code: "CS101", Title: "Intro to Programming", Credits: 11}, "credits"},
		{"zero credits", &dto.CourseRequest{Code: "CS101", Title: "Intro to Programming"}, "credits"},
		{"padded short code", &dto.CourseRequest{Code: "  AB  ", Title: "Intro to Programming", Credits: 3}, "code"},
		{"padded short title", &dto.CourseRequest{Code: "CS101", Title: "  Art  ", Credits: 3}, "title"},
		{"blank code", &dto.CourseRequest{Code: "     ", Title: "Intro to Programming", Credits: 3}, "code"},
		{"blank title", &dto.CourseRequest{Code: "CS101", Title: "          ", Credits: 3}, "title"},
		{"padded short description", &dto.CourseRequest{Code: "CS101", Title: "Intro to Programming", Description: "   short    ", Credits: 3}, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCourse(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			var ce *apperrors.CustomError
			require.ErrorAs(t, err, &ce)
			assert.Contains(t, ce.Details, tt.field)
		})
	}
}

func TestCourseService_TrimsBeforeStoring(t *testing.T) {
	svc, _, _, _ := setupCourseService(t)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, &dto.CourseRequest{Code: "  cs101 ", Title: "  Intro to Programming  ", Credits: 3})
	require.NoError(t, err)
	assert.Equal(t, "CS101", course.Code)
	assert.Equal(t, "Intro to Programming", course.Title)

	_, err = svc.UpdateCourse(ctx, course.ID, &dto.CourseRequest{Code: "CS101", Title: "  Art  ", Credits: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	stored, err := svc.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro to Programming", stored.Title)
}

func TestCourseService_CreateAnnouncesToStudents(t *testing.T) {
	svc, notifier, _, students := setupCourseService(t)
	ctx := context.Background()

	_, err := students.CreateStudent(ctx, &dto.StudentRequest{StudentID: "S12345", Name: "Ada Lovelace", Email: "Ada@X.com", Program: "Computer Science"})
	require.NoError(t, err)

	_, err = svc.CreateCourse(ctx, cs101())
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, []string{"CS101"}, notifier.courses)
	assert.Equal(t, []string{"ada@x.com"}, notifier.recipients)
}

func TestCourseService_Update(t *testing.T) {
	svc, _, enroll, students := setupCourseService(t)
	ctx := context.Background()

	first, err := svc.CreateCourse(ctx, cs101())
	require.NoError(t, err)
	second, err := svc.CreateCourse(ctx, &dto.CourseRequest{Code: "MA201", Title: "Linear Algebra", Credits: 4})
	require.NoError(t, err)

	_, err = students.CreateStudent(ctx, &dto.StudentRequest{StudentID: "S12345", Name: "Ada Lovelace", Email: "a@x.com", Program: "Computer Science"})
	require.NoError(t, err)
	_, err = enroll.Enroll(ctx, &dto.EnrollmentRequest{StudentID: "a@x.com", CourseID: first.ID})
	require.NoError(t, err)

	t.Run("keeps own code and recomputes count", func(t *testing.T) {
		updated, err := svc.UpdateCourse(ctx, first.ID, &dto.CourseRequest{Code: "cs101", Title: "Programming I", Credits: 4})
		require.NoError(t, err)
		assert.Equal(t, "CS101", updated.Code)
		assert.Equal(t, "Programming I", updated.Title)
		assert.Equal(t, 1, updated.StudentsEnrolled)
	})

	t.Run("rejects another course's code", func(t *testing.T) {
		_, err := svc.UpdateCourse(ctx, second.ID, &dto.CourseRequest{Code: "Cs101", Title: "Linear Algebra", Credits: 4})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Equal(t, "Course code CS101 already exists for another course.", err.Error())
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.UpdateCourse(ctx, "missing", cs101())
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	})
}

func TestCourseService_DeleteCascades(t *testing.T) {
	svc, _, enroll, students := setupCourseService(t)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, cs101())
	require.NoError(t, err)
	_, err = students.CreateStudent(ctx, &dto.StudentRequest{StudentID: "S12345", Name: "Ada Lovelace", Email: "a@x.com", Program: "Computer Science"})
	require.NoError(t, err)
	_, err = enroll.Enroll(ctx, &dto.EnrollmentRequest{StudentID: "a@x.com", CourseID: course.ID})
	require.NoError(t, err)

	list, err := enroll.ListByStudent(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CS101", list[0].Course.Code)

	require.NoError(t, svc.DeleteCourse(ctx, course.ID))

	list, err = enroll.ListByStudent(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, list)

	err = svc.DeleteCourse(ctx, course.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	_, err = svc.GetCourse(ctx, course.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestCourseService_ConcurrentCreatesKeepCodesUnique(t *testing.T) {
	svc, _, _, _ := setupCourseService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, code := range []string{"cs101", "CS101", "Cs101", "cS101"} {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			_, _ = svc.CreateCourse(ctx, &dto.CourseRequest{Code: code, Title: "Intro to Programming", Credits: 3})
		}(code)
	}
	wg.Wait()
	svc.Wait()

	courses, err := svc.ListCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestCourseService_ListCountsMatchLedger(t *testing.T) {
	svc, _, enroll, students := setupCourseService(t)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, cs101())
	require.NoError(t, err)

	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := students.CreateStudent(ctx, &dto.StudentRequest{
			StudentID: "S1000" + string(rune('0'+i)),
			Name:      "Student " + email,
			Email:     email,
			Program:   "Computer Science",
		})
		require.NoError(t, err)
		_, err = enroll.Enroll(ctx, &dto.EnrollmentRequest{StudentID: email, CourseID: course.ID})
		require.NoError(t, err)

		got, err := svc.GetCourse(ctx, course.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, got.StudentsEnrolled)
	}

	courses, err := svc.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 3, courses[0].StudentsEnrolled)
}
