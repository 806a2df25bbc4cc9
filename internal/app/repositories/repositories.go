package repositories

import (
	"context"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
)

// StudentRepository is the identity store.
//
// Lookups by id return apperrors.ErrStudentNotFound for absent and malformed ids.
// Create and Update return apperrors.ErrStudentIDAlreadyExists or
// apperrors.ErrEmailAlreadyExists when a unique index rejects the write.
type StudentRepository interface {
	GetAll(ctx context.Context) ([]*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	// Update writes every field except the credential.
	Update(ctx context.Context, student *models.Student) error
	UpdateCredential(ctx context.Context, id string, credential auth.Credential) error
	// Delete removes the student only; enrollment rows are left in place.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// CourseRepository is the course catalog store. Every returned course carries
// StudentsEnrolled computed from the enrollment ledger in the same read.
type CourseRepository interface {
	GetAll(ctx context.Context) ([]*models.Course, error)
	// GetByID returns apperrors.ErrCourseNotFound for absent and malformed ids.
	GetByID(ctx context.Context, id string) (*models.Course, error)
	// Create stores a course whose code is already normalized. A unique
	// index violation yields apperrors.ErrCourseCodeExists.
	Create(ctx context.Context, course *models.Course) error
	// Update replaces all fields and returns the row with a fresh count.
	Update(ctx context.Context, course *models.Course) (*models.Course, error)
	// Delete removes every enrollment referencing the course, then the course.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// EnrollmentRepository is the enrollment ledger, the sole owner of enrollment rows.
type EnrollmentRepository interface {
	// GetByStudent joins each enrollment with its course summary and drops
	// rows whose course no longer exists.
	GetByStudent(ctx context.Context, studentEmail string) ([]*models.Enrollment, error)
	// Create returns apperrors.ErrInvalidID for a malformed course id and
	// apperrors.ErrAlreadyEnrolled when the pair already exists.
	Create(ctx context.Context, studentEmail, courseID string) (*models.Enrollment, error)
	// ReassignStudent moves enrollments to a student's new email. Rows
	// newEmail still holds from a deleted student are removed first, so every
	// (student, course) pair stays unique. Returns the number of rows moved.
	ReassignStudent(ctx context.Context, oldEmail, newEmail string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	Students    StudentRepository
	Courses     CourseRepository
	Enrollments EnrollmentRepository
	// Ping reports whether the backing store is reachable
	Ping func(ctx context.Context) error
}
