package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	"github.com/campuspulse/campuspulse/internal/pkg/metrics"
	"github.com/campuspulse/campuspulse/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// EnrollmentService defines the interface for enrollment operations
type EnrollmentService interface {
	AuthorizeFor(ctx context.Context, claims *auth.Claims, studentEmail string) error
	ListByStudent(ctx context.Context, studentEmail string) ([]*models.Enrollment, error)
	Enroll(ctx context.Context, req *dto.EnrollmentRequest) (*models.Enrollment, error)
}

// enrollmentServiceImpl implements EnrollmentService
type enrollmentServiceImpl struct {
	enrollmentRepo repositories.EnrollmentRepository
	studentRepo    repositories.StudentRepository
	courseRepo     repositories.CourseRepository
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService. m may be nil.
func NewEnrollmentService(
	enrollmentRepo repositories.EnrollmentRepository,
	studentRepo repositories.StudentRepository,
	courseRepo repositories.CourseRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentServiceImpl{
		enrollmentRepo: enrollmentRepo,
		studentRepo:    studentRepo,
		courseRepo:     courseRepo,
		metrics:        m,
		logger:         logger,
	}
}

func forbidOtherStudent() error {
	return apperrors.NewForbiddenError("You can only access your own enrollments.")
}

// AuthorizeFor lets teachers act for any student and students only for
// themselves. A student's current email is read from the store, so a token
// issued before an email change no longer covers the old address.
func (s *enrollmentServiceImpl) AuthorizeFor(ctx context.Context, claims *auth.Claims, studentEmail string) error {
	if claims == nil {
		return forbidOtherStudent()
	}
	if claims.IsTeacher() {
		return nil
	}

	student, err := s.studentRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return forbidOtherStudent()
		}
		s.logger.Error().Err(err).Str("userID", claims.UserID).Msg("Failed to resolve caller for enrollment access")
		return fmt.Errorf("error getting student: %w", err)
	}
	if !strings.EqualFold(student.Email, models.NormalizeEmail(studentEmail)) {
		return forbidOtherStudent()
	}
	return nil
}

// ListByStudent returns the student's enrollments with course summaries
func (s *enrollmentServiceImpl) ListByStudent(ctx context.Context, studentEmail string) ([]*models.Enrollment, error) {
	if strings.TrimSpace(studentEmail) == "" {
		return nil, apperrors.NewBadRequestError("Student ID is required")
	}

	enrollments, err := s.enrollmentRepo.GetByStudent(ctx, models.NormalizeEmail(studentEmail))
	if err != nil {
		s.logger.Error().Err(err).Str("student", studentEmail).Msg("Failed to fetch enrollments")
		return nil, fmt.Errorf("error getting enrollments: %w", err)
	}
	return enrollments, nil
}

// Enroll records an enrollment once both the student and the course exist
func (s *enrollmentServiceImpl) Enroll(ctx context.Context, req *dto.EnrollmentRequest) (*models.Enrollment, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(req.StudentID)

	if _, err := s.studentRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Student not found.")
		}
		s.logger.Error().Err(err).Str("student", email).Msg("Failed to look up student for enrollment")
		return nil, fmt.Errorf("error getting student: %w", err)
	}

	course, err := s.courseRepo.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Course not found.")
		}
		s.logger.Error().Err(err).Str("courseID", req.CourseID).Msg("Failed to look up course for enrollment")
		return nil, fmt.Errorf("error getting course: %w", err)
	}

	enrollment, err := s.enrollmentRepo.Create(ctx, email, course.ID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidID):
			return nil, apperrors.NewValidationError("Invalid enrollment data", map[string]interface{}{
				"courseId": "courseId is not a valid course identifier",
			})
		case errors.Is(err, apperrors.ErrAlreadyEnrolled):
			return nil, apperrors.NewConflictError("Student is already enrolled in this course.")
		case errors.Is(err, apperrors.ErrCourseNotFound):
			return nil, apperrors.NewResourceNotFoundError("Course not found.")
		}
		s.logger.Error().Err(err).Str("student", email).Str("courseID", req.CourseID).Msg("Failed to create enrollment")
		return nil, fmt.Errorf("error creating enrollment: %w", err)
	}

	enrollment.Course = course.Summary()
	s.metrics.EnrollmentCreated()
	s.logger.Info().Str("student", email).Str("course", course.Code).Msg("Student enrolled")
	return enrollment, nil
}
