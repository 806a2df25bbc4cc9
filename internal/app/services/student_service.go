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
	"github.com/campuspulse/campuspulse/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// StudentService defines the interface for student account operations
type StudentService interface {
	ListStudents(ctx context.Context) ([]*models.Student, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	CreateStudent(ctx context.Context, req *dto.StudentRequest) (*models.Student, error)
	UpdateStudent(ctx context.Context, id string, req *dto.StudentRequest) (*models.Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

// studentServiceImpl implements StudentService
type studentServiceImpl struct {
	studentRepo    repositories.StudentRepository
	enrollmentRepo repositories.EnrollmentRepository
	logger         zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(
	studentRepo repositories.StudentRepository,
	enrollmentRepo repositories.EnrollmentRepository,
	logger zerolog.Logger,
) StudentService {
	return &studentServiceImpl{
		studentRepo:    studentRepo,
		enrollmentRepo: enrollmentRepo,
		logger:         logger,
	}
}

func studentNotFound() error {
	return apperrors.NewResourceNotFoundError("Student not found")
}

// ListStudents returns every student
func (s *studentServiceImpl) ListStudents(ctx context.Context) ([]*models.Student, error) {
	students, err := s.studentRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch students")
		return nil, fmt.Errorf("error getting students: %w", err)
	}
	return students, nil
}

// GetStudent returns one student
func (s *studentServiceImpl) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, studentNotFound()
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to fetch student")
		return nil, fmt.Errorf("error getting student: %w", err)
	}
	return student, nil
}

// checkUnique rejects a student id or email already owned by a student other
// than excludeID
func (s *studentServiceImpl) checkUnique(ctx context.Context, studentID, email, excludeID string) error {
	students, err := s.studentRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check student uniqueness")
		return fmt.Errorf("error scanning students: %w", err)
	}

	suffix := "."
	if excludeID != "" {
		suffix = " for another student."
	}
	for _, other := range students {
		if other.ID == excludeID {
			continue
		}
		if other.StudentID == studentID {
			return apperrors.NewConflictError(fmt.Sprintf("Student ID %s already exists%s", studentID, suffix))
		}
		if strings.EqualFold(other.Email, email) {
			return apperrors.NewConflictError(fmt.Sprintf("Email %s already exists%s", email, suffix))
		}
	}
	return nil
}

func (s *studentServiceImpl) mapWriteError(err error, student *models.Student, suffix string) error {
	switch {
	case errors.Is(err, apperrors.ErrStudentNotFound):
		return studentNotFound()
	case errors.Is(err, apperrors.ErrStudentIDAlreadyExists):
		return apperrors.NewConflictError(fmt.Sprintf("Student ID %s already exists%s", student.StudentID, suffix))
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		return apperrors.NewConflictError(fmt.Sprintf("Email %s already exists%s", student.Email, suffix))
	}
	return nil
}

// CreateStudent stores a new student with the default credential
func (s *studentServiceImpl) CreateStudent(ctx context.Context, req *dto.StudentRequest) (*models.Student, error) {
	req = req.Normalized()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	student := &models.Student{
		StudentID: req.StudentID,
		Name:      req.Name,
		Email:     models.NormalizeEmail(req.Email),
		Program:   req.Program,
	}
	if err := s.checkUnique(ctx, student.StudentID, student.Email, ""); err != nil {
		return nil, err
	}

	credential, err := auth.DefaultCredential()
	if err != nil {
		return nil, fmt.Errorf("error creating default credential: %w", err)
	}
	student.Credential = credential

	if err := s.studentRepo.Create(ctx, student); err != nil {
		if mapped := s.mapWriteError(err, student, "."); mapped != nil {
			return nil, mapped
		}
		s.logger.Error().Err(err).Str("studentID", student.StudentID).Msg("Failed to add student")
		return nil, fmt.Errorf("error creating student: %w", err)
	}

	s.logger.Info().Str("id", student.ID).Str("studentID", student.StudentID).Msg("Student created")
	return student, nil
}

// UpdateStudent replaces profile fields. An email change moves the student's
// enrollments to the new address; if that fails the previous profile is
// written back and the error returned.
func (s *studentServiceImpl) UpdateStudent(ctx context.Context, id string, req *dto.StudentRequest) (*models.Student, error) {
	req = req.Normalized()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	existing, err := s.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := &models.Student{
		ID:         existing.ID,
		StudentID:  req.StudentID,
		Name:       req.Name,
		Email:      models.NormalizeEmail(req.Email),
		Program:    req.Program,
		Credential: existing.Credential,
		CreatedAt:  existing.CreatedAt,
	}
	if err := s.checkUnique(ctx, updated.StudentID, updated.Email, existing.ID); err != nil {
		return nil, err
	}

	if err := s.studentRepo.Update(ctx, updated); err != nil {
		if mapped := s.mapWriteError(err, updated, " for another student."); mapped != nil {
			return nil, mapped
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to update student")
		return nil, fmt.Errorf("error updating student: %w", err)
	}

	if updated.Email != existing.Email {
		moved, err := s.enrollmentRepo.ReassignStudent(ctx, existing.Email, updated.Email)
		if err != nil {
			s.logger.Error().Err(err).Str("id", id).Str("from", existing.Email).Str("to", updated.Email).
				Msg("Failed to move enrollments to the new email")
			if restoreErr := s.studentRepo.Update(ctx, existing); restoreErr != nil {
				s.logger.Error().Err(restoreErr).Str("id", id).Msg("Failed to restore student after enrollment move")
			}
			return nil, fmt.Errorf("error moving enrollments to %s: %w", updated.Email, err)
		}
		s.logger.Info().Str("id", id).Int64("enrollments", moved).Msg("Enrollments moved to the new email")
	}

	return updated, nil
}

// DeleteStudent removes the student. Enrollments keyed by the student's
// email are left in place.
func (s *studentServiceImpl) DeleteStudent(ctx context.Context, id string) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return studentNotFound()
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to delete student")
		return fmt.Errorf("error deleting student: %w", err)
	}
	s.logger.Info().Str("id", id).Msg("Student deleted")
	return nil
}
