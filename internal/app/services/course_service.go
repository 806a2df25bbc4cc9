package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/notify"
	"github.com/campuspulse/campuspulse/internal/pkg/validation"
	"github.com/rs/zerolog"
)

const notificationTimeout = 2 * time.Minute

// CourseService defines the interface for course catalog operations
type CourseService interface {
	ListCourses(ctx context.Context) ([]*models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, req *dto.CourseRequest) (*models.Course, error)
	UpdateCourse(ctx context.Context, id string, req *dto.CourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
}

// courseServiceImpl implements CourseService
type courseServiceImpl struct {
	courseRepo  repositories.CourseRepository
	studentRepo repositories.StudentRepository
	notifier    notify.Notifier
	logger      zerolog.Logger

	pending sync.WaitGroup
}

// NewCourseService creates a new CourseService
func NewCourseService(
	courseRepo repositories.CourseRepository,
	studentRepo repositories.StudentRepository,
	notifier notify.Notifier,
	logger zerolog.Logger,
) CourseService {
	return &courseServiceImpl{
		courseRepo:  courseRepo,
		studentRepo: studentRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

func courseNotFound() error {
	return apperrors.NewResourceNotFoundError("Course not found")
}

// ListCourses returns every course with its live enrollment count
func (s *courseServiceImpl) ListCourses(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.courseRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch courses")
		return nil, fmt.Errorf("error getting courses: %w", err)
	}
	return courses, nil
}

// GetCourse returns one course
func (s *courseServiceImpl) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return nil, courseNotFound()
		}
		s.logger.Error().Err(err).Str("courseID", id).Msg("Failed to fetch course")
		return nil, fmt.Errorf("error getting course: %w", err)
	}
	return course, nil
}

// findCodeOwner returns the course other than excludeID whose code equals
// code ignoring case.
func (s *courseServiceImpl) findCodeOwner(ctx context.Context, code, excludeID string) (*models.Course, error) {
	courses, err := s.courseRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error scanning courses: %w", err)
	}
	for _, c := range courses {
		if c.ID != excludeID && strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return nil, nil
}

// CreateCourse validates and stores a new course, then announces it to all
// students in the background
func (s *courseServiceImpl) CreateCourse(ctx context.Context, req *dto.CourseRequest) (*models.Course, error) {
	req = req.Normalized()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	code := models.NormalizeCourseCode(req.Code)
	owner, err := s.findCodeOwner(ctx, code, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check course code uniqueness")
		return nil, err
	}
	if owner != nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("Course code %s already exists.", code))
	}

	course := &models.Course{
		Code:        code,
		Title:       req.Title,
		Description: req.Description,
		Credits:     req.Credits,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		if errors.Is(err, apperrors.ErrCourseCodeExists) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("Course code %s already exists.", code))
		}
		s.logger.Error().Err(err).Str("code", code).Msg("Failed to add course")
		return nil, fmt.Errorf("error creating course: %w", err)
	}

	s.logger.Info().Str("courseID", course.ID).Str("code", course.Code).Msg("Course created")
	s.announce(course)
	return course, nil
}

// announce notifies every student about course without blocking the caller
func (s *courseServiceImpl) announce(course *models.Course) {
	if s.notifier == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()

		students, err := s.studentRepo.GetAll(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("code", course.Code).Msg("Failed to load students for course announcement")
			return
		}
		if _, err := s.notifier.NotifyNewCourse(ctx, students, course); err != nil {
			s.logger.Warn().Err(err).Str("code", course.Code).Msg("Course announcement interrupted")
		}
	}()
}

// Wait blocks until background announcements have finished
func (s *courseServiceImpl) Wait() {
	s.pending.Wait()
}

// UpdateCourse replaces all editable fields of a course
func (s *courseServiceImpl) UpdateCourse(ctx context.Context, id string, req *dto.CourseRequest) (*models.Course, error) {
	req = req.Normalized()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	existing, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	code := models.NormalizeCourseCode(req.Code)
	owner, err := s.findCodeOwner(ctx, code, existing.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check course code uniqueness")
		return nil, err
	}
	if owner != nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("Course code %s already exists for another course.", code))
	}

	updated, err := s.courseRepo.Update(ctx, &models.Course{
		ID:          existing.ID,
		Code:        code,
		Title:       req.Title,
		Description: req.Description,
		Credits:     req.Credits,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrCourseNotFound):
			return nil, courseNotFound()
		case errors.Is(err, apperrors.ErrCourseCodeExists):
			return nil, apperrors.NewConflictError(fmt.Sprintf("Course code %s already exists for another course.", code))
		}
		s.logger.Error().Err(err).Str("courseID", id).Msg("Failed to update course")
		return nil, fmt.Errorf("error updating course: %w", err)
	}
	return updated, nil
}

// DeleteCourse removes the course together with its enrollments
func (s *courseServiceImpl) DeleteCourse(ctx context.Context, id string) error {
	if err := s.courseRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return courseNotFound()
		}
		s.logger.Error().Err(err).Str("courseID", id).Msg("Failed to delete course")
		return fmt.Errorf("error deleting course: %w", err)
	}
	s.logger.Info().Str("courseID", id).Msg("Course deleted")
	return nil
}
