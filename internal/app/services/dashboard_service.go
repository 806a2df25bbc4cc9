package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	"github.com/rs/zerolog"
)

const popularCoursesLimit = 5

// DashboardService defines the interface for dashboard summaries
type DashboardService interface {
	Summary(ctx context.Context, claims *auth.Claims) (*dto.DashboardResponse, error)
}

// dashboardServiceImpl implements DashboardService
type dashboardServiceImpl struct {
	repos  *repositories.Repositories
	logger zerolog.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(repos *repositories.Repositories, logger zerolog.Logger) DashboardService {
	return &dashboardServiceImpl{
		repos:  repos,
		logger: logger,
	}
}

// Summary returns the teacher or student view depending on the caller's role
func (s *dashboardServiceImpl) Summary(ctx context.Context, claims *auth.Claims) (*dto.DashboardResponse, error) {
	if claims.IsTeacher() {
		teacher, err := s.teacherSummary(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to build teacher dashboard")
			return nil, err
		}
		return &dto.DashboardResponse{Role: auth.RoleTeacher, Teacher: teacher}, nil
	}

	student, err := s.studentSummary(ctx, claims.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", claims.Email).Msg("Failed to build student dashboard")
		return nil, err
	}
	return &dto.DashboardResponse{Role: auth.RoleStudent, Student: student}, nil
}

func (s *dashboardServiceImpl) teacherSummary(ctx context.Context) (*dto.TeacherDashboard, error) {
	courses, err := s.repos.Courses.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting courses: %w", err)
	}
	students, err := s.repos.Students.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting students: %w", err)
	}
	enrollments, err := s.repos.Enrollments.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting enrollments: %w", err)
	}

	popular := make([]*models.Course, len(courses))
	copy(popular, courses)
	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].StudentsEnrolled > popular[j].StudentsEnrolled
	})
	if len(popular) > popularCoursesLimit {
		popular = popular[:popularCoursesLimit]
	}

	return &dto.TeacherDashboard{
		TotalCourses:     int64(len(courses)),
		TotalStudents:    students,
		TotalEnrollments: enrollments,
		PopularCourses:   popular,
	}, nil
}

func (s *dashboardServiceImpl) studentSummary(ctx context.Context, email string) (*dto.StudentDashboard, error) {
	enrollments, err := s.repos.Enrollments.GetByStudent(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error getting enrollments: %w", err)
	}
	total, err := s.repos.Courses.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting courses: %w", err)
	}

	credits := 0
	for _, e := range enrollments {
		if e.Course != nil {
			credits += e.Course.Credits
		}
	}

	return &dto.StudentDashboard{
		EnrolledCourses:  len(enrollments),
		TotalCredits:     credits,
		AvailableCourses: int(total) - len(enrollments),
		Enrollments:      enrollments,
	}, nil
}
