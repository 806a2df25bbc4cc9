package dto

import "github.com/campuspulse/campuspulse/internal/app/models"

// TeacherDashboard aggregates catalog wide figures
type TeacherDashboard struct {
	TotalCourses     int64            `json:"totalCourses"`
	TotalStudents    int64            `json:"totalStudents"`
	TotalEnrollments int64            `json:"totalEnrollments"`
	PopularCourses   []*models.Course `json:"popularCourses"`
}

// StudentDashboard summarises the signed-in student's enrollments
type StudentDashboard struct {
	EnrolledCourses  int                  `json:"enrolledCourses"`
	TotalCredits     int                  `json:"totalCredits"`
	AvailableCourses int                  `json:"availableCourses"`
	Enrollments      []*models.Enrollment `json:"enrollments"`
}

// DashboardResponse holds exactly one of the role specific views
type DashboardResponse struct {
	Role    string            `json:"role"`
	Teacher *TeacherDashboard `json:"teacher,omitempty"`
	Student *StudentDashboard `json:"student,omitempty"`
}
