package models

import "time"

// Enrollment links a student, identified by email, to a course.
type Enrollment struct {
	ID             string         `json:"id" db:"id"`
	StudentEmail   string         `json:"studentId" db:"student_email" example:"ada@campus.edu"`
	CourseID       string         `json:"courseId" db:"course_id"`
	EnrollmentDate time.Time      `json:"enrollmentDate" db:"enrollment_date"`
	Course         *CourseSummary `json:"course,omitempty"`
}
