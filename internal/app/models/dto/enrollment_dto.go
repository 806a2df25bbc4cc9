package dto

// EnrollmentRequest enrolls the student identified by email in a course
type EnrollmentRequest struct {
	StudentID string `json:"studentId" binding:"required,email" example:"ada@campus.edu"`
	CourseID  string `json:"courseId" binding:"required" example:"6650f1c2a4b1e2d3c4f5a6b7"`
}
