package dto

import "strings"

// StudentRequest is the body of student create and update
type StudentRequest struct {
	StudentID string `json:"studentId" binding:"required,min=5,max=15" example:"S12345"`
	Name      string `json:"name" binding:"required,min=3,max=100" example:"Ada Lovelace"`
	Email     string `json:"email" binding:"required,email" example:"ada@campus.edu"`
	Program   string `json:"program" binding:"required,min=3,max=50" example:"Computer Science"`
}

// Normalized returns a copy with surrounding whitespace removed
func (r *StudentRequest) Normalized() *StudentRequest {
	return &StudentRequest{
		StudentID: strings.TrimSpace(r.StudentID),
		Name:      strings.TrimSpace(r.Name),
		Email:     strings.TrimSpace(r.Email),
		Program:   strings.TrimSpace(r.Program),
	}
}
