package dto

import "strings"

// CourseRequest is the body of course create and update
type CourseRequest struct {
	Code        string `json:"code" binding:"required,min=3,max=10" example:"CS101"`
	Title       string `json:"title" binding:"required,min=5,max=100" example:"Intro to Programming"`
	Description string `json:"description" binding:"omitempty,min=10,max=500" example:"Fundamentals of programming with Go."`
	Credits     int    `json:"credits" binding:"required,min=1,max=10" example:"3"`
}

// Normalized returns a copy with surrounding whitespace removed. Length rules
// are checked against this copy, which is what gets stored.
func (r *CourseRequest) Normalized() *CourseRequest {
	return &CourseRequest{
		Code:        strings.TrimSpace(r.Code),
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Credits:     r.Credits,
	}
}
