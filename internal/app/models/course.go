package models

import (
	"strings"
	"time"
)

// Course is a catalog entry. StudentsEnrolled is derived from the enrollment
// ledger on every read and is never persisted.
type Course struct {
	ID               string    `json:"id" db:"id" example:"6650f1c2a4b1e2d3c4f5a6b7"`
	Code             string    `json:"code" db:"code" example:"CS101"`
	Title            string    `json:"title" db:"title" example:"Intro to Programming"`
	Description      string    `json:"description,omitempty" db:"description"`
	Credits          int       `json:"credits" db:"credits" example:"3"`
	StudentsEnrolled int       `json:"studentsEnrolled" example:"0"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// NormalizeCourseCode returns the stored form of a course code
func NormalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CourseSummary is the subset of a course embedded in enrollment listings
type CourseSummary struct {
	Code        string `json:"code" example:"CS101"`
	Title       string `json:"title" example:"Intro to Programming"`
	Credits     int    `json:"credits" example:"3"`
	Description string `json:"description,omitempty"`
}

// Summary projects the course onto a CourseSummary
func (c *Course) Summary() *CourseSummary {
	return &CourseSummary{
		Code:        c.Code,
		Title:       c.Title,
		Credits:     c.Credits,
		Description: c.Description,
	}
}
