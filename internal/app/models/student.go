package models

import (
	"strings"
	"time"

	"github.com/campuspulse/campuspulse/internal/pkg/auth"
)

// Student is a student account. Credential is excluded from every JSON
// rendering and can only be changed through the credential-change operation.
type Student struct {
	ID         string          `json:"id" db:"id" example:"6650f1c2a4b1e2d3c4f5a6b7"`
	StudentID  string          `json:"studentId" db:"student_id" example:"S12345"`
	Name       string          `json:"name" db:"name" example:"Ada Lovelace"`
	Email      string          `json:"email" db:"email" example:"ada@campus.edu"`
	Program    string          `json:"program" db:"program" example:"Computer Science"`
	Credential auth.Credential `json:"-" db:"password_hash"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// NormalizeEmail returns the stored form of an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
