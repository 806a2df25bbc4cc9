// Package postgres implements the repositories on PostgreSQL through pgx and squirrel.
package postgres

import (
	"github.com/Masterminds/squirrel"
	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/db"
	"github.com/google/uuid"
)

// Constraint names declared in migrations/001_init.sql
const (
	constraintCourseCode       = "courses_code_key"
	constraintStudentID        = "students_student_id_key"
	constraintStudentEmail     = "students_email_key"
	constraintEnrollmentUnique = "enrollments_student_course_key"
)

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// parseID returns the canonical form of id and whether it is a well-formed
// row identifier
func parseID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// nullableText maps an empty string onto SQL NULL
func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func textValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NewRepositories wires all repositories onto one pool
func NewRepositories(database *db.PostgresDB) *repositories.Repositories {
	return &repositories.Repositories{
		Students:    NewStudentRepository(database),
		Courses:     NewCourseRepository(database),
		Enrollments: NewEnrollmentRepository(database),
		Ping:        database.Ping,
	}
}
