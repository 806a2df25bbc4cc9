// Package seed loads demo data into an empty catalog.
package seed

import (
	"context"
	"errors"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// DemoCourses is the catalog created by CreateDemoCourses
var DemoCourses = []models.Course{
	{Code: "CS101", Title: "Introduction to Programming", Credits: 3,
		Description: "Fundamentals of programming: variables, control flow, functions and basic data structures."},
	{Code: "CS201", Title: "Data Structures and Algorithms", Credits: 4,
		Description: "Lists, trees, graphs and hash tables, with the analysis of the algorithms that use them."},
	{Code: "MA101", Title: "Calculus I", Credits: 4,
		Description: "Limits, derivatives and integrals of functions of one variable with applications."},
	{Code: "PH101", Title: "General Physics", Credits: 3},
	{Code: "EN102", Title: "Academic Writing", Credits: 2,
		Description: "Structuring arguments, citing sources and revising drafts for university coursework."},
}

// CreateDemoCourses adds every demo course whose code is not taken yet.
// Failures are collected and returned together; existing codes are skipped.
func CreateDemoCourses(ctx context.Context, courses repositories.CourseRepository, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating demo courses...")

	var finalErr error
	created := 0
	for _, c := range DemoCourses {
		course := c
		err := courses.Create(ctx, &course)
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrCourseCodeExists):
			lgr.Debug().Str("code", course.Code).Msg("Demo course already present")
		default:
			lgr.Error().Err(err).Str("code", course.Code).Msg("Error creating demo course")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Int("created", created).Msg("Demo courses ready")
	return finalErr
}
