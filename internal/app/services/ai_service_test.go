package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/textgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budget(v float64) *float64 { return &v }

func TestAIService_GenerateCourseDescription(t *testing.T) {
	gen := &stubGenerator{answer: map[string]string{"description": "  Learn to program in Go.  "}}
	svc := NewAIService(gen, nil, nopLogger)

	out, err := svc.GenerateCourseDescription(context.Background(), &dto.CourseDescriptionRequest{
		CourseTitle: "Intro to Programming",
		CourseCode:  "CS101",
		Keywords:    "loops, functions",
	})
	require.NoError(t, err)
	assert.Equal(t, "Learn to program in Go.", out.Description)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `Course Title: "Intro to Programming"`)
	assert.Contains(t, gen.prompts[0], "Course Code: CS101")
	assert.Contains(t, gen.prompts[0], `"loops, functions"`)
}

func TestAIService_DescriptionPromptOmitsEmptyKeywords(t *testing.T) {
	gen := &stubGenerator{answer: map[string]string{"description": "A course."}}
	svc := NewAIService(gen, nil, nopLogger)

	_, err := svc.GenerateCourseDescription(context.Background(), &dto.CourseDescriptionRequest{CourseTitle: "Intro to Programming", CourseCode: "CS101"})
	require.NoError(t, err)
	assert.NotContains(t, gen.prompts[0], "keywords")
}

func TestAIService_SuggestResourceOptimizations(t *testing.T) {
	gen := &stubGenerator{answer: map[string]string{
		"suggestions":   "Merge the two evening labs.",
		"justification": "Both run below 40% utilisation.",
	}}
	svc := NewAIService(gen, nil, nopLogger)

	out, err := svc.SuggestResourceOptimizations(context.Background(), &dto.ResourceOptimizationRequest{
		CurrentEnrollment: 1200,
		AvailableBudget:   budget(0),
		ExistingResources: "3 labs with 40 seats each",
		HistoricalData:    "Lab utilisation peaked at 95% in week 6",
	})
	require.NoError(t, err)
	assert.Equal(t, "Merge the two evening labs.", out.Suggestions)
	assert.Equal(t, "Both run below 40% utilisation.", out.Justification)
	assert.Contains(t, gen.prompts[0], "Current Enrollment: 1200")
	assert.Contains(t, gen.prompts[0], "Available Budget: 0")
}

func TestAIService_ValidatesInput(t *testing.T) {
	gen := &stubGenerator{}
	svc := NewAIService(gen, nil, nopLogger)

	_, err := svc.GenerateCourseDescription(context.Background(), &dto.CourseDescriptionRequest{CourseTitle: "Intro"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.SuggestResourceOptimizations(context.Background(), &dto.ResourceOptimizationRequest{
		CurrentEnrollment: 0,
		ExistingResources: "short",
		HistoricalData:    "short",
	})
	require.Error(t, err)
	var ce *apperrors.CustomError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Details, "currentEnrollment")
	assert.Contains(t, ce.Details, "availableBudget")
	assert.Contains(t, ce.Details, "existingResources")
	assert.Contains(t, ce.Details, "historicalData")

	assert.Empty(t, gen.prompts)
}

func TestAIService_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  textgen.Generator
	}{
		{"upstream error", &stubGenerator{err: errors.New("quota exceeded")}},
		{"empty output", &stubGenerator{err: textgen.ErrEmptyOutput}},
		{"missing field", &stubGenerator{answer: map[string]string{"other": "x"}}},
		{"not configured", &stubGenerator{err: textgen.ErrNotConfigured}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAIService(tt.gen, nil, nopLogger)

			_, err := svc.GenerateCourseDescription(context.Background(), &dto.CourseDescriptionRequest{CourseTitle: "Intro to Programming", CourseCode: "CS101"})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
			assert.Equal(t, "The AI failed to generate a description.", err.Error())
		})
	}

	svc := NewAIService(&stubGenerator{answer: map[string]string{"suggestions": "x"}}, nil, nopLogger)
	_, err := svc.SuggestResourceOptimizations(context.Background(), &dto.ResourceOptimizationRequest{
		CurrentEnrollment: 10,
		AvailableBudget:   budget(100),
		ExistingResources: "one lecture hall",
		HistoricalData:    "steady over five years",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
	assert.Equal(t, "The AI failed to generate suggestions.", err.Error())
}
