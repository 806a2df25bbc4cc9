package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"text/template"

	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/metrics"
	"github.com/campuspulse/campuspulse/internal/pkg/textgen"
	"github.com/campuspulse/campuspulse/internal/pkg/validation"
	"github.com/rs/zerolog"
)

var courseDescriptionPrompt = template.Must(template.New("courseDescription").Parse(
	`You are an expert curriculum designer assisting a university faculty member.
Write a compelling and informative course description for the following college course.

Course Title: "{{.CourseTitle}}"
Course Code: {{.CourseCode}}
{{- if .Keywords}}
Incorporate the following keywords or themes: "{{.Keywords}}"
{{- end}}

The description should be 2-4 sentences in an engaging, professional tone suitable for a university course catalog.
Tell prospective students what the course covers and what they will learn.
Avoid technical jargon unless it is essential and explained.
Focus on the key learning outcomes and the value of the course.
`))

var resourceOptimizationPrompt = template.Must(template.New("resourceOptimization").Parse(
	`You are an expert in resource optimization for higher education institutions.

Based on the information below, suggest how the college could allocate its resources better.
Justify each suggestion and explain how it improves efficiency or reduces costs.

Current Enrollment: {{.CurrentEnrollment}}
Available Budget: {{.AvailableBudget}}
Existing Resources: {{.ExistingResources}}
Historical Data: {{.HistoricalData}}
`))

// AIService defines the interface for text generation helpers
type AIService interface {
	GenerateCourseDescription(ctx context.Context, req *dto.CourseDescriptionRequest) (*dto.CourseDescriptionResponse, error)
	SuggestResourceOptimizations(ctx context.Context, req *dto.ResourceOptimizationRequest) (*dto.ResourceOptimizationResponse, error)
}

// aiServiceImpl implements AIService
type aiServiceImpl struct {
	generator textgen.Generator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewAIService creates a new AIService. m may be nil.
func NewAIService(generator textgen.Generator, m *metrics.Metrics, logger zerolog.Logger) AIService {
	return &aiServiceImpl{
		generator: generator,
		metrics:   m,
		logger:    logger,
	}
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// generate renders the prompt, calls the model and validates the decoded answer
func (s *aiServiceImpl) generate(ctx context.Context, task string, prompt *template.Template, in interface{}, fields []textgen.Field, out interface{}, failure string) error {
	text, err := render(prompt, in)
	if err != nil {
		return apperrors.NewServiceError(failure, err)
	}

	err = s.generator.GenerateJSON(ctx, text, fields, out)
	if err == nil {
		err = validation.Struct(out)
	}
	s.metrics.AIRequest(task, err)
	if err != nil {
		event := s.logger.Error()
		if errors.Is(err, textgen.ErrNotConfigured) {
			event = s.logger.Warn()
		}
		event.Err(err).Str("task", task).Msg("Text generation failed")
		return apperrors.NewServiceError(failure, err)
	}
	return nil
}

// GenerateCourseDescription drafts a catalog description
func (s *aiServiceImpl) GenerateCourseDescription(ctx context.Context, req *dto.CourseDescriptionRequest) (*dto.CourseDescriptionResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var out dto.CourseDescriptionResponse
	err := s.generate(ctx, "course_description", courseDescriptionPrompt, req, []textgen.Field{
		{Name: "description", Description: "The generated course description."},
	}, &out, "The AI failed to generate a description.")
	if err != nil {
		return nil, err
	}

	out.Description = strings.TrimSpace(out.Description)
	return &out, nil
}

// SuggestResourceOptimizations drafts resource allocation suggestions
func (s *aiServiceImpl) SuggestResourceOptimizations(ctx context.Context, req *dto.ResourceOptimizationRequest) (*dto.ResourceOptimizationResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	data := struct {
		CurrentEnrollment float64
		AvailableBudget   float64
		ExistingResources string
		HistoricalData    string
	}{req.CurrentEnrollment, *req.AvailableBudget, req.ExistingResources, req.HistoricalData}

	var out dto.ResourceOptimizationResponse
	err := s.generate(ctx, "resource_optimization", resourceOptimizationPrompt, data, []textgen.Field{
		{Name: "suggestions", Description: "Specific, actionable suggestions for optimizing resource allocation, including potential cost savings and efficiency improvements."},
		{Name: "justification", Description: "The rationale behind each suggestion, based on the provided data."},
	}, &out, "The AI failed to generate suggestions.")
	if err != nil {
		return nil, err
	}
	return &out, nil
}
