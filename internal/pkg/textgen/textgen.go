// Package textgen is the gateway to the hosted text-generation model.
package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("text generation is not configured")

// ErrEmptyOutput is returned when the model answers without usable content
var ErrEmptyOutput = errors.New("model returned no output")

// Field is one string property of the structured answer
type Field struct {
	Name        string
	Description string
}

// Generator produces structured answers to prompts
type Generator interface {
	// GenerateJSON sends prompt and decodes the model's JSON answer, which
	// must carry every field, into out.
	GenerateJSON(ctx context.Context, prompt string, fields []Field, out interface{}) error
}

// Config holds the gateway settings
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the API endpoint
	BaseURL string
}

// GeminiGenerator calls the Gemini API through the genai SDK
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// New returns a Gemini-backed generator, or a disabled one when cfg has no key
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not set - AI endpoints will report the service as unavailable")
		return disabled{}, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGenerator{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func responseSchema(fields []Field) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
		Required:   make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		schema.Properties[f.Name] = &genai.Schema{Type: genai.TypeString, Description: f.Description}
		schema.Required = append(schema.Required, f.Name)
	}
	return schema
}

// GenerateJSON implements Generator
func (g *GeminiGenerator) GenerateJSON(ctx context.Context, prompt string, fields []Field, out interface{}) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(fields),
	})
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	g.logger.Debug().Str("model", g.model).Dur("latency", time.Since(start)).Int("chars", len(text)).Msg("Model answered")
	if text == "" {
		return ErrEmptyOutput
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrEmptyOutput, err)
	}
	for _, f := range fields {
		if s, ok := raw[f.Name].(string); !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: missing %q", ErrEmptyOutput, f.Name)
		}
	}

	return json.Unmarshal([]byte(text), out)
}

type disabled struct{}

func (disabled) GenerateJSON(context.Context, string, []Field, interface{}) error {
	return ErrNotConfigured
}
