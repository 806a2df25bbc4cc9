package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answer struct {
	Description string `json:"description"`
}

func fakeGemini(t *testing.T, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]interface{}{{"text": text}},
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGenerator(t *testing.T, baseURL string) Generator {
	t.Helper()
	g, err := New(context.Background(), Config{
		APIKey:  "test-key",
		Model:   "gemini-test",
		Timeout: 5 * time.Second,
		BaseURL: baseURL,
	}, zerolog.Nop())
	require.NoError(t, err)
	return g
}

func TestGenerateJSON_DecodesAnswer(t *testing.T) {
	srv := fakeGemini(t, `{"description":"An engaging introduction."}`)
	g := newTestGenerator(t, srv.URL)

	var out answer
	err := g.GenerateJSON(context.Background(), "describe", []Field{{Name: "description"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "An engaging introduction.", out.Description)
}

func TestGenerateJSON_MissingField(t *testing.T) {
	srv := fakeGemini(t, `{"description":"  "}`)
	g := newTestGenerator(t, srv.URL)

	var out answer
	err := g.GenerateJSON(context.Background(), "describe", []Field{{Name: "description"}}, &out)
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestGenerateJSON_NotJSON(t *testing.T) {
	srv := fakeGemini(t, "plain words")
	g := newTestGenerator(t, srv.URL)

	var out answer
	err := g.GenerateJSON(context.Background(), "describe", []Field{{Name: "description"}}, &out)
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestNew_WithoutKeyIsDisabled(t *testing.T) {
	g, err := New(context.Background(), Config{}, zerolog.Nop())
	require.NoError(t, err)

	var out answer
	assert.ErrorIs(t, g.GenerateJSON(context.Background(), "p", nil, &out), ErrNotConfigured)
}

func TestResponseSchema(t *testing.T) {
	s := responseSchema([]Field{{Name: "suggestions"}, {Name: "justification"}})
	assert.Len(t, s.Properties, 2)
	assert.Equal(t, []string{"suggestions", "justification"}, s.Required)
}
