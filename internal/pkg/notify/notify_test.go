package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStudents() []*models.Student {
	return []*models.Student{
		{Name: "Ada", Email: "ada@x.com"},
		{Name: "Bob", Email: "bob@x.com"},
		{Name: "Cy", Email: "cy@x.com"},
	}
}

func TestNew_WithoutKeyLogsOnly(t *testing.T) {
	n := New(Config{}, zerolog.Nop())
	_, ok := n.(*LogNotifier)
	require.True(t, ok)

	sent, err := n.NotifyNewCourse(context.Background(), testStudents(), &models.Course{Code: "CS101"})
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
}

func TestSendGridNotifier_SkipsFailedRecipients(t *testing.T) {
	n := New(Config{SendGridAPIKey: "SG.test", FromName: "CampusPulse", FromAddress: "no-reply@x.com", AppURL: "http://app"}, zerolog.Nop()).(*SendGridNotifier)

	var bodies []string
	n.send = func(req rest.Request) (*rest.Response, error) {
		assert.Equal(t, rest.Post, req.Method)
		assert.Equal(t, "Bearer SG.test", req.Headers["Authorization"])
		body := string(req.Body)
		bodies = append(bodies, body)
		switch {
		case strings.Contains(body, "bob@x.com"):
			return nil, errors.New("connection reset")
		case strings.Contains(body, "cy@x.com"):
			return &rest.Response{StatusCode: http.StatusBadRequest}, nil
		}
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	course := &models.Course{Code: "CS101", Title: "Intro to Programming", Credits: 3}
	sent, err := n.NotifyNewCourse(context.Background(), testStudents(), course)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, bodies, 3)
	assert.Contains(t, bodies[0], "New course available: CS101")
	assert.Contains(t, bodies[0], "http://app/course-catalog")
}

func TestSendGridNotifier_StopsOnCancel(t *testing.T) {
	n := New(Config{SendGridAPIKey: "SG.test"}, zerolog.Nop()).(*SendGridNotifier)
	n.send = func(rest.Request) (*rest.Response, error) {
		t.Fatal("send must not be called after cancellation")
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sent, err := n.NotifyNewCourse(ctx, testStudents(), &models.Course{Code: "CS101"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sent)
}
