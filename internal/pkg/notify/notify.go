// Package notify announces catalog changes to students.
package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// Notifier delivers the new-course announcement
type Notifier interface {
	// NotifyNewCourse tells every student about course. A failed recipient is
	// logged and skipped; the returned count is the number delivered.
	NotifyNewCourse(ctx context.Context, students []*models.Student, course *models.Course) (int, error)
}

// Config holds mail settings
type Config struct {
	SendGridAPIKey string
	FromName       string
	FromAddress    string
	AppURL         string
}

// New returns a SendGrid notifier, or a log-only one when no API key is set
func New(cfg Config, logger zerolog.Logger) Notifier {
	if cfg.SendGridAPIKey == "" {
		logger.Warn().Msg("SendGrid API key not configured - course announcements will only be logged")
		return &LogNotifier{logger: logger}
	}
	return &SendGridNotifier{
		key:    cfg.SendGridAPIKey,
		host:   sendGridHost,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		appURL: cfg.AppURL,
		logger: logger,
		send:   sendgrid.API,
	}
}

// SendGridNotifier sends one message per student through the SendGrid v3 API
type SendGridNotifier struct {
	key    string
	host   string
	from   *sgmail.Email
	appURL string
	logger zerolog.Logger
	send   func(rest.Request) (*rest.Response, error)
}

func (n *SendGridNotifier) message(student *models.Student, course *models.Course) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = fmt.Sprintf("New course available: %s", course.Code)
	p.AddTos(sgmail.NewEmail(student.Name, student.Email))

	text := fmt.Sprintf("Hello %s,\n\n%s %s (%d credits) is now open for enrollment.\n\n%s\n\nBrowse the catalog: %s/course-catalog\n",
		student.Name, course.Code, course.Title, course.Credits, course.Description, n.appURL)
	html := fmt.Sprintf(`<p>Hello %s,</p><p><strong>%s %s</strong> (%d credits) is now open for enrollment.</p><p>%s</p><p><a href="%s/course-catalog">Browse the catalog</a></p>`,
		student.Name, course.Code, course.Title, course.Credits, course.Description, n.appURL)

	m := sgmail.NewV3Mail()
	m.SetFrom(n.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", text),
		sgmail.NewContent("text/html", html),
	)
	return m
}

// NotifyNewCourse implements Notifier
func (n *SendGridNotifier) NotifyNewCourse(ctx context.Context, students []*models.Student, course *models.Course) (int, error) {
	sent := 0
	for _, student := range students {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		req := sendgrid.GetRequest(n.key, sendGridEndpoint, n.host)
		req.Method = rest.Post
		req.Body = sgmail.GetRequestBody(n.message(student, course))

		res, err := n.send(req)
		if err == nil && res.StatusCode >= http.StatusBadRequest {
			err = fmt.Errorf("sendgrid returned status %d", res.StatusCode)
		}
		if err != nil {
			n.logger.Warn().Err(err).Str("to", student.Email).Str("course", course.Code).Msg("Failed to send course announcement")
			continue
		}
		sent++
	}

	n.logger.Info().Str("course", course.Code).Int("sent", sent).Int("recipients", len(students)).Msg("Course announcement sent")
	return sent, nil
}

// LogNotifier writes announcements to the log instead of sending them
type LogNotifier struct {
	logger zerolog.Logger
}

// NotifyNewCourse implements Notifier
func (n *LogNotifier) NotifyNewCourse(_ context.Context, students []*models.Student, course *models.Course) (int, error) {
	for _, student := range students {
		n.logger.Info().Str("to", student.Email).Str("course", course.Code).Msg("Course announcement (not sent)")
	}
	return len(students), nil
}
