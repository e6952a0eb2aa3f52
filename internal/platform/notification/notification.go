// Package notification sends templated email notifications for appointment
// lifecycle events. Delivery is best-effort: a failed send never fails the
// operation that triggered it.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "appointment-accepted",
			Name:    "Appointment Accepted",
			Subject: "Your appointment with {{doctor_name}} is confirmed",
			Body:    "Dear {{patient_name}}, your video consultation with {{doctor_name}} on {{date}} at {{time}} has been confirmed. Join link: {{meeting_link}}",
		},
		{
			ID:      "appointment-rejected",
			Name:    "Appointment Rejected",
			Subject: "Your appointment request could not be confirmed",
			Body:    "Dear {{patient_name}}, your appointment request with {{doctor_name}} on {{date}} at {{time}} was declined. Reason: {{reason}}",
		},
		{
			ID:      "appointment-reminder",
			Name:    "Appointment Reminder",
			Subject: "Appointment reminder for {{patient_name}}",
			Body:    "Dear {{patient_name}}, this is a reminder of your consultation on {{date}} at {{time}} with {{doctor_name}}. Join link: {{meeting_link}}",
		},
		{
			ID:      "queue-turn",
			Name:    "Queue Turn",
			Subject: "You are next in the queue",
			Body:    "Dear {{patient_name}}, you are now position {{position}} in the queue at {{clinic_name}}. Please be ready.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Senders
// ---------------------------------------------------------------------------

// LogSender writes notifications to the structured log instead of delivering
// them. It is the default sender until an SMTP integration is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("email notification")
	return nil
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

// Notifier renders templates and dispatches them through an EmailSender.
type Notifier struct {
	sender    EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger
}

// NewNotifier constructs a Notifier.
func NewNotifier(sender EmailSender, templates *TemplateEngine, logger zerolog.Logger) *Notifier {
	return &Notifier{
		sender:    sender,
		templates: templates,
		logger:    logger,
	}
}

// Notify renders templateID with data and emails the result to recipient.
// Delivery failures are logged and swallowed.
func (n *Notifier) Notify(ctx context.Context, templateID, recipient string, data map[string]string) {
	subject, body, err := n.templates.Render(templateID, data)
	if err != nil {
		n.logger.Error().Err(err).Str("template", templateID).Msg("render notification")
		return
	}
	if err := n.sender.SendEmail(ctx, recipient, subject, body); err != nil {
		n.logger.Error().Err(err).
			Str("template", templateID).
			Str("recipient", recipient).
			Msg("send notification")
	}
}
