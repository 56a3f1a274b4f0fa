package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmlTemplate "html/template"
	textTemplate "text/template"

	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/metrics"
	"go.uber.org/zap"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

type Kind string

const (
	KindVerifyEmail        Kind = "verify-email"
	KindWelcomeVerifyEmail Kind = "welcome-verify-email"
	KindPasswordReset      Kind = "password-reset"
	KindLoginAlert         Kind = "login-alert"
	KindEmailChanged       Kind = "email-changed"
)

var Kinds = []Kind{
	KindVerifyEmail,
	KindWelcomeVerifyEmail,
	KindPasswordReset,
	KindLoginAlert,
	KindEmailChanged,
}

var subjects = map[Kind]string{
	KindVerifyEmail:        "Verify your email at %s",
	KindWelcomeVerifyEmail: "Welcome to %s",
	KindPasswordReset:      "Reset your %s password",
	KindLoginAlert:         "New login at %s",
	KindEmailChanged:       "Your %s email was changed",
}

// Data fills the templates. Name, Link and the kind-specific fields come from
// the caller; AppName and SupportEmail from the Mailer.
type Data struct {
	Name         string
	Link         string
	Validity     string
	IP           string
	Device       string
	Time         string
	NewEmail     string
	AppName      string
	SupportEmail string
}

type MailerConfig struct {
	AppName      string
	SupportEmail string
}

type kindTemplates struct {
	html *htmlTemplate.Template
	text *textTemplate.Template
}

// Mailer renders templated emails and hands them to a Sender.
type Mailer struct {
	sender    Sender
	cfg       MailerConfig
	templates map[Kind]kindTemplates
	logger    *logging.Service
	metrics   *metrics.Collector
}

func NewMailer(sender Sender, cfg MailerConfig, logger *logging.Service, collector *metrics.Collector) (*Mailer, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	logger.Debug("mail templates loaded", zap.Int("kinds", len(templates)))

	return &Mailer{
		sender:    sender,
		cfg:       cfg,
		templates: templates,
		logger:    logger,
		metrics:   collector,
	}, nil
}

func loadTemplates() (map[Kind]kindTemplates, error) {
	templates := make(map[Kind]kindTemplates, len(Kinds))

	for _, kind := range Kinds {
		html, err := htmlTemplate.ParseFS(templateFS, "templates/layout.html", "templates/"+string(kind)+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", kind, err)
		}

		text, err := textTemplate.ParseFS(templateFS, "templates/"+string(kind)+".txt")
		if err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", kind, err)
		}

		templates[kind] = kindTemplates{html: html, text: text}
	}

	return templates, nil
}

// Render builds the message for kind without sending it.
func (m *Mailer) Render(kind Kind, to Address, data Data) (Message, error) {
	tmpl, ok := m.templates[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail kind %q", kind)
	}

	data.AppName = m.cfg.AppName
	data.SupportEmail = m.cfg.SupportEmail
	if data.Name == "" {
		data.Name = to.Name
	}

	var htmlBuf bytes.Buffer
	if err := tmpl.html.ExecuteTemplate(&htmlBuf, string(kind)+".html", data); err != nil {
		return Message{}, fmt.Errorf("failed to execute HTML template %s: %w", kind, err)
	}

	var textBuf bytes.Buffer
	if err := tmpl.text.ExecuteTemplate(&textBuf, string(kind)+".txt", data); err != nil {
		return Message{}, fmt.Errorf("failed to execute text template %s: %w", kind, err)
	}

	return Message{
		To:      to,
		Subject: fmt.Sprintf(subjects[kind], m.cfg.AppName),
		HTML:    htmlBuf.String(),
		Text:    textBuf.String(),
	}, nil
}

func (m *Mailer) Send(ctx context.Context, kind Kind, to Address, data Data) error {
	msg, err := m.Render(kind, to, data)
	if err != nil {
		m.metrics.RecordMail(string(kind), "failed")
		m.logger.Error("failed to render email", zap.String("kind", string(kind)), zap.Error(err))
		return err
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		m.metrics.RecordMail(string(kind), "failed")
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	m.metrics.RecordMail(string(kind), "sent")
	m.logger.Debug("email handed to sender", zap.String("kind", string(kind)))
	return nil
}
