package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var ErrFromAddressRequired = errors.New("MAIL_FROM_ADDRESS is required")

type MailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	client MailClient
	from   Address
	logger *logging.Service
}

func NewSMTPSender(cfg config.MailConfig, logger *logging.Service) (*SMTPSender, error) {
	logger.Info("initializing smtp sender",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("encryption", cfg.Encryption))

	if cfg.FromAddress == "" {
		return nil, ErrFromAddressRequired
	}

	client, err := mail.NewClient(cfg.Host, clientOptions(cfg)...)
	if err != nil {
		logger.Error("failed to create mail client",
			zap.Error(err),
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port))
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return NewSMTPSenderWithClient(cfg, client, logger)
}

func NewSMTPSenderWithClient(cfg config.MailConfig, client MailClient, logger *logging.Service) (*SMTPSender, error) {
	if cfg.FromAddress == "" {
		return nil, ErrFromAddressRequired
	}
	return &SMTPSender{
		client: client,
		from:   Address{Name: cfg.FromName, Email: cfg.FromAddress},
		logger: logger,
	}, nil
}

func clientOptions(cfg config.MailConfig) []mail.Option {
	opts := []mail.Option{mail.WithPort(cfg.Port)}

	switch cfg.Encryption {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "none":
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}

	return opts
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Error("failed to send email",
			zap.Error(err),
			zap.String("subject", msg.Subject),
			zap.Duration("attempt_duration", time.Since(start)))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		zap.String("subject", msg.Subject),
		zap.Duration("send_duration", time.Since(start)))
	return nil
}

func (s *SMTPSender) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	if err := m.FromFormat(s.from.Name, s.from.Email); err != nil {
		return nil, fmt.Errorf("failed to set FROM address: %w", err)
	}
	if err := m.AddToFormat(msg.To.Name, msg.To.Email); err != nil {
		return nil, fmt.Errorf("failed to set TO address: %w", err)
	}
	m.Subject(msg.Subject)

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
	}

	return m, nil
}
