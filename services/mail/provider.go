package mail

import (
	"fmt"

	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/metrics"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(ProvideSender),
	fx.Provide(ProvideMailer),
)

func ProvideSender(cfg *config.Config, logger *logging.Service) (Sender, error) {
	switch cfg.Mail.Driver {
	case "smtp":
		return NewSMTPSender(cfg.Mail, logger)
	case "log":
		return NewLogSender(logger), nil
	case "memory":
		return NewMemorySender(), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownMailDriver, cfg.Mail.Driver)
	}
}

func ProvideMailer(cfg *config.Config, sender Sender, logger *logging.Service, collector *metrics.Collector) (*Mailer, error) {
	return NewMailer(sender, MailerConfig{
		AppName:      cfg.App.Name,
		SupportEmail: cfg.Mail.SupportAddress,
	}, logger, collector)
}
