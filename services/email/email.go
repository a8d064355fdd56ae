package emailsvc

import (
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
)

// NewService returns the console service in debug or without an API key, SendGrid otherwise.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return NewConsoleService(conf, logger)
	}
	return NewSendgridService(conf, logger)
}

func subjectPrefix(conf *core.Config) string {
	return "[" + conf.AppName + "] "
}

// render renders msg and reports whether it has something to deliver to someone.
func render(msg *core.EmailMessage) (bool, error) {
	if err := msg.Render(); err != nil {
		return false, errors.Wrapf(err, "rendering email %q", msg.Subject)
	}
	return msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()), nil
}
