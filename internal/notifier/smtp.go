package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/pfrederiksen/inovar-agenda/internal/config"
	"github.com/pfrederiksen/inovar-agenda/internal/logger"
)

const smtpTimeout = 30 * time.Second

// SMTPNotifier mails reminders through an authenticated STARTTLS server
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	timeout  time.Duration
}

// NewSMTPNotifier creates a notifier from the mail configuration.
// The sender address doubles as the SMTP username.
func NewSMTPNotifier(cfg config.MailConfig) (*SMTPNotifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &SMTPNotifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SenderEmail,
		password: cfg.AppPassword,
		from:     cfg.SenderEmail,
		to:       append([]string(nil), cfg.Receivers...),
		timeout:  smtpTimeout,
	}, nil
}

// Notify sends msg to every receiver in a single mail
func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	m, err := n.buildMessage(msg)
	if err != nil {
		return n.dispatchError(err)
	}

	client, err := mail.NewClient(n.host,
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithPort(n.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.username),
		mail.WithPassword(n.password),
		mail.WithTimeout(n.timeout),
	)
	if err != nil {
		return n.dispatchError(fmt.Errorf("creating SMTP client: %w", err))
	}

	logger.Info("Sending email", logger.Fields{
		"smtp_host":  n.host,
		"smtp_port":  n.port,
		"recipients": len(n.to),
		"subject":    msg.Subject,
	})

	start := time.Now()
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		logger.IncrCounter("notifications.failed")
		return n.dispatchError(err)
	}

	logger.RecordTiming("notifier.smtp", time.Since(start))
	logger.IncrCounter("notifications.sent")
	logger.Info("Email sent", logger.Fields{"recipients": len(n.to)})
	return nil
}

// buildMessage assembles the mail for msg
func (n *SMTPNotifier) buildMessage(msg Message) (*mail.Msg, error) {
	if msg.Subject == "" {
		return nil, errors.New("message subject is empty")
	}

	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("setting sender: %w", err)
	}
	if err := m.To(n.to...); err != nil {
		return nil, fmt.Errorf("setting recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, NormalizeBody(msg.Body))

	for _, a := range msg.Attachments {
		opts := []mail.FileOption{}
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Name, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("attaching %s: %w", a.Name, err)
		}
	}

	return m, nil
}

func (n *SMTPNotifier) dispatchError(err error) error {
	return &DispatchError{Channel: "email", Recipients: n.to, Err: err}
}
