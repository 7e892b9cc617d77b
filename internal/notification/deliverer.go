package notification

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-workspace/internal/validation"
)

// Deliverer доставляет готовое сообщение либо возвращает ошибку доставки.
type Deliverer interface {
	Deliver(ctx context.Context, recipient, subject, body string) error
}

var ErrSMTPNotConfigured = errors.New("smtp not configured")

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

// SMTPDeliverer отправляет уведомления письмами в кодировке UTF-8.
type SMTPDeliverer struct {
	config SMTPConfig
	server string
	auth   smtp.Auth
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPDeliverer(config SMTPConfig) *SMTPDeliverer {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &SMTPDeliverer{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

func (s *SMTPDeliverer) Deliver(ctx context.Context, recipient, subject, body string) error {
	if !s.config.IsConfigured() {
		return ErrSMTPNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validation.ValidateEmail(recipient); err != nil {
		return fmt.Errorf("smtp: некорректный адрес получателя %q: %w", recipient, err)
	}

	if err := s.send(s.server, s.auth, s.config.From, []string{recipient}, s.compose(recipient, subject, body)); err != nil {
		return fmt.Errorf("smtp: отправка на %s: %w", recipient, err)
	}
	return nil
}

func (s *SMTPDeliverer) compose(recipient, subject, body string) []byte {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)

	return []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		recipient,
		from,
		subject,
		strings.ReplaceAll(body, "\n", "\r\n"),
	))
}

// LogDeliverer пишет уведомления в лог; используется, когда SMTP не настроен.
type LogDeliverer struct {
	log logrus.FieldLogger
}

func NewLogDeliverer(log logrus.FieldLogger) *LogDeliverer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogDeliverer{log: log}
}

func (l *LogDeliverer) Deliver(ctx context.Context, recipient, subject, body string) error {
	l.log.WithFields(logrus.Fields{
		"recipient": recipient,
		"subject":   subject,
	}).Info("notification delivered to log")
	return nil
}
