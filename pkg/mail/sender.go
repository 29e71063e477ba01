package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

var errHostRequired = errors.New("smtp host is required")

// Attachment is a binary file attached to an outbound message.
type Attachment struct {
	Name    string
	Content []byte
}

// Message is a single outbound email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Sender delivers messages to a single recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail over an authenticated SMTP connection.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSender builds the SMTP sender from configuration.
func NewSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errHostRequired
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("building smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From}, nil
}

// Send delivers the message with its attachments.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s == nil || s.client == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "mail sender not configured")
	}

	built, err := BuildMessage(s.from, msg)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, built); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send email")
	}
	return nil
}

// BuildMessage assembles the wire-level message. Split out so tests can
// inspect the envelope without a live SMTP connection.
func BuildMessage(from string, msg Message) (*gomail.Msg, error) {
	if strings.TrimSpace(msg.To) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}

	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sender address")
	}
	if err := m.To(msg.To); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipient address")
	}
	m.Subject(msg.Subject)

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}

	for _, att := range msg.Attachments {
		if att.Name == "" || len(att.Content) == 0 {
			continue
		}
		if err := m.AttachReader(att.Name, bytes.NewReader(att.Content)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "attach file")
		}
	}

	return m, nil
}
