package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"firesafety_reminders/internal/config"
	"firesafety_reminders/internal/model"
)

// MailTransport hands a fully built RFC 5322 message to a mail server.
type MailTransport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// EmailSender renders and delivers transactional email.
// A sender built from an invalid SMTPConfig is disabled: Send fails fast
// with ErrEmailNotConfigured and never touches the transport.
type EmailSender struct {
	from      *mail.Address
	transport MailTransport
	reason    error
	log       *zap.Logger
	now       func() time.Time
}

// NewEmailSender validates cfg and wires the transport. A nil transport
// selects the SMTP client built from cfg.
func NewEmailSender(cfg config.SMTPConfig, transport MailTransport, log *zap.Logger) *EmailSender {
	s := &EmailSender{
		log: log.Named("email"),
		now: time.Now,
	}

	if err := cfg.Validate(); err != nil {
		s.reason = err
		s.log.Warn("Email disabled", zap.Error(err))
		return s
	}

	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		s.reason = fmt.Errorf("invalid SMTP_FROM %q: %w", cfg.From, err)
		s.log.Warn("Email disabled", zap.Error(s.reason))
		return s
	}
	s.from = from

	if transport == nil {
		transport = NewSMTPTransport(cfg)
	}
	s.transport = transport
	s.log.Info("Email enabled", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	return s
}

// IsConfigured reports whether the sender can deliver.
func (s *EmailSender) IsConfigured() bool {
	return s != nil && s.reason == nil && s.transport != nil
}

// Send delivers one HTML message with a derived plain-text alternative.
func (s *EmailSender) Send(ctx context.Context, to, subject, html string) model.DeliveryOutcome {
	outcome := model.DeliveryOutcome{
		Channel:      model.ChannelEmail,
		RecipientRef: to,
	}
	if !s.IsConfigured() {
		outcome.Err = model.ErrEmailNotConfigured
		return outcome
	}

	msg, err := s.buildMessage(to, subject, html)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if err := s.transport.Send(ctx, s.from.Address, []string{to}, msg); err != nil {
		outcome.Err = fmt.Errorf("send email to %s: %w", to, err)
		return outcome
	}

	outcome.Success = true
	return outcome
}

func (s *EmailSender) buildMessage(to, subject, html string) ([]byte, error) {
	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{s.from})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create mail writer: %w", err)
	}
	alt, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("create alternative part: %w", err)
	}

	if err := writePart(alt, "text/plain", StripHTML(html)); err != nil {
		return nil, err
	}
	if err := writePart(alt, "text/html", html); err != nil {
		return nil, err
	}

	if err := alt.Close(); err != nil {
		return nil, fmt.Errorf("close alternative part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mail writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(w *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	pw, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		pw.Close()
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	return pw.Close()
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripHTML drops tags and collapses whitespace.
func StripHTML(html string) string {
	text := htmlTagPattern.ReplaceAllString(html, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// =============================================================================
// SMTP transport
// =============================================================================

// smtpTransport opens one connection per message.
// Port 465 uses implicit TLS. Other ports upgrade with STARTTLS when
// cfg.StartTLS is set and speak plain SMTP otherwise.
type smtpTransport struct {
	cfg config.SMTPConfig
}

// NewSMTPTransport returns a MailTransport backed by go-smtp.
func NewSMTPTransport(cfg config.SMTPConfig) MailTransport {
	return &smtpTransport{cfg: cfg}
}

func (t *smtpTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	timeout := t.cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("set deadline: %w", err)
	}

	c, err := t.newClient(conn)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("AUTH"); ok {
		if err := c.Auth(sasl.NewPlainClient("", t.cfg.User, t.cfg.Pass)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return c.Quit()
}

func (t *smtpTransport) newClient(conn net.Conn) (*smtp.Client, error) {
	tlsConfig := &tls.Config{ServerName: t.cfg.Host}
	switch {
	case t.cfg.Port == 465:
		return smtp.NewClient(tls.Client(conn, tlsConfig)), nil
	case t.cfg.StartTLS:
		c, err := smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("starttls: %w", err)
		}
		return c, nil
	default:
		return smtp.NewClient(conn), nil
	}
}
