package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"firesafety_reminders/internal/config"
	"firesafety_reminders/internal/model"
)

// =============================================================================
// FAKE TRANSPORT
// =============================================================================

type fakeTransport struct {
	err   error
	mu    sync.Mutex
	calls []fakeMail
}

type fakeMail struct {
	From string
	To   []string
	Msg  []byte
}

func (f *fakeTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeMail{From: from, To: to, Msg: msg})
	return f.err
}

var validSMTP = config.SMTPConfig{
	Host: "smtp.mailer.io",
	Port: 587,
	User: "bot",
	Pass: "secret",
	From: "Fire Safety <reminders@firesafe.io>",
}

// =============================================================================
// SENDER
// =============================================================================

func TestEmailSender_Send_BuildsAlternativeMessage(t *testing.T) {
	transport := &fakeTransport{}
	s := NewEmailSender(validSMTP, transport, zap.NewNop())

	outcome := s.Send(context.Background(), "ada@acme.io", "URGENT: check", "<p>Hello <b>Ada</b></p>")

	if !outcome.Success {
		t.Fatalf("expected success, got: %+v", outcome)
	}
	if len(transport.calls) != 1 {
		t.Fatalf("transport calls = %d, want 1", len(transport.calls))
	}
	call := transport.calls[0]
	if call.From != "reminders@firesafe.io" {
		t.Errorf("envelope from = %q, want bare address", call.From)
	}
	if len(call.To) != 1 || call.To[0] != "ada@acme.io" {
		t.Errorf("envelope to = %v", call.To)
	}

	mr, err := mail.CreateReader(bytes.NewReader(call.Msg))
	if err != nil {
		t.Fatalf("parse message: %v", err)
	}
	subject, _ := mr.Header.Subject()
	if subject != "URGENT: check" {
		t.Errorf("subject = %q", subject)
	}

	bodies := map[string]string{}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, _ := io.ReadAll(p.Body)
		bodies[ct] = string(b)
	}

	if bodies["text/plain"] != "Hello Ada" {
		t.Errorf("plain part = %q, want stripped html", bodies["text/plain"])
	}
	if !strings.Contains(bodies["text/html"], "<b>Ada</b>") {
		t.Errorf("html part = %q", bodies["text/html"])
	}
}

func TestEmailSender_Disabled_NeverTouchesTransport(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SMTPConfig
	}{
		{name: "empty", cfg: config.SMTPConfig{}},
		{name: "placeholder host", cfg: func() config.SMTPConfig { c := validSMTP; c.Host = "smtp.example.com"; return c }()},
		{name: "bad from", cfg: func() config.SMTPConfig { c := validSMTP; c.From = "not an address"; return c }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{}
			s := NewEmailSender(tt.cfg, transport, zap.NewNop())

			if s.IsConfigured() {
				t.Fatal("expected sender to be disabled")
			}
			outcome := s.Send(context.Background(), "ada@acme.io", "s", "<p>x</p>")
			if outcome.Success {
				t.Error("expected failure")
			}
			if !errors.Is(outcome.Err, model.ErrEmailNotConfigured) {
				t.Errorf("err = %v, want ErrEmailNotConfigured", outcome.Err)
			}
			if len(transport.calls) != 0 {
				t.Errorf("transport called %d times, want 0", len(transport.calls))
			}
		})
	}
}

func TestEmailSender_TransportError(t *testing.T) {
	s := NewEmailSender(validSMTP, &fakeTransport{err: errors.New("421 try later")}, zap.NewNop())

	outcome := s.Send(context.Background(), "ada@acme.io", "s", "<p>x</p>")
	if outcome.Success || outcome.Err == nil {
		t.Errorf("outcome = %+v, want failure carrying the transport error", outcome)
	}
}

func TestStripHTML(t *testing.T) {
	got := StripHTML("<div>\n  <h1>Title</h1>\n\t<p>Line  one</p>\n</div>")
	if got != "Title Line one" {
		t.Errorf("StripHTML = %q", got)
	}
}

// =============================================================================
// SMTP TRANSPORT (against an in-process go-smtp server)
// =============================================================================

type captureBackend struct {
	mu   sync.Mutex
	from string
	to   []string
	data []byte
}

func (b *captureBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &captureSession{b: b}, nil
}

type captureSession struct {
	b *captureBackend
}

func (s *captureSession) Mail(from string, opts *smtp.MailOptions) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.from = from
	return nil
}

func (s *captureSession) Rcpt(to string, opts *smtp.RcptOptions) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.to = append(s.b.to, to)
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.data = data
	return nil
}

func (s *captureSession) Reset()        {}
func (s *captureSession) Logout() error { return nil }

// startCaptureServer runs a plain-text go-smtp server on a random port.
// It advertises neither STARTTLS nor AUTH.
func startCaptureServer(t *testing.T) (*captureBackend, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}

	be := &captureBackend{}
	srv := smtp.NewServer(be)
	srv.Domain = "localhost"
	srv.ReadTimeout = 5 * time.Second
	srv.WriteTimeout = 5 * time.Second
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return be, port
}

func TestSMTPTransport_Send(t *testing.T) {
	be, port := startCaptureServer(t)

	transport := NewSMTPTransport(config.SMTPConfig{
		Host:    "127.0.0.1",
		Port:    port,
		User:    "bot",
		Pass:    "secret",
		Timeout: 5 * time.Second,
	})

	msg := []byte("Subject: hi\r\n\r\nbody\r\n")
	if err := transport.Send(context.Background(), "bot@firesafe.io", []string{"ada@acme.io"}, msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	be.mu.Lock()
	defer be.mu.Unlock()
	if be.from != "bot@firesafe.io" {
		t.Errorf("MAIL FROM = %q", be.from)
	}
	if len(be.to) != 1 || be.to[0] != "ada@acme.io" {
		t.Errorf("RCPT TO = %v", be.to)
	}
	if !bytes.Contains(be.data, []byte("body")) {
		t.Errorf("DATA = %q", be.data)
	}
}

func TestSMTPTransport_StartTLSRequired(t *testing.T) {
	be, port := startCaptureServer(t)

	transport := NewSMTPTransport(config.SMTPConfig{
		Host:     "127.0.0.1",
		Port:     port,
		User:     "bot",
		Pass:     "secret",
		Timeout:  5 * time.Second,
		StartTLS: true,
	})

	err := transport.Send(context.Background(), "bot@firesafe.io", []string{"ada@acme.io"}, []byte("Subject: hi\r\n\r\nbody\r\n"))
	if err == nil || !strings.Contains(err.Error(), "starttls") {
		t.Fatalf("Send() = %v, want starttls error", err)
	}

	be.mu.Lock()
	defer be.mu.Unlock()
	if be.from != "" || be.data != nil {
		t.Errorf("message reached a server without TLS: from=%q data=%q", be.from, be.data)
	}
}
