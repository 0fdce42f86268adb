package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.Reminder.InspectionSchedule != "0 9 * * *" {
		t.Errorf("InspectionSchedule = %q, want %q", cfg.Reminder.InspectionSchedule, "0 9 * * *")
	}
	if cfg.Reminder.MaintenanceSchedule != "30 9 * * *" {
		t.Errorf("MaintenanceSchedule = %q, want %q", cfg.Reminder.MaintenanceSchedule, "30 9 * * *")
	}
	if cfg.Push.Timeout != 10*time.Second {
		t.Errorf("Push.Timeout = %v, want 10s", cfg.Push.Timeout)
	}
	if cfg.VAPID.Subject != "mailto:noreply@example.com" {
		t.Errorf("VAPID.Subject = %q", cfg.VAPID.Subject)
	}
	if !cfg.SMTP.StartTLS {
		t.Error("SMTP.StartTLS should default to true")
	}
}

func TestFromViper_ReadsEnvironment(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.mailer.io")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_USER", "bot")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("SMTP_FROM", "Fire Safety <bot@mailer.io>")
	t.Setenv("SMTP_STARTTLS", "false")
	t.Setenv("PUSH_TIMEOUT", "3s")
	t.Setenv("REMINDER_TIMEZONE", "UTC")
	t.Setenv("FRONTEND_URL", "https://app.firesafe.io/")

	cfg, err := FromViper(newViper())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port = %d, want 587", cfg.SMTP.Port)
	}
	if cfg.SMTP.StartTLS {
		t.Error("SMTP.StartTLS = true, want false from SMTP_STARTTLS")
	}
	if err := cfg.SMTP.Validate(); err != nil {
		t.Errorf("SMTP.Validate() = %v, want nil", err)
	}
	if cfg.Push.Timeout != 3*time.Second {
		t.Errorf("Push.Timeout = %v, want 3s", cfg.Push.Timeout)
	}
	if cfg.FrontendURL != "https://app.firesafe.io" {
		t.Errorf("FrontendURL = %q, trailing slash should be trimmed", cfg.FrontendURL)
	}
	loc, err := cfg.Reminder.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location() = %v, %v; want UTC", loc, err)
	}
}

func TestFromViper_InvalidTimezone(t *testing.T) {
	t.Setenv("REMINDER_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := FromViper(newViper()); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestSMTPConfig_Validate(t *testing.T) {
	valid := SMTPConfig{Host: "smtp.mailer.io", Port: 465, User: "u", Pass: "p", From: "a@b.io"}

	tests := []struct {
		name    string
		mutate  func(c *SMTPConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *SMTPConfig) {}},
		{name: "missing host", mutate: func(c *SMTPConfig) { c.Host = "" }, wantErr: "SMTP_HOST"},
		{name: "missing pass", mutate: func(c *SMTPConfig) { c.Pass = "" }, wantErr: "SMTP_PASS"},
		{name: "missing port", mutate: func(c *SMTPConfig) { c.Port = 0 }, wantErr: "SMTP_PORT"},
		{name: "wildcard host", mutate: func(c *SMTPConfig) { c.Host = "*.mailer.io" }, wantErr: "invalid SMTP_HOST"},
		{name: "placeholder host", mutate: func(c *SMTPConfig) { c.Host = "smtp-placeholder" }, wantErr: "invalid SMTP_HOST"},
		{name: "example host", mutate: func(c *SMTPConfig) { c.Host = "smtp.Example.com" }, wantErr: "invalid SMTP_HOST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestVAPIDConfig_Validate(t *testing.T) {
	if err := (VAPIDConfig{PublicKey: "pub"}).Validate(); err == nil {
		t.Error("expected error when private key is missing")
	}
	if err := (VAPIDConfig{PublicKey: "pub", PrivateKey: "priv"}).Validate(); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}
