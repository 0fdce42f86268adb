package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// placeholderHostMarkers mark SMTP hosts copied from sample env files.
var placeholderHostMarkers = []string{"*", "placeholder", "example"}

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	JWTSecret string

	LogLevel    string
	Environment string

	RedisURL         string
	AlertWorkerCount int

	FrontendURL string

	SMTP     SMTPConfig
	VAPID    VAPIDConfig
	Push     PushConfig
	Reminder ReminderConfig
}

// SMTPConfig holds transactional email settings.
type SMTPConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	From    string
	Timeout time.Duration

	// StartTLS requires a STARTTLS upgrade on non-465 ports. Port 465 always
	// uses implicit TLS.
	StartTLS bool
}

// Validate returns a descriptive error when the email channel cannot be used.
func (c SMTPConfig) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if c.Port <= 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if c.User == "" {
		missing = append(missing, "SMTP_USER")
	}
	if c.Pass == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if c.From == "" {
		missing = append(missing, "SMTP_FROM")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	host := strings.ToLower(c.Host)
	for _, marker := range placeholderHostMarkers {
		if strings.Contains(host, marker) {
			return fmt.Errorf("invalid SMTP_HOST %q", c.Host)
		}
	}
	return nil
}

// VAPIDConfig holds the Web Push application server identity.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

// Validate returns an error when the push channel cannot be used.
func (c VAPIDConfig) Validate() error {
	if c.PublicKey == "" || c.PrivateKey == "" {
		return fmt.Errorf("missing VAPID_PUBLIC_KEY or VAPID_PRIVATE_KEY")
	}
	return nil
}

// PushConfig tunes push delivery.
type PushConfig struct {
	Timeout time.Duration
	TTL     int // seconds the push service keeps an undelivered message
}

// ReminderConfig holds the reminder trigger settings.
type ReminderConfig struct {
	InspectionSchedule  string
	MaintenanceSchedule string
	Timezone            string
	Concurrency         int
}

// Location resolves Timezone, falling back to the process local zone.
func (c ReminderConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("ALERT_WORKER_COUNT", 2)
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	v.SetDefault("SMTP_TIMEOUT", "15s")
	v.SetDefault("SMTP_STARTTLS", true)

	v.SetDefault("VAPID_SUBJECT", "mailto:noreply@example.com")
	v.SetDefault("PUSH_TIMEOUT", "10s")
	v.SetDefault("PUSH_TTL", 24*60*60)

	v.SetDefault("INSPECTION_REMINDER_SCHEDULE", "0 9 * * *")
	v.SetDefault("MAINTENANCE_REMINDER_SCHEDULE", "30 9 * * *")
	v.SetDefault("REMINDER_TIMEZONE", "Local")
	v.SetDefault("REMINDER_CONCURRENCY", 4)
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		ServerPort: v.GetString("SERVER_PORT"),

		JWTSecret: v.GetString("JWT_SECRET"),

		LogLevel:    v.GetString("LOG_LEVEL"),
		Environment: v.GetString("ENVIRONMENT"),

		RedisURL:         v.GetString("REDIS_URL"),
		AlertWorkerCount: v.GetInt("ALERT_WORKER_COUNT"),

		FrontendURL: strings.TrimSuffix(v.GetString("FRONTEND_URL"), "/"),

		SMTP: SMTPConfig{
			Host:    strings.TrimSpace(v.GetString("SMTP_HOST")),
			Port:    v.GetInt("SMTP_PORT"),
			User:    v.GetString("SMTP_USER"),
			Pass:    v.GetString("SMTP_PASS"),
			From:    v.GetString("SMTP_FROM"),
			Timeout: v.GetDuration("SMTP_TIMEOUT"),

			StartTLS: v.GetBool("SMTP_STARTTLS"),
		},
		VAPID: VAPIDConfig{
			PublicKey:  v.GetString("VAPID_PUBLIC_KEY"),
			PrivateKey: v.GetString("VAPID_PRIVATE_KEY"),
			Subject:    v.GetString("VAPID_SUBJECT"),
		},
		Push: PushConfig{
			Timeout: v.GetDuration("PUSH_TIMEOUT"),
			TTL:     v.GetInt("PUSH_TTL"),
		},
		Reminder: ReminderConfig{
			InspectionSchedule:  v.GetString("INSPECTION_REMINDER_SCHEDULE"),
			MaintenanceSchedule: v.GetString("MAINTENANCE_REMINDER_SCHEDULE"),
			Timezone:            v.GetString("REMINDER_TIMEZONE"),
			Concurrency:         v.GetInt("REMINDER_CONCURRENCY"),
		},
	}

	if cfg.SMTP.Timeout <= 0 {
		cfg.SMTP.Timeout = 15 * time.Second
	}
	if cfg.Push.Timeout <= 0 {
		cfg.Push.Timeout = 10 * time.Second
	}
	if cfg.Reminder.Concurrency <= 0 {
		cfg.Reminder.Concurrency = 4
	}
	if cfg.AlertWorkerCount <= 0 {
		cfg.AlertWorkerCount = 2
	}

	if _, err := cfg.Reminder.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}
