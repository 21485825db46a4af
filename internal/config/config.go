package config

import (
	"fmt"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Every process reads its settings from the environment of its pod.

type Config struct {
	DBHost                 string        `mapstructure:"DB_HOST"`
	DBPort                 string        `mapstructure:"DB_PORT"`
	DBUser                 string        `mapstructure:"DB_USER"`
	DBPassword             string        `mapstructure:"DB_PASSWORD"`
	DBName                 string        `mapstructure:"DB_NAME"`
	ServerPort             string        `mapstructure:"SERVER_PORT"`
	AWSRegion              string        `mapstructure:"AWS_REGION"`
	AWSEndpoint            string        `mapstructure:"AWS_ENDPOINT"`
	IsLocalDev             bool          `mapstructure:"IS_LOCAL_DEV"`
	PayrollSQSQueueURL     string        `mapstructure:"PAYROLL_SQS_QUEUE_URL"`
	EmailSQSQueueURL       string        `mapstructure:"EMAIL_SQS_QUEUE_URL"`
	PayrollAPIURL          string        `mapstructure:"PAYROLL_API_URL"`
	EmailSender            string        `mapstructure:"EMAIL_SENDER"`
	EmailDomain            string        `mapstructure:"EMAIL_DOMAIN"`
	Timezone               string        `mapstructure:"TIMEZONE"`
	DefaultWeekdayRate     string        `mapstructure:"DEFAULT_WEEKDAY_RATE"`
	DefaultWeekendRate     string        `mapstructure:"DEFAULT_WEEKEND_RATE"`
	BootstrapAdminPassword string        `mapstructure:"BOOTSTRAP_ADMIN_PASSWORD"`
	SessionSecret          string        `mapstructure:"SESSION_SECRET"`
	SessionTTL             time.Duration `mapstructure:"SESSION_TTL"`
	OTelEndpoint           string        `mapstructure:"OTEL_ENDPOINT"`
	CORSAllowedOrigins     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from environment variables over the defaults below.
func LoadConfig() (config Config, err error) {
	v := viper.New()
	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "attendance_db")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("PAYROLL_SQS_QUEUE_URL", "http://localstack:4566/000000000000/payroll-queue")
	v.SetDefault("EMAIL_SQS_QUEUE_URL", "http://localstack:4566/000000000000/email-queue")
	v.SetDefault("PAYROLL_API_URL", "http://localhost:8081/")
	v.SetDefault("EMAIL_SENDER", "reports@attendance-service.com")
	v.SetDefault("EMAIL_DOMAIN", "attendance-service.com")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("DEFAULT_WEEKDAY_RATE", "200")
	v.SetDefault("DEFAULT_WEEKEND_RATE", "250")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "1616")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("OTEL_ENDPOINT", "jaeger:4317")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, config.Validate()
}

// Validate checks the values other settings are derived from.
func (c Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.DefaultRates(); err != nil {
		return err
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// Location is the calendar used for date keys.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DefaultRates apply until an admin stores a rates table.
func (c Config) DefaultRates() (model.RateTable, error) {
	weekday, err := decimal.NewFromString(c.DefaultWeekdayRate)
	if err != nil {
		return model.RateTable{}, fmt.Errorf("invalid DEFAULT_WEEKDAY_RATE: %w", err)
	}
	weekend, err := decimal.NewFromString(c.DefaultWeekendRate)
	if err != nil {
		return model.RateTable{}, fmt.Errorf("invalid DEFAULT_WEEKEND_RATE: %w", err)
	}
	rates := model.RateTable{WeekdayRate: weekday, WeekendRate: weekend}
	return rates, rates.Validate()
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// RecipientFor is the fallback address of a person when a request names none.
func (c Config) RecipientFor(personID string) string {
	return personID + "@" + c.EmailDomain
}
