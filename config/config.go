package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Mail providers
const (
	MailSMTP     = "smtp"
	MailSendGrid = "sendgrid"
	MailPostmark = "postmark"
)

type MongoConfig struct {
	URI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGO_DATABASE" envDefault:"ecommerce"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	JWTExpiry  time.Duration `env:"JWT_EXPIRY" envDefault:"720h"`
	AdminEmail string        `env:"ADMIN_EMAIL"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type RabbitConfig struct {
	URL string `env:"RABBIT_URL"`
}

type MailConfig struct {
	Provider       string `env:"MAIL_PROVIDER" envDefault:"smtp"`
	FromName       string `env:"MAIL_FROM_NAME" envDefault:"Furniture Store"`
	Sender         string `env:"EMAIL_SENDER"`
	User           string `env:"EMAIL_USER"`
	Password       string `env:"EMAIL_PASS"`
	SMTPHost       string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587"`
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	PostmarkToken  string `env:"POSTMARK_API_TOKEN"`
}

// From returns the sender address, falling back to the SMTP user
func (m MailConfig) From() string {
	if m.Sender != "" {
		return strings.TrimSpace(m.Sender)
	}
	return strings.TrimSpace(m.User)
}

type RazorpayConfig struct {
	KeyID     string `env:"RAZORPAY_KEY_ID"`
	KeySecret string `env:"RAZORPAY_KEY_SECRET"`
}

type FirebaseConfig struct {
	ProjectID       string `env:"FIREBASE_PROJECT_ID"`
	CredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`
}

// Enabled reports whether social sign-in can be verified
func (f FirebaseConfig) Enabled() bool {
	return f.ProjectID != "" || f.CredentialsFile != ""
}

// Config holds the application configuration
type Config struct {
	Port        string   `env:"PORT" envDefault:"5000"`
	AppEnv      string   `env:"APP_ENV" envDefault:"development"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	TrustProxy  bool     `env:"TRUST_PROXY" envDefault:"false"`

	Mongo    MongoConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Rabbit   RabbitConfig
	Mail     MailConfig
	Razorpay RazorpayConfig
	Firebase FirebaseConfig
}

// IsProd reports whether the service runs in production
func (c *Config) IsProd() bool {
	return c.AppEnv == "production"
}

// Load reads the .env file if present, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found. Proceeding with environment variables.")
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.Auth.JWTExpiry <= 0 {
		return fmt.Errorf("config: JWT_EXPIRY must be positive, got %s", c.Auth.JWTExpiry)
	}
	switch c.Mail.Provider {
	case MailSMTP, MailSendGrid, MailPostmark:
	default:
		return fmt.Errorf("config: unknown MAIL_PROVIDER %q", c.Mail.Provider)
	}
	c.Auth.AdminEmail = strings.ToLower(strings.TrimSpace(c.Auth.AdminEmail))
	return nil
}
