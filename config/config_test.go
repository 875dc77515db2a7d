package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "ecommerce", cfg.Mongo.Database)
	assert.Equal(t, 720*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, MailSMTP, cfg.Mail.Provider)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.SMTPHost)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProd())
	assert.False(t, cfg.Firebase.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADMIN_EMAIL", "  Owner@Store.COM ")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MAIL_PROVIDER", "postmark")
	t.Setenv("FIREBASE_PROJECT_ID", "store-prod")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "owner@store.com", cfg.Auth.AdminEmail)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, MailPostmark, cfg.Mail.Provider)
	assert.True(t, cfg.Firebase.Enabled())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidateRejectsUnknownMailProvider(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{JWTSecret: "x", JWTExpiry: time.Hour},
		Mail: MailConfig{Provider: "pigeon"},
	}
	assert.ErrorContains(t, cfg.Validate(), "MAIL_PROVIDER")
}

func TestMailFrom(t *testing.T) {
	assert.Equal(t, "shop@example.com", MailConfig{User: " shop@example.com "}.From())
	assert.Equal(t, "noreply@example.com", MailConfig{User: "shop@example.com", Sender: "noreply@example.com"}.From())
}
