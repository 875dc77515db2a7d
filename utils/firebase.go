package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-storefront/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrSocialNotConfigured is returned when no identity provider is set up
var ErrSocialNotConfigured = errors.New("social sign-in is not configured")

// SocialIdentity is the verified identity behind a provider ID token
type SocialIdentity struct {
	UID   string
	Email string
	Name  string
}

// IdentityVerifier checks ID tokens issued to the storefront's frontend
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*SocialIdentity, error)
}

// FirebaseVerifier verifies Firebase Authentication ID tokens (Google sign-in)
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(ctx context.Context, cfg config.FirebaseConfig) (*FirebaseVerifier, error) {
	if !cfg.Enabled() {
		return nil, ErrSocialNotConfigured
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*SocialIdentity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return IdentityFromClaims(token.UID, token.Claims)
}

// IdentityFromClaims extracts the email and display name from ID token claims.
// The name falls back to the local part of the email.
func IdentityFromClaims(uid string, claims map[string]interface{}) (*SocialIdentity, error) {
	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("id token carries no email")
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email on id token is not verified")
	}
	name, _ := claims["name"].(string)
	if name = strings.TrimSpace(name); name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return &SocialIdentity{UID: uid, Email: email, Name: name}, nil
}
