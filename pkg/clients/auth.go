package clients

import (
	"context"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Auth modes accepted by AuthConfig.
const (
	AuthNone        = "none"
	AuthIDToken     = "id_token"
	AuthAccessToken = "access_token"
	AuthBearer      = "bearer"
)

// DefaultCredentials selects Application Default Credentials instead of a key file.
const DefaultCredentials = "default"

// AuthConfig describes how outbound requests are authenticated.
type AuthConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode" validate:"omitempty,oneof=none id_token access_token bearer"`
	// CredentialsPath is a service account key file, or "default" for ADC.
	CredentialsPath string   `mapstructure:"credentials_path" yaml:"credentials_path,omitempty"`
	Audience        string   `mapstructure:"audience" yaml:"audience,omitempty"`
	Scopes          []string `mapstructure:"scopes" yaml:"scopes,omitempty"`
	// Token is a static bearer token.
	Token string `mapstructure:"token" yaml:"token,omitempty"`
}

// GoogleClientOptions checks that a credential file exists and is readable before
// any Google client is built. Empty or "default" selects ambient credentials.
func GoogleClientOptions(credentialsPath string) ([]option.ClientOption, error) {
	if credentialsPath == "" || credentialsPath == DefaultCredentials {
		return nil, nil
	}

	f, err := os.Open(credentialsPath) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCredentialNotFound, "credentials file not found or unreadable").
			WithDetail("path", credentialsPath)
	}
	_ = f.Close()

	return []option.ClientOption{option.WithCredentialsFile(credentialsPath)}, nil
}

// TokenSource builds the token source for cfg. It returns nil for mode none.
func TokenSource(ctx context.Context, cfg AuthConfig) (oauth2.TokenSource, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", AuthNone:
		return nil, nil

	case AuthBearer:
		if cfg.Token == "" {
			return nil, errors.New(errors.ErrorTypeCredentialNotFound, "bearer auth requires a token")
		}
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}), nil

	case AuthIDToken:
		if cfg.Audience == "" {
			return nil, errors.New(errors.ErrorTypeConfig, "id_token auth requires an audience")
		}
		opts, err := GoogleClientOptions(cfg.CredentialsPath)
		if err != nil {
			return nil, err
		}
		ts, err := idtoken.NewTokenSource(ctx, cfg.Audience, opts...)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCredentialNotFound, "failed to create id token source")
		}
		return ts, nil

	case AuthAccessToken:
		scopes := cfg.Scopes
		if len(scopes) == 0 {
			scopes = []string{"https://www.googleapis.com/auth/cloud-platform"}
		}
		if cfg.CredentialsPath == "" || cfg.CredentialsPath == DefaultCredentials {
			ts, err := google.DefaultTokenSource(ctx, scopes...)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeCredentialNotFound, "no default credentials")
			}
			return ts, nil
		}
		data, err := os.ReadFile(cfg.CredentialsPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCredentialNotFound, "credentials file not found").
				WithDetail("path", cfg.CredentialsPath)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid credentials file").
				WithDetail("path", cfg.CredentialsPath)
		}
		return creds.TokenSource, nil

	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown auth mode %q", cfg.Mode)
	}
}
