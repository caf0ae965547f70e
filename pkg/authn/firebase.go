// Package authn wraps the Firebase Admin SDK for deployments that delegate
// identity to Firebase Authentication.
package authn

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var (
	ErrInvalidToken = errors.New("authn: invalid token")
	ErrEmailExists  = errors.New("authn: email already registered")
)

// Identity is the verified subject of an ID token.
type Identity struct {
	UID   string
	Email string
}

type FirebaseConfig struct {
	ProjectID         string
	CredentialsFile   string
	CredentialsBase64 string
}

type FirebaseAuth struct {
	client *auth.Client
}

func NewFirebaseAuth(ctx context.Context, cfg *FirebaseConfig) (*FirebaseAuth, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsBase64 != "":
		credentialsJSON, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting auth client: %w", err)
	}

	return &FirebaseAuth{client: client}, nil
}

// CreateUser registers an email/password account and returns its uid.
func (f *FirebaseAuth) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	record, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		return "", fmt.Errorf("failed to create firebase user: %w", err)
	}
	return record.UID, nil
}

// VerifyIDToken checks signature, expiry and revocation of a client ID token.
func (f *FirebaseAuth) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		if auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) || auth.IsIDTokenRevoked(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	identity := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}

// RevokeTokens invalidates every refresh token issued to uid.
func (f *FirebaseAuth) RevokeTokens(ctx context.Context, uid string) error {
	if err := f.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}
