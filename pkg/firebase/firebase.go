package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrNoEmail is returned for ID tokens without an email claim, e.g. anonymous sign-ins.
var ErrNoEmail = errors.New("id token carries no email")

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	tokens      idTokenVerifier
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file: %w", err)
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, tokens: authClient}, nil
}

// VerifiedEmail checks a web client ID token and returns the email it was issued for.
func (a *App) VerifiedEmail(ctx context.Context, idToken string) (string, error) {
	token, err := a.tokens.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	return emailClaim(token)
}

func emailClaim(token *auth.Token) (string, error) {
	email, _ := token.Claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrNoEmail
	}
	return email, nil
}
