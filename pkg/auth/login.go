package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/safetravel/groupwatch/pkg/logger"
)

// SignInAPI is the backend call that issues tokens
type SignInAPI interface {
	SignIn(ctx context.Context, username, password string) (string, error)
}

// TokenSink receives the issued token
type TokenSink interface {
	Set(token string) error
}

// AuthenticateUser signs in with credentials from the environment or an
// interactive prompt and stores the issued token
func AuthenticateUser(ctx context.Context, api SignInAPI, sink TokenSink) error {
	username := os.Getenv("GROUPWATCH_USERNAME")
	password := os.Getenv("GROUPWATCH_PASSWORD")

	if username == "" || password == "" {
		fmt.Println("🔐 SafeTravel Sign-in")
		fmt.Println(strings.Repeat("=", 50))

		if username == "" {
			fmt.Print("Username: ")
			if _, err := fmt.Scanln(&username); err != nil {
				return fmt.Errorf("failed to read username: %w", err)
			}
		}

		if password == "" {
			fmt.Print("Password: ")
			passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			fmt.Println()
			password = string(passwordBytes)
		}
	} else {
		logger.Info("🔐 Using SafeTravel credentials from environment")
	}

	return SignIn(ctx, api, sink, username, password)
}

// SignIn exchanges the credentials for a token and stores it
func SignIn(ctx context.Context, api SignInAPI, sink TokenSink, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	logger.Progressf("Signing in as %s...", username)
	token, err := api.SignIn(ctx, username, password)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if err := sink.Set(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	logger.Successf("Signed in as %s", username)
	return nil
}
