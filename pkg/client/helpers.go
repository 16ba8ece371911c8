package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/safetravel/groupwatch/pkg/models"
)

// SignIn exchanges a username and password for a bearer token
func (c *SafeTravel) SignIn(ctx context.Context, username, password string) (string, error) {
	req := &models.SignInRequest{Username: username, Password: password}
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/signin", req, false)
	if err != nil {
		return "", fmt.Errorf("sign-in failed: %w", err)
	}

	var result models.SignInResponse
	if err := decodeResponse(c.log, resp, &result); err != nil {
		return "", fmt.Errorf("failed to decode sign-in response: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("sign-in response carried no access token")
	}

	return result.AccessToken, nil
}

// StaticToken is a CredentialProvider for a fixed token
type StaticToken string

// Token returns the fixed token, or ErrUnauthorized when it is empty
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	return string(s), nil
}
