package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/safetravel/groupwatch/pkg/logger"
)

// DefaultTimeout bounds every backend request unless Config.Timeout overrides it
const DefaultTimeout = 5 * time.Second

// SafeTravel is the client for the SafeTravel backend REST API
type SafeTravel struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialProvider
	log         logger.Logger
}

// CredentialProvider supplies the bearer token for each request
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// Config holds the configuration for the SafeTravel client
type Config struct {
	// BaseURL including the API prefix, e.g. http://127.0.0.1:5000/api
	BaseURL     string
	Timeout     time.Duration
	Credentials CredentialProvider
	HTTPClient  *http.Client
	Logger      logger.Logger
}

// NewClient creates a new SafeTravel client with the given configuration
func NewClient(cfg Config) (*SafeTravel, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = timeout

	log := cfg.Logger
	if log == nil {
		log = logger.WithPrefix("client")
	}

	return &SafeTravel{
		baseURL:     strings.TrimRight(u.String(), "/"),
		httpClient:  httpClient,
		credentials: cfg.Credentials,
		log:         log,
	}, nil
}

// BaseURL returns the normalized API base
func (c *SafeTravel) BaseURL() string { return c.baseURL }

// doRequest performs an authenticated JSON request and classifies failures
func (c *SafeTravel) doRequest(ctx context.Context, method, path string, body interface{}, authenticated bool) (*http.Response, error) {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	// A missing token fails here, before anything goes on the wire
	if authenticated {
		if c.credentials == nil {
			return nil, fmt.Errorf("%w: no credential provider configured", ErrUnauthorized)
		}
		token, err := c.credentials.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debugf("%s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}

	if resp.StatusCode >= 400 {
		defer closeBody(c.log, resp.Body)
		return nil, newStatusError(resp)
	}

	return resp, nil
}

// newStatusError maps an HTTP failure onto the error taxonomy
func newStatusError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	message := strings.TrimSpace(string(bodyBytes))
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(bodyBytes, &parsed) == nil && parsed.Message != "" {
		message = parsed.Message
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: message}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
	default:
		return apiErr
	}
}

// decodeResponse decodes a JSON response into the provided interface
func decodeResponse(log logger.Logger, resp *http.Response, v interface{}) error {
	defer closeBody(log, resp.Body)

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func closeBody(log logger.Logger, body io.ReadCloser) {
	if err := body.Close(); err != nil {
		log.Errorf("failed to close response body: %v", err)
	}
}
