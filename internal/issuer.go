package internal

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
)

// Credential endpoints, relative to the server base URL
const (
	LoginEndpoint    = "/api/auth/login"
	RegisterEndpoint = "/api/auth/register"
)

const defaultRequestTimeout = 10 * time.Second

// HTTPIssuer talks to the server's credential endpoints
type HTTPIssuer struct {
	baseURL *url.URL
	client  *http.Client
	session *AuthSession // optional, attaches the held credential to requests
}

// IssuerOption configures an HTTPIssuer
type IssuerOption func(*HTTPIssuer)

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) IssuerOption {
	return func(i *HTTPIssuer) {
		i.client = client
	}
}

// WithAuthSession attaches session's bearer token to every request
func WithAuthSession(session *AuthSession) IssuerOption {
	return func(i *HTTPIssuer) {
		i.session = session
	}
}

// NewHTTPIssuer creates an issuer for the server at baseURL
func NewHTTPIssuer(baseURL string, opts ...IssuerOption) (*HTTPIssuer, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}

	i := &HTTPIssuer{
		baseURL: u,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Authenticate posts req to the login endpoint
func (i *HTTPIssuer) Authenticate(ctx context.Context, req LoginRequest) (Grant, error) {
	return i.post(ctx, LoginEndpoint, req)
}

// Register posts req to the registration endpoint
func (i *HTTPIssuer) Register(ctx context.Context, req RegisterRequest) (Grant, error) {
	return i.post(ctx, RegisterEndpoint, req)
}

func (i *HTTPIssuer) post(ctx context.Context, path string, payload any) (Grant, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Grant{}, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := i.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Grant{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if i.session != nil {
		i.session.Authorize(req)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		apiErr := &APIError{Path: path, Err: err}
		LogError("[API ERROR] %s -> network failure: %v", path, err)
		return Grant{}, apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Grant{}, &APIError{Path: path, Status: resp.StatusCode, Detail: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Path: path, Status: resp.StatusCode, Detail: errorDetail(data, resp.Status)}
		LogError("[API ERROR] %s -> %d %s", path, apiErr.Status, apiErr.Detail)
		return Grant{}, apiErr
	}

	var grant Grant
	if err := json.Unmarshal(data, &grant); err != nil {
		return Grant{}, &APIError{Path: path, Status: resp.StatusCode, Detail: "malformed response", Err: err}
	}
	if grant.AccessToken == "" {
		return Grant{}, &APIError{Path: path, Status: resp.StatusCode, Detail: "response carries no access_token", Err: errors.New("missing access_token")}
	}
	return grant, nil
}

// errorDetail extracts a message from an error response body
func errorDetail(body []byte, fallback string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return fallback
}
