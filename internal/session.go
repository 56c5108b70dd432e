package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

const userKey = "auth_user"

var validate = validator.New(validator.WithRequiredStructEnabled())

// SessionState is the credential lifecycle state
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
)

func (s SessionState) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Account is the public user record returned alongside a credential
type Account struct {
	ID        int64  `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// UnmarshalJSON accepts the user object or a bare user name
func (a *Account) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*a = Account{Username: name}
		return nil
	}

	type plain Account
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("user: %w", err)
	}
	*a = Account(v)
	return nil
}

// Name is the username, falling back to the email address
func (a Account) Name() string {
	if a.Username != "" {
		return a.Username
	}
	return a.Email
}

// Grant is the credential issuance response
type Grant struct {
	User        Account `json:"user"`
	AccessToken string  `json:"access_token" validate:"required"`
}

// LoginRequest is sent to the credential issuer. Exactly one of Email or
// Username is set.
type LoginRequest struct {
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Username string `json:"username,omitempty" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

// NewLoginRequest builds a request from a free-form identifier. Identifiers
// containing "@" are sent as an email address.
func NewLoginRequest(identifier, password string) LoginRequest {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return LoginRequest{Email: identifier, Password: password}
	}
	return LoginRequest{Username: identifier, Password: password}
}

// RegisterRequest creates an account and issues its first credential
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CredentialIssuer exchanges login details for a Grant
type CredentialIssuer interface {
	Authenticate(ctx context.Context, req LoginRequest) (Grant, error)
}

// Registrar creates accounts
type Registrar interface {
	Register(ctx context.Context, req RegisterRequest) (Grant, error)
}

// AuthSession owns the bearer credential held in a Slot
type AuthSession struct {
	slot Slot
}

// NewAuthSession creates an AuthSession over slot
func NewAuthSession(slot Slot) *AuthSession {
	return &AuthSession{slot: slot}
}

// Login stores the credential from grant
func (s *AuthSession) Login(grant Grant) error {
	if err := validate.Struct(grant); err != nil {
		return fmt.Errorf("invalid grant: %w", err)
	}
	if err := s.slot.Set(CredentialKey, grant.AccessToken); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	if name := grant.User.Name(); name != "" {
		if err := s.slot.Set(userKey, name); err != nil {
			LogWarn("Failed to store user name: %v", err)
		}
	}
	LogInfo("Signed in")
	return nil
}

// SignIn authenticates against issuer and stores the resulting credential
func (s *AuthSession) SignIn(ctx context.Context, issuer CredentialIssuer, identifier, password string) error {
	req := NewLoginRequest(identifier, password)
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid login request: %w", err)
	}

	grant, err := issuer.Authenticate(ctx, req)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	return s.Login(grant)
}

// SignUp registers a new account and stores its credential
func (s *AuthSession) SignUp(ctx context.Context, registrar Registrar, email, username, password string) error {
	req := RegisterRequest{
		Email:    strings.TrimSpace(email),
		Username: strings.TrimSpace(username),
		Password: password,
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid registration: %w", err)
	}

	grant, err := registrar.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	return s.Login(grant)
}

// Logout clears the credential
func (s *AuthSession) Logout() error {
	if err := s.slot.Remove(CredentialKey); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	if err := s.slot.Remove(userKey); err != nil {
		LogWarn("Failed to clear user name: %v", err)
	}
	LogInfo("Signed out")
	return nil
}

// Token returns the stored credential, or "" when none is held
func (s *AuthSession) Token() string {
	token, ok, err := s.slot.Get(CredentialKey)
	if err != nil {
		LogWarn("Failed to read credential: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// User returns the stored user name
func (s *AuthSession) User() string {
	user, ok, err := s.slot.Get(userKey)
	if err != nil || !ok {
		return ""
	}
	return user
}

// State reports whether a credential is held. Freshness is the guard's concern.
func (s *AuthSession) State() SessionState {
	if s.Token() == "" {
		return StateUnauthenticated
	}
	return StateAuthenticated
}

// Authorize attaches the credential to req as a bearer token
func (s *AuthSession) Authorize(req *http.Request) {
	if token := s.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
