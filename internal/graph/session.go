// Package graph talks to the cloud directory service: one token request at
// startup, then one create-account call per user record.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeUserReadWriteAll is the directory permission required to create
// accounts.
const ScopeUserReadWriteAll = "User.ReadWrite.All"

// DefaultScopes is the scope set requested when the caller passes none.
var DefaultScopes = []string{ScopeUserReadWriteAll}

// ErrAuth marks session-establishment failures. These are fatal to the
// whole run; no record is attempted without a session.
var ErrAuth = errors.New("authentication failed")

// connectTimeout bounds the token request. The per-record create calls are
// bounded by the session's HTTP client instead.
const connectTimeout = 30 * time.Second

// Config carries everything needed to reach the directory service.
type Config struct {
	// BaseURL is the directory API root, e.g. https://graph.microsoft.com.
	BaseURL string

	// LoginURL is the token authority, e.g. https://login.microsoftonline.com.
	LoginURL string

	TenantID     string
	ClientID     string
	ClientSecret string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Session is an authenticated handle to the directory service. It is
// obtained once before the batch starts and is never refreshed mid-batch;
// an expired token surfaces as per-record create failures.
type Session struct {
	baseURL    string
	token      string
	tokenType  string
	expiry     time.Time
	httpClient *http.Client
}

// Expiry reports when the session's access token expires, if known.
func (s *Session) Expiry() time.Time {
	return s.expiry
}

// tokenResponse is the identity provider's token endpoint reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Connect performs the client-credentials token exchange and returns an
// authenticated session. Consumed once at startup; any failure here aborts
// the run before a single record is processed.
func Connect(ctx context.Context, cfg Config, scopes ...string) (*Session, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: tenant_id and client_id must be configured", ErrAuth)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client secret is not set", ErrAuth)
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: connectTimeout}
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"scope":         {strings.Join(scopes, " ")},
	}
	tokenURL := fmt.Sprintf("%s/%s/oauth2/v2.0/token",
		strings.TrimRight(cfg.LoginURL, "/"), cfg.TenantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build token request: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token request: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		detail := body.ErrorDescription
		if detail == "" {
			detail = body.Error
		}
		return nil, fmt.Errorf("%w: token endpoint returned %d: %s",
			ErrAuth, resp.StatusCode, detail)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", ErrAuth, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: token endpoint returned no access token", ErrAuth)
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return &Session{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      token.AccessToken,
		tokenType:  tokenType,
		expiry:     tokenExpiry(token),
		httpClient: httpClient,
	}, nil
}

// tokenExpiry extracts the token's expiry, preferring the JWT exp claim over
// the endpoint's expires_in hint. Opaque (non-JWT) tokens fall back to
// expires_in; if neither is available the zero time is returned.
func tokenExpiry(token tokenResponse) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if token.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return time.Time{}
}
