package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// usersPath is the create-account endpoint relative to the API root.
const usersPath = "/v1.0/users"

// PasswordProfile is the initial-credential sub-structure of a create
// request. ForceChange is always set for bulk-onboarded accounts so the
// spreadsheet password dies at first sign-in.
type PasswordProfile struct {
	Password    string `json:"password"`
	ForceChange bool   `json:"forceChangePasswordNextSignIn"`
}

// UserRequest is the create-account payload. It is built once per record,
// complete at construction, and never mutated afterwards.
type UserRequest struct {
	AccountEnabled    bool            `json:"accountEnabled"`
	DisplayName       string          `json:"displayName"`
	MailNickname      string          `json:"mailNickname"`
	UserPrincipalName string          `json:"userPrincipalName"`
	PasswordProfile   PasswordProfile `json:"passwordProfile"`
	GivenName         string          `json:"givenName,omitempty"`
	Surname           string          `json:"surname,omitempty"`
	JobTitle          string          `json:"jobTitle,omitempty"`
	Department        string          `json:"department,omitempty"`
	UsageLocation     string          `json:"usageLocation,omitempty"`
	OfficeLocation    string          `json:"officeLocation,omitempty"`
	City              string          `json:"city,omitempty"`
	State             string          `json:"state,omitempty"`
	Country           string          `json:"country,omitempty"`
	PostalCode        string          `json:"postalCode,omitempty"`
}

// APIError is a structured error returned by the directory service.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directory service returned %d: %s: %s",
		e.StatusCode, e.Code, e.Message)
}

// apiErrorBody matches the service's error envelope.
type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateUser submits one create-account request. It is the single fallible
// step per record: duplicate principal names, invalid fields, throttling and
// transport faults all come back through the returned error and are treated
// identically by the caller.
func (s *Session) CreateUser(ctx context.Context, user UserRequest) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+usersPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build create request: %w", err)
	}

	// One correlation ID per request so a failed row can be chased through
	// the service's own diagnostics.
	requestID := uuid.NewString()
	req.Header.Set("Authorization", s.tokenType+" "+s.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client-request-id", requestID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
	}
	var body apiErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	if apiErr.Code == "" {
		apiErr.Code = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
