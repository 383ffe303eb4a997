package client

import (
	"aichat-backend/internal/models"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// API is the HTTP/JSON client for the chat backend. It holds the bearer
// token for the credential's lifetime; logout simply discards it.
type API struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{baseURL: baseURL, httpClient: httpClient}
}

func (a *API) SetToken(token string) { a.token = token }
func (a *API) Token() string         { return a.token }

// envelope is the server's standard response wrapper.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// AuthResult is the payload of register/login responses.
type AuthResult struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Credits  int64  `json:"credits"`
	Token    string `json:"token"`
}

// Profile mirrors GET /users/profile.
type Profile struct {
	ID            uint                  `json:"id"`
	Username      string                `json:"username"`
	Credits       int64                 `json:"credits"`
	Notifications []models.Notification `json:"notifications"`
}

type creditsPayload struct {
	Credits int64 `json:"credits"`
}

func (a *API) do(method, path string, body interface{}, out interface{}) (*envelope, int, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, a.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &env, resp.StatusCode, ErrUnauthenticated
	}

	if out != nil && resp.StatusCode < 300 && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &env, resp.StatusCode, fmt.Errorf("decode data: %w", err)
		}
	}

	return &env, resp.StatusCode, nil
}

func (a *API) Register(username, password string) (*AuthResult, error) {
	var result AuthResult
	env, status, err := a.do(http.MethodPost, "/api/v1/auth/register",
		map[string]string{"username": username, "password": password}, &result)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, serverError(env, status)
	}
	a.token = result.Token
	return &result, nil
}

func (a *API) Login(username, password string) (*AuthResult, error) {
	var result AuthResult
	env, status, err := a.do(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": username, "password": password}, &result)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, serverError(env, status)
	}
	a.token = result.Token
	return &result, nil
}

// Logout denylists the token server-side and discards it locally either way.
func (a *API) Logout() error {
	_, status, err := a.do(http.MethodPost, "/api/v1/auth/logout", nil, nil)
	a.token = ""
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("logout failed with status %d", status)
	}
	return nil
}

func (a *API) Profile() (*Profile, error) {
	var profile Profile
	env, status, err := a.do(http.MethodGet, "/api/v1/users/profile", nil, &profile)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, serverError(env, status)
	}
	return &profile, nil
}

// DeductMessageCredit performs the ledger deduction for one message. On
// ErrInsufficientCredits the returned balance is the server's current one.
func (a *API) DeductMessageCredit() (int64, error) {
	var payload creditsPayload
	env, status, err := a.do(http.MethodPost, "/api/v1/users/deduct-message-credit", nil, nil)
	if err != nil {
		return 0, err
	}

	if len(env.Data) > 0 {
		// Both success and insufficient-credit failures carry the balance.
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return 0, fmt.Errorf("decode data: %w", err)
		}
	}

	switch status {
	case http.StatusOK:
		return payload.Credits, nil
	case http.StatusBadRequest:
		return payload.Credits, ErrInsufficientCredits
	default:
		return 0, serverError(env, status)
	}
}

func (a *API) ListNotifications() ([]models.Notification, error) {
	var notifications []models.Notification
	env, status, err := a.do(http.MethodGet, "/api/v1/notifications", nil, &notifications)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, serverError(env, status)
	}
	return notifications, nil
}

func (a *API) MarkNotificationRead(id uint) error {
	env, status, err := a.do(http.MethodPatch, fmt.Sprintf("/api/v1/notifications/%d/read", id), nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return serverError(env, status)
	}
	return nil
}

func (a *API) MarkAllNotificationsRead() error {
	env, status, err := a.do(http.MethodPatch, "/api/v1/notifications/mark-all-read", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return serverError(env, status)
	}
	return nil
}

func serverError(env *envelope, status int) error {
	if env != nil && env.Message != "" {
		return fmt.Errorf("server returned %d: %s", status, env.Message)
	}
	return fmt.Errorf("server returned %d", status)
}
