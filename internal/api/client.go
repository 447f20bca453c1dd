// Package api is the HTTP client for a hearthkeep server. It speaks the
// JSON API and maps transport failures onto a small error taxonomy the
// sync layer can classify.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hearthkeep/hearthkeep/internal/model"
)

// ErrUnauthenticated means the server rejected the session token.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrNoHousehold means the user has no household membership yet.
var ErrNoHousehold = errors.New("no household membership")

// APIError is a non-2xx response that is not covered by a sentinel error.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to a hearthkeep server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the given server. Deadlines are supplied
// per call through context, so the underlying http.Client has no timeout
// of its own.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
	}
}

// Token returns the session token the client authenticates with.
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusPreconditionFailed:
		return ErrNoHousehold
	}
	return &APIError{Status: resp.StatusCode, Message: payload.Error}
}

// SessionInfo is the response of GET /api/session.
type SessionInfo struct {
	User      model.User       `json:"user"`
	Member    *model.Member    `json:"member"`
	Household *model.Household `json:"household"`
}

// Session resolves the current session: who the user is and which
// household they belong to, if any.
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// LoginResult is the response of login and register.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

// Login authenticates with email and password. It works on an
// unauthenticated client; the returned token should be stored and used
// for subsequent clients.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account and returns its first session.
func (c *Client) Register(ctx context.Context, email, name, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"name":     name,
		"password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout revokes the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// LogoutAll revokes every session of the account.
func (c *Client) LogoutAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout-all", nil, nil)
}

// HouseholdResult is the response of household create and join.
type HouseholdResult struct {
	Household *model.Household `json:"household"`
	Member    *model.Member    `json:"member"`
}

// CreateHousehold makes a new household with the caller as admin.
func (c *Client) CreateHousehold(ctx context.Context, name, displayName string) (*HouseholdResult, error) {
	var result HouseholdResult
	err := c.do(ctx, http.MethodPost, "/api/households", map[string]string{
		"name":         name,
		"display_name": displayName,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// JoinHousehold joins an existing household by join code.
func (c *Client) JoinHousehold(ctx context.Context, joinCode, displayName string) (*HouseholdResult, error) {
	var result HouseholdResult
	err := c.do(ctx, http.MethodPost, "/api/households/join", map[string]string{
		"join_code":    joinCode,
		"display_name": displayName,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Household fetches the caller's household.
func (c *Client) Household(ctx context.Context) (*model.Household, error) {
	var h model.Household
	if err := c.do(ctx, http.MethodGet, "/api/household", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Members lists the caller's household members.
func (c *Client) Members(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := c.do(ctx, http.MethodGet, "/api/household/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// Leaderboard fetches per-member completed-task points.
func (c *Client) Leaderboard(ctx context.Context) ([]model.PointsEntry, error) {
	var entries []model.PointsEntry
	if err := c.do(ctx, http.MethodGet, "/api/leaderboard", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// TaskDraft is the payload for creating or updating a task.
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Points      int        `json:"points"`
	AssignedTo  *int64     `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// ListTasks fetches tasks for the caller's household. filter is pending,
// completed, or all; empty means pending. assignedTo further narrows to
// one member.
func (c *Client) ListTasks(ctx context.Context, filter string, assignedTo *int64) ([]model.Task, error) {
	path := "/api/tasks"
	query := make([]string, 0, 2)
	if filter != "" {
		query = append(query, "filter="+filter)
	}
	if assignedTo != nil {
		query = append(query, "assigned_to="+strconv.FormatInt(*assignedTo, 10))
	}
	if len(query) > 0 {
		path += "?" + strings.Join(query, "&")
	}

	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task. The server forces the initial status to
// pending.
func (c *Client) CreateTask(ctx context.Context, draft TaskDraft) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ToggleTask flips a task's completion. revertTo selects the status a
// completed task returns to; empty means pending.
func (c *Client) ToggleTask(ctx context.Context, id int64, revertTo string) (*model.Task, error) {
	var body any
	if revertTo != "" {
		body = map[string]string{"revert_to": revertTo}
	}
	var task model.Task
	path := fmt.Sprintf("/api/tasks/%d/toggle", id)
	if err := c.do(ctx, http.MethodPost, path, body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask replaces a task's editable fields.
func (c *Client) UpdateTask(ctx context.Context, id int64, draft TaskDraft) (*model.Task, error) {
	var task model.Task
	path := fmt.Sprintf("/api/tasks/%d", id)
	if err := c.do(ctx, http.MethodPut, path, draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil)
}
