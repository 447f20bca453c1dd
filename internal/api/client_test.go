package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hearthkeep/hearthkeep/internal/model"
)

func TestSessionSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(SessionInfo{User: model.User{ID: 1, Email: "a@b.c"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok123")
	info, err := c.Session(context.Background())
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if info.User.ID != 1 {
		t.Errorf("user id = %d", info.User.ID)
	}
	if info.Household != nil {
		t.Error("household should be nil when absent from response")
	}
}

func TestErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /api/auth/session":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		case "GET /api/tasks":
			w.WriteHeader(http.StatusPreconditionFailed)
			json.NewEncoder(w).Encode(map[string]string{"error": "no household membership"})
		default:
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "title is required"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")

	if _, err := c.Session(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("session error = %v, want ErrUnauthenticated", err)
	}
	if _, err := c.ListTasks(context.Background(), "", nil); !errors.Is(err, ErrNoHousehold) {
		t.Errorf("list error = %v, want ErrNoHousehold", err)
	}

	_, err := c.CreateTask(context.Background(), TaskDraft{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("create error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "title is required" {
		t.Errorf("unexpected APIError %+v", apiErr)
	}
}

func TestListTasksQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]model.Task{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	member := int64(7)
	if _, err := c.ListTasks(context.Background(), "completed", &member); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if gotQuery != "filter=completed&assigned_to=7" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestToggleTaskBody(t *testing.T) {
	var gotBody map[string]string
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(model.Task{ID: 9, Status: model.StatusPending})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	task, err := c.ToggleTask(context.Background(), 9, "pending")
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if gotPath != "/api/tasks/9/toggle" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["revert_to"] != "pending" {
		t.Errorf("body = %v", gotBody)
	}
	if task.ID != 9 {
		t.Errorf("task id = %d", task.ID)
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "tok")
	if _, err := c.Session(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
