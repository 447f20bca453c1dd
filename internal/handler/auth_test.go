package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hearthkeep/hearthkeep/internal/database"
	"github.com/hearthkeep/hearthkeep/internal/store"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.SessionStore) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	ss := store.NewSessionStore(db)
	hs := store.NewHouseholdStore(db)
	return NewAuthHandler(us, ss, hs, nil, slog.Default()), ss
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/", &buf))
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	h, ss := setupAuthHandler(t)

	w := postJSON(t, h.Register, map[string]string{
		"email":    "Alice@Example.com",
		"name":     "Alice",
		"password": "correct horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(resp.Token))
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("email = %q, should be lowercased", resp.User.Email)
	}

	session, err := ss.GetByToken(resp.Token)
	if err != nil || session == nil {
		t.Fatalf("registered token should resolve: %v", err)
	}

	// Login with the wrong password
	w = postJSON(t, h.Login, map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", w.Code)
	}

	// Login with the right password
	w = postJSON(t, h.Login, map[string]string{
		"email":    "alice@example.com",
		"password": "correct horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := setupAuthHandler(t)

	body := map[string]string{"email": "bob@example.com", "name": "Bob", "password": "password1"}
	if w := postJSON(t, h.Register, body); w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", w.Code)
	}
	if w := postJSON(t, h.Register, body); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := setupAuthHandler(t)

	cases := []map[string]string{
		{"email": "", "name": "X", "password": "password1"},
		{"email": "not-an-email", "name": "X", "password": "password1"},
		{"email": "x@example.com", "name": "", "password": "password1"},
		{"email": "x@example.com", "name": "X", "password": "short"},
	}
	for _, c := range cases {
		if w := postJSON(t, h.Register, c); w.Code != http.StatusBadRequest {
			t.Errorf("register %v: status = %d, want 400", c, w.Code)
		}
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h, _ := setupAuthHandler(t)

	w := postJSON(t, h.Login, map[string]string{
		"email":    "ghost@example.com",
		"password": "whatever1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
