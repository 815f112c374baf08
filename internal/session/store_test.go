package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nkarpov/roombook/pkg/client"
	"github.com/nkarpov/roombook/pkg/domain"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeToken, false},
		{"token", ModeToken, false},
		{"cookie", ModeCookie, false},
		{"basic", ModeToken, true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseMode(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if err == nil && got != tc.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTokenModeLoginPersistsAndInitializeRestores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(client.LoginResponse{AccessToken: "tok-abc"}) //nolint:errcheck
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	api := client.New(srv.URL)
	store := NewStore(api, ModeToken, path, nil)

	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatal("authenticated before any login")
	}

	if err := store.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !store.IsAuthenticated() || store.Identity() != "alice" {
		t.Errorf("after login: authenticated=%v identity=%q", store.IsAuthenticated(), store.Identity())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("session file unreadable: %v", err)
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("session file not json: %v", err)
	}
	if p.User != "alice" || p.Token != "tok-abc" {
		t.Errorf("persisted = %+v", p)
	}

	// A fresh process reads the same file and resumes the session.
	store2 := NewStore(client.New(srv.URL), ModeToken, path, nil)
	if err := store2.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize (restore): %v", err)
	}
	if !store2.IsAuthenticated() || store2.Identity() != "alice" {
		t.Errorf("restored: authenticated=%v identity=%q", store2.IsAuthenticated(), store2.Identity())
	}
}

func TestLoginRejectionIsErrAuthentication(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := NewStore(client.New(srv.URL), ModeToken, filepath.Join(t.TempDir(), "s.json"), nil)
	err := store.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("err = %v, want ErrAuthentication", err)
	}
	if store.IsAuthenticated() {
		t.Error("authenticated after rejected login")
	}
}

func TestCookieModeInitializeProbe(t *testing.T) {
	authed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authed {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(domain.User{ID: 1, Username: "bob", FullName: "Bob Byrne"}) //nolint:errcheck
	}))
	defer srv.Close()

	store := NewStore(client.New(srv.URL, client.WithCookies()), ModeCookie, "", nil)

	// An auth rejection on the probe means no session, not a failure.
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize (unauthenticated): %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("authenticated without a cookie")
	}

	authed = true
	store2 := NewStore(client.New(srv.URL, client.WithCookies()), ModeCookie, "", nil)
	if err := store2.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize (authenticated): %v", err)
	}
	if !store2.IsAuthenticated() || store2.Identity() != "Bob Byrne" {
		t.Errorf("authenticated=%v identity=%q", store2.IsAuthenticated(), store2.Identity())
	}
}

func TestCookieModeInitializeServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := NewStore(client.New(srv.URL, client.WithCookies()), ModeCookie, "", nil)
	if err := store.Initialize(context.Background()); err == nil {
		t.Fatal("expected error for 502 probe")
	}
	if store.IsAuthenticated() {
		t.Error("authenticated after failed probe")
	}
	if !store.Initialized() {
		t.Error("Initialize must resolve even on failure")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(client.LoginResponse{AccessToken: "tok"}) //nolint:errcheck
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(client.New(srv.URL), ModeToken, path, nil)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := store.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	store.Logout(context.Background())
	if store.IsAuthenticated() || store.Identity() != "" {
		t.Errorf("after logout: authenticated=%v identity=%q", store.IsAuthenticated(), store.Identity())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file survived logout")
	}
}

func TestInvalidateDropsLocalState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"user":"alice","token":"stale"}`), 0600); err != nil {
		t.Fatal(err)
	}
	store := NewStore(client.New("http://unused"), ModeToken, path, nil)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !store.IsAuthenticated() {
		t.Fatal("expected restored session")
	}

	store.Invalidate()
	if store.IsAuthenticated() {
		t.Error("authenticated after Invalidate")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file survived Invalidate")
	}
}
