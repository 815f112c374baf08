// Package session owns the process-wide identity and credential state.
// All mutation goes through Initialize, Login and Logout so that durable
// storage and in-memory state cannot diverge.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nkarpov/roombook/pkg/client"
)

// Mode selects the credential transport, resolved once at startup.
type Mode int

const (
	// ModeToken sends a bearer token with every request and persists it
	// in a durable session file.
	ModeToken Mode = iota
	// ModeCookie relies on a server-managed session cookie; nothing is
	// persisted locally.
	ModeCookie
)

// ParseMode parses a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "token":
		return ModeToken, nil
	case "cookie":
		return ModeCookie, nil
	default:
		return ModeToken, fmt.Errorf("session: unknown auth mode %q", s)
	}
}

// ErrAuthentication is returned by Login when the server rejects the
// credentials.
var ErrAuthentication = errors.New("authentication failed")

// persisted is the durable session key, written in token mode only.
type persisted struct {
	User  string `json:"user"`
	Token string `json:"token"`
}

// Store holds the current identity and credential mode. Exactly one Store
// exists per process; consumers must not observe IsAuthenticated() == true
// while Initialize is still pending, so the UI gates protected views on
// Initialized().
type Store struct {
	api  *client.Client
	mode Mode
	path string // session file, token mode only
	log  *zap.Logger

	identity      string
	authenticated bool
	initialized   bool
}

// NewStore creates a Store bound to an API client. path is the durable
// session file used in token mode.
func NewStore(api *client.Client, mode Mode, path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{api: api, mode: mode, path: path, log: log}
}

// Initialize determines whether a session already exists. In token mode a
// previously persisted token is read from the session file and considered
// valid until a request proves otherwise. In cookie mode the identity
// endpoint is probed; an auth rejection means "unauthenticated", not an
// error.
func (s *Store) Initialize(ctx context.Context) error {
	defer func() { s.initialized = true }()

	switch s.mode {
	case ModeToken:
		p, err := s.readFile()
		if err != nil {
			if !os.IsNotExist(err) {
				s.log.Warn("session file unreadable", zap.String("path", s.path), zap.Error(err))
			}
			return nil
		}
		if p.Token == "" {
			return nil
		}
		s.api.SetToken(p.Token)
		s.identity = p.User
		s.authenticated = true
		return nil

	default: // ModeCookie
		me, err := s.api.Me(ctx)
		if err != nil {
			var httpErr *client.HTTPError
			if errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
				return nil
			}
			return fmt.Errorf("session: probe identity: %w", err)
		}
		s.identity = me.DisplayName()
		s.authenticated = true
		return nil
	}
}

// Login performs the credential exchange. On success the store is
// authenticated, the request pipeline is armed, and (token mode) the
// session file is written. A 4xx rejection surfaces as ErrAuthentication.
func (s *Store) Login(ctx context.Context, username, password string) error {
	resp, err := s.api.Login(ctx, username, password)
	if err != nil {
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			return fmt.Errorf("%w: %s", ErrAuthentication, username)
		}
		return fmt.Errorf("session: login: %w", err)
	}

	switch s.mode {
	case ModeToken:
		s.api.SetToken(resp.AccessToken)
		s.identity = username
		if err := s.writeFile(persisted{User: username, Token: resp.AccessToken}); err != nil {
			s.log.Warn("persist session", zap.Error(err))
		}
	default: // ModeCookie
		// The jar already holds the cookie; re-probe for the display name.
		if me, meErr := s.api.Me(ctx); meErr == nil {
			s.identity = me.DisplayName()
		} else {
			s.identity = username
		}
	}
	s.authenticated = true
	s.log.Info("logged in", zap.String("user", username))
	return nil
}

// Logout clears the session. The cookie-mode remote call may fail without
// consequence; the local state is cleared either way, synchronously.
func (s *Store) Logout(ctx context.Context) {
	if s.mode == ModeCookie {
		if err := s.api.Logout(ctx); err != nil {
			s.log.Warn("remote logout failed", zap.Error(err))
		}
	} else {
		s.api.SetToken("")
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("remove session file", zap.Error(err))
		}
	}
	s.identity = ""
	s.authenticated = false
	s.log.Info("logged out")
}

// Invalidate drops the local session without a remote call, for when a
// request proves the stored credential stale.
func (s *Store) Invalidate() {
	if s.mode == ModeToken {
		s.api.SetToken("")
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("remove session file", zap.Error(err))
		}
	}
	s.identity = ""
	s.authenticated = false
}

// IsAuthenticated reports whether a session is in effect. Always false
// before Initialize resolves.
func (s *Store) IsAuthenticated() bool {
	return s.initialized && s.authenticated
}

// Initialized reports whether Initialize has resolved.
func (s *Store) Initialized() bool {
	return s.initialized
}

// Identity returns the display label of the current session, or "".
func (s *Store) Identity() string {
	return s.identity
}

// Mode returns the credential mode the store was built with.
func (s *Store) Mode() Mode {
	return s.mode
}

func (s *Store) readFile() (persisted, error) {
	var p persisted
	data, err := os.ReadFile(s.path)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse session file: %w", err)
	}
	return p, nil
}

func (s *Store) writeFile(p persisted) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
