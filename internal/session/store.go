// Package session owns the client's authentication state: the token and
// profile returned by the backend, their persistence, and the
// login/register/logout actions.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
)

// State is the session as seen by callers. IsLoading is true while a login
// or register call is in flight.
type State struct {
	User            *model.Profile
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

func (s State) snapshot() Snapshot {
	return Snapshot{User: s.User, Token: s.Token, IsAuthenticated: s.IsAuthenticated}
}

// Authenticator is the backend side of login and register. A successful
// call has already stored the token for the transport.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Logout()
}

// TokenHolder is the transport token the store seeds on rehydrate and
// clears on failure.
type TokenHolder interface {
	Token() string
	Set(token string)
	Clear()
}

// Source says where the active token came from.
type Source string

const (
	SourceNone Source = ""
	SourceFile Source = "file"
	SourceEnv  Source = "env"
)

// Options tune a Store.
type Options struct {
	// EnvToken, when set, takes precedence over the persisted token.
	EnvToken string
	Logger   *log.Logger
}

// Store is the session context. It never holds its lock across a network
// call, so the transport's 401 hook may call back into it at any time.
type Store struct {
	auth      Authenticator
	tokens    TokenHolder
	persister Persister
	envToken  string
	logger    *log.Logger

	mu        sync.RWMutex
	state     State
	source    Source
	listeners []func(State)
}

func New(auth Authenticator, tokens TokenHolder, persister Persister, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if persister == nil {
		persister = &MemoryStore{}
	}
	return &Store{
		auth:      auth,
		tokens:    tokens,
		persister: persister,
		envToken:  opts.EnvToken,
		logger:    opts.Logger,
	}
}

// Rehydrate restores the persisted session and seeds the transport token.
// The token is trusted as-is; a stale token surfaces as a 401 later.
func (s *Store) Rehydrate() (State, error) {
	snap, err := s.persister.Load()
	if err != nil {
		return s.State(), err
	}

	var st State
	source := SourceNone
	if snap != nil {
		st = State{User: snap.User, Token: snap.Token, IsAuthenticated: snap.IsAuthenticated}
		if st.Token != "" {
			source = SourceFile
		}
	}
	if s.envToken != "" {
		st.Token = s.envToken
		st.IsAuthenticated = true
		source = SourceEnv
	}

	if st.Token != "" {
		s.tokens.Set(st.Token)
		// the transport normalises the token ("Bearer " prefix)
		st.Token = s.tokens.Token()
	} else {
		s.tokens.Clear()
	}
	s.set(st, source)
	s.logger.Debug("session rehydrated", "authenticated", st.IsAuthenticated, "source", string(source))
	return st, nil
}

// Login authenticates with email and password. On failure the session is
// left cleared and the error is returned; IsLoading is reset either way.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.setLoading()
	resp, err := s.auth.Login(ctx, model.LoginRequest{Email: email, Password: password})
	return s.complete("login", resp, err)
}

// Register creates an account and signs in with it. Same contract as Login.
func (s *Store) Register(ctx context.Context, req model.RegisterRequest) error {
	s.setLoading()
	resp, err := s.auth.Register(ctx, req)
	return s.complete("register", resp, err)
}

// Logout clears the transport token and the session. It never contacts the
// backend; the error only reports a failed persistence write.
func (s *Store) Logout() error {
	s.auth.Logout()
	s.tokens.Clear()
	s.set(State{}, SourceNone)
	s.logger.Debug("logged out")
	return s.persist()
}

// HandleUnauthorized is the transport's 401 hook. The token has already
// been cleared there.
func (s *Store) HandleUnauthorized() {
	if !s.State().IsAuthenticated {
		return
	}
	s.set(State{}, SourceNone)
	s.logger.Debug("session expired, signed out")
	if err := s.persist(); err != nil {
		s.logger.Warn("could not persist cleared session", "err", err)
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Source reports where the active token came from.
func (s *Store) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// EnvOverride reports whether a token is forced through the environment.
func (s *Store) EnvOverride() bool { return s.envToken != "" }

// Subscribe registers fn to receive every state change.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) complete(action string, resp *model.AuthResponse, err error) error {
	if err != nil {
		s.tokens.Clear()
		s.set(State{}, SourceNone)
		s.logger.Debug(action+" failed", "err", err)
		if perr := s.persist(); perr != nil {
			s.logger.Warn("could not persist cleared session", "err", perr)
		}
		return err
	}

	user := resp.User
	s.set(State{User: &user, Token: s.tokens.Token(), IsAuthenticated: true}, SourceFile)
	s.logger.Debug(action+" succeeded", "user", user.ID)
	if err := s.persist(); err != nil {
		return fmt.Errorf("%s: save session: %w", action, err)
	}
	return nil
}

func (s *Store) setLoading() {
	s.mu.Lock()
	s.state.IsLoading = true
	st := s.state
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

func (s *Store) set(st State, source Source) {
	s.mu.Lock()
	s.state = st
	s.source = source
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

func (s *Store) persist() error {
	return s.persister.Save(s.State().snapshot())
}
