package store

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/reveriehq/reverie/domain"
)

// SessionState is the lifecycle of the device session.
type SessionState uint

const (
	Unauthenticated SessionState = iota
	Validating
	Authenticated
)

const (
	sessionNamespace = "session"
	sessionKey       = "current"
)

// SessionManager is the single source of truth for who the current user is
// and whether this device is authorized. All other stores consult it before
// issuing authenticated calls.
type SessionManager struct {
	mu      sync.RWMutex
	remote  RemoteService
	storage Storage

	state   SessionState
	session domain.Session
}

func NewSessionManager(remote RemoteService, storage Storage) *SessionManager {
	return &SessionManager{
		remote:  remote,
		storage: storage,
		state:   Unauthenticated,
	}
}

// LoadPersisted restores the session blob from durable storage without any
// network traffic. A restored token moves the state machine to Validating
// and is attached to the remote client so the follow-up validation call can
// authenticate; IsValid stays false until Validate succeeds.
func (sm *SessionManager) LoadPersisted() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var persisted domain.Session
	found, err := sm.storage.GetJSON(sessionNamespace, sessionKey, &persisted)
	if err != nil {
		log.Printf("Could not read persisted session: %v", err)
		return false
	}
	if !found || !persisted.HasToken() {
		// Partial or missing session state reads as logged out
		return false
	}

	persisted.IsValid = false
	sm.session = persisted
	sm.state = Validating
	sm.remote.SetToken(persisted.Token)
	return true
}

// Validate confirms a restored token with a user fetch round trip. Any
// failure (network, 4xx, decode) clears the session entirely, guarding
// against stale or revoked tokens surviving a restart. The error is returned
// for logging only; callers show no user-visible error and simply land on
// the login screen.
func (sm *SessionManager) Validate(ctx context.Context) error {
	sm.mu.RLock()
	state := sm.state
	userId := sm.session.UserId
	sm.mu.RUnlock()

	if state != Validating {
		return fmt.Errorf("validate: session not in validating state")
	}

	user, err := sm.remote.FetchUser(ctx, userId)
	if err != nil {
		log.Printf("Session validation failed, clearing session: %v", err)
		sm.Clear()
		return err
	}

	sm.mu.Lock()
	sm.session.CurrentUser = user
	sm.session.UserId = user.Id
	sm.session.IsValid = true
	sm.state = Authenticated
	sm.mu.Unlock()

	sm.persist()
	return nil
}

// Save is the authoritative transition to Authenticated after a successful
// login or signup. Token, user id and user record are persisted as one blob,
// and the token is attached to the remote client immediately.
func (sm *SessionManager) Save(token string, user *domain.User) {
	sm.mu.Lock()
	sm.session = domain.Session{
		Token:       token,
		UserId:      user.Id,
		CurrentUser: user,
		IsValid:     true,
	}
	sm.state = Authenticated
	sm.mu.Unlock()

	sm.remote.SetToken(token)
	sm.persist()
}

// Clear is the authoritative transition to Unauthenticated. Persisted fields
// are removed and the remote client continues unauthenticated, so login and
// signup remain reachable.
func (sm *SessionManager) Clear() {
	sm.mu.Lock()
	sm.session = domain.Session{}
	sm.state = Unauthenticated
	sm.mu.Unlock()

	sm.remote.ClearToken()
	if err := sm.storage.Delete(sessionNamespace, sessionKey); err != nil {
		log.Printf("Could not clear persisted session: %v", err)
	}
}

// SignIn exchanges credentials for a session and saves it.
func (sm *SessionManager) SignIn(ctx context.Context, username, password string) error {
	token, user, err := sm.remote.CreateSession(ctx, username, password)
	if err != nil {
		return err
	}
	sm.Save(token, user)
	return nil
}

// SignUp registers an account and signs in with the same credentials.
func (sm *SessionManager) SignUp(ctx context.Context, username, password, fullname string) error {
	if _, err := sm.remote.CreateAccount(ctx, username, password, fullname); err != nil {
		return err
	}
	return sm.SignIn(ctx, username, password)
}

// State returns the current lifecycle state.
func (sm *SessionManager) State() SessionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// IsValid reports whether the session passed a server round trip. It starts
// false on every process start, even when a token was restored.
func (sm *SessionManager) IsValid() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.session.IsValid
}

// UserId returns the current user id, or "" when logged out.
func (sm *SessionManager) UserId() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.session.UserId
}

// CurrentUser returns a copy of the current user, or nil when logged out.
func (sm *SessionManager) CurrentUser() *domain.User {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.session.CurrentUser == nil {
		return nil
	}
	u := *sm.session.CurrentUser
	return &u
}

// Session returns a copy of the full session record.
func (sm *SessionManager) Session() domain.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s := sm.session
	if sm.session.CurrentUser != nil {
		u := *sm.session.CurrentUser
		s.CurrentUser = &u
	}
	return s
}

func (sm *SessionManager) persist() {
	sm.mu.RLock()
	s := sm.session
	sm.mu.RUnlock()

	if err := sm.storage.PutJSON(sessionNamespace, sessionKey, &s); err != nil {
		log.Printf("Could not persist session: %v", err)
	}
}
