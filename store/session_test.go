package store

import (
	"context"
	"testing"

	"github.com/reveriehq/reverie/domain"
)

func TestSessionStartsUnauthenticated(t *testing.T) {
	sm := NewSessionManager(newFakeRemote(), newMemStorage())

	if sm.State() != Unauthenticated {
		t.Errorf("Expected Unauthenticated, got %d", sm.State())
	}
	if sm.IsValid() {
		t.Error("Fresh session should not be valid")
	}
}

func TestSaveTransitionsToAuthenticated(t *testing.T) {
	remote := newFakeRemote()
	storage := newMemStorage()
	sm := NewSessionManager(remote, storage)

	user := &domain.User{Id: "alice", Username: "alice"}
	sm.Save("tok-123", user)

	if sm.State() != Authenticated {
		t.Errorf("Expected Authenticated, got %d", sm.State())
	}
	if !sm.IsValid() {
		t.Error("Session should be valid after Save")
	}
	if sm.UserId() != "alice" {
		t.Errorf("Expected userId alice, got %s", sm.UserId())
	}
	if remote.currentToken() != "tok-123" {
		t.Errorf("Remote client should carry the token, got %q", remote.currentToken())
	}

	// The persisted blob must survive a fresh manager
	sm2 := NewSessionManager(remote, storage)
	if !sm2.LoadPersisted() {
		t.Fatal("Expected a persisted token to be found")
	}
	if sm2.State() != Validating {
		t.Errorf("Restored session should be Validating, got %d", sm2.State())
	}
	if sm2.IsValid() {
		t.Error("Restored session must not be valid before a round trip")
	}
}

func TestValidateSuccessRefreshesUser(t *testing.T) {
	remote := newFakeRemote()
	storage := newMemStorage()
	sm := NewSessionManager(remote, storage)

	remote.CreateAccount(context.Background(), "alice", "pw", "Alice Original")
	sm.Save("tok-123", &domain.User{Id: "alice", Username: "alice", DisplayName: "Stale Name"})

	// Restart: restore and validate
	sm2 := NewSessionManager(remote, storage)
	if !sm2.LoadPersisted() {
		t.Fatal("Expected a persisted token")
	}
	if err := sm2.Validate(context.Background()); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if sm2.State() != Authenticated {
		t.Errorf("Expected Authenticated, got %d", sm2.State())
	}
	if !sm2.IsValid() {
		t.Error("Session should be valid after validation")
	}
	user := sm2.CurrentUser()
	if user == nil || user.DisplayName != "Alice Original" {
		t.Errorf("Expected refreshed user record, got %+v", user)
	}
}

func TestValidateFailureClearsEverything(t *testing.T) {
	remote := newFakeRemote()
	storage := newMemStorage()
	sm := NewSessionManager(remote, storage)

	sm.Save("tok-stale", &domain.User{Id: "ghost", Username: "ghost"})

	sm2 := NewSessionManager(remote, storage)
	if !sm2.LoadPersisted() {
		t.Fatal("Expected a persisted token")
	}
	remote.failFetchUser = true
	if err := sm2.Validate(context.Background()); err == nil {
		t.Fatal("Expected validation error")
	}

	if sm2.State() != Unauthenticated {
		t.Errorf("Expected Unauthenticated after failed validation, got %d", sm2.State())
	}
	if sm2.IsValid() {
		t.Error("Session must not be valid after failed validation")
	}
	if sm2.UserId() != "" {
		t.Errorf("Expected empty userId, got %s", sm2.UserId())
	}
	if remote.currentToken() != "" {
		t.Errorf("Remote token should be cleared, got %q", remote.currentToken())
	}

	// Persisted fields must be gone too
	sm3 := NewSessionManager(remote, storage)
	if sm3.LoadPersisted() {
		t.Error("Cleared session should not restore a token")
	}
}

func TestClearGating(t *testing.T) {
	remote := newFakeRemote()
	storage := newMemStorage()
	sm := NewSessionManager(remote, storage)

	sm.Save("tok", &domain.User{Id: "alice", Username: "alice"})
	sm.Clear()

	if sm.IsValid() {
		t.Error("Session should not be valid after Clear")
	}
	if sm.UserId() != "" {
		t.Errorf("Expected empty userId after Clear, got %s", sm.UserId())
	}
	if sm.CurrentUser() != nil {
		t.Error("Expected nil CurrentUser after Clear")
	}
	if remote.currentToken() != "" {
		t.Errorf("Remote token should be cleared, got %q", remote.currentToken())
	}

	// Authorized store operations must refuse
	feed := NewFeedStore(remote, sm, 10)
	if _, err := feed.CreateAndPrepend(context.Background(), nil, "", "caption"); err != ErrNotAuthenticated {
		t.Errorf("Expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSignInAndSignUp(t *testing.T) {
	remote := newFakeRemote()
	sm := NewSessionManager(remote, newMemStorage())

	if err := sm.SignUp(context.Background(), "bob", "pw", "Bob"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if !sm.IsValid() {
		t.Error("Session should be valid after SignUp")
	}
	if sm.CurrentUser().Username != "bob" {
		t.Errorf("Expected bob, got %s", sm.CurrentUser().Username)
	}

	sm.Clear()
	if err := sm.SignIn(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if sm.State() != Authenticated {
		t.Errorf("Expected Authenticated, got %d", sm.State())
	}
}

func TestLoadPersistedWithoutToken(t *testing.T) {
	sm := NewSessionManager(newFakeRemote(), newMemStorage())

	if sm.LoadPersisted() {
		t.Error("Empty storage should not report a token")
	}
	if sm.State() != Unauthenticated {
		t.Errorf("Expected Unauthenticated, got %d", sm.State())
	}
}
