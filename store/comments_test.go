package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/reveriehq/reverie/domain"
)

func newTestComments(remote *fakeRemote) (*CommentStore, *SessionManager) {
	storage := newMemStorage()
	session := NewSessionManager(remote, storage)
	return NewCommentStore(remote, session, storage), session
}

func TestCommentsEmptyWhenNeverFetched(t *testing.T) {
	comments, _ := newTestComments(newFakeRemote())

	got := comments.Comments(domain.Post{Id: "p1"})
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", got)
	}
}

func TestFetchForPostReplacesNotMerges(t *testing.T) {
	remote := newFakeRemote()
	comments, session := newTestComments(remote)
	signIn(remote, session)
	post := domain.Post{Id: "p1"}

	// Seed a local-only fallback entry via a failed create
	remote.failCreateComment = true
	if err := comments.CreateComment(context.Background(), "offline thought", post); !errors.Is(err, ErrNotSynced) {
		t.Fatalf("Expected ErrNotSynced, got %v", err)
	}
	if len(comments.Comments(post)) != 1 {
		t.Fatal("Expected one local-only comment")
	}

	// A successful fetch replaces the whole list, dropping the local entry
	remote.comments["p1"] = []domain.Comment{
		{Id: "c-1", PostId: "p1", Text: "first", CreatedAt: time.Now()},
		{Id: "c-2", PostId: "p1", Text: "second", CreatedAt: time.Now()},
	}
	if err := comments.FetchForPost(context.Background(), post); err != nil {
		t.Fatalf("FetchForPost failed: %v", err)
	}

	got := comments.Comments(post)
	if len(got) != 2 {
		t.Fatalf("Expected exactly the server list, got %d entries", len(got))
	}
	for _, c := range got {
		if strings.HasPrefix(c.Id, "local-") {
			t.Error("Local fallback comment should have been discarded")
		}
	}
}

func TestFetchFailureLeavesCacheUntouched(t *testing.T) {
	remote := newFakeRemote()
	comments, _ := newTestComments(remote)
	post := domain.Post{Id: "p1"}

	remote.comments["p1"] = []domain.Comment{{Id: "c-1", Text: "kept"}}
	comments.FetchForPost(context.Background(), post)

	remote.failFetchComments = true
	if err := comments.FetchForPost(context.Background(), post); err == nil {
		t.Fatal("Expected fetch error")
	}

	got := comments.Comments(post)
	if len(got) != 1 || got[0].Id != "c-1" {
		t.Errorf("Cache must keep last-known list, got %v", got)
	}
}

func TestCreateCommentSuccessRefetches(t *testing.T) {
	remote := newFakeRemote()
	comments, session := newTestComments(remote)
	signIn(remote, session)
	post := domain.Post{Id: "p1"}

	if err := comments.CreateComment(context.Background(), "hello", post); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	got := comments.Comments(post)
	if len(got) != 1 {
		t.Fatalf("Expected 1 comment after refetch, got %d", len(got))
	}
	if got[0].Id != "c-1" {
		t.Errorf("Expected server-assigned id, got %s", got[0].Id)
	}
}

func TestCreateCommentFailureKeepsLocalFallback(t *testing.T) {
	remote := newFakeRemote()
	comments, session := newTestComments(remote)
	signIn(remote, session)
	post := domain.Post{Id: "p1"}

	remote.failCreateComment = true
	err := comments.CreateComment(context.Background(), "degraded", post)
	if !errors.Is(err, ErrNotSynced) {
		t.Fatalf("Expected ErrNotSynced, got %v", err)
	}

	got := comments.Comments(post)
	if len(got) != 1 {
		t.Fatalf("Expected 1 local comment, got %d", len(got))
	}
	if !strings.HasPrefix(got[0].Id, "local-") {
		t.Errorf("Expected client-generated id, got %s", got[0].Id)
	}
	if got[0].Author.Username != "tester" {
		t.Errorf("Expected best available local author, got %q", got[0].Author.Username)
	}
	if got[0].Text != "degraded" {
		t.Errorf("Expected text preserved, got %q", got[0].Text)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	remote := newFakeRemote()
	comments, session := newTestComments(remote)
	signIn(remote, session)
	post := domain.Post{Id: "p1"}

	if err := comments.CreateComment(context.Background(), "", post); err == nil {
		t.Error("Empty comment should be rejected")
	}
	if err := comments.CreateComment(context.Background(), strings.Repeat("x", domain.MaxCommentLen+1), post); err == nil {
		t.Error("Over-long comment should be rejected")
	}
	if len(comments.Comments(post)) != 0 {
		t.Error("Rejected comments must not enter the cache")
	}
}

func TestCreateCommentRequiresSession(t *testing.T) {
	comments, _ := newTestComments(newFakeRemote())

	err := comments.CreateComment(context.Background(), "hi", domain.Post{Id: "p1"})
	if err != ErrNotAuthenticated {
		t.Errorf("Expected ErrNotAuthenticated, got %v", err)
	}
}

func TestCommentCachePersists(t *testing.T) {
	remote := newFakeRemote()
	storage := newMemStorage()
	session := NewSessionManager(remote, storage)
	comments := NewCommentStore(remote, session, storage)
	post := domain.Post{Id: "p1"}

	remote.comments["p1"] = []domain.Comment{{Id: "c-1", Text: "kept"}}
	comments.FetchForPost(context.Background(), post)

	restored := NewCommentStore(remote, session, storage)
	restored.LoadPersisted()
	got := restored.Comments(post)
	if len(got) != 1 || got[0].Id != "c-1" {
		t.Errorf("Expected persisted cache to restore, got %v", got)
	}
}
