package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reveriehq/reverie/domain"
)

const (
	commentsNamespace = "comments"
	commentsCacheKey  = "cache"
)

// CommentStore caches comments per post and provides best-effort creation.
// A post's cache is either pristine from the server or the server list plus
// a local-only appendix from failed creates. A later successful fetch
// replaces the whole list, which silently drops the unsynced appendix.
type CommentStore struct {
	mu      sync.Mutex
	remote  RemoteService
	session *SessionManager
	storage Storage

	cache map[string][]domain.Comment
}

func NewCommentStore(remote RemoteService, session *SessionManager, storage Storage) *CommentStore {
	return &CommentStore{
		remote:  remote,
		session: session,
		storage: storage,
		cache:   make(map[string][]domain.Comment),
	}
}

// LoadPersisted restores the comment cache from durable storage.
func (cs *CommentStore) LoadPersisted() {
	var cache map[string][]domain.Comment
	found, err := cs.storage.GetJSON(commentsNamespace, commentsCacheKey, &cache)
	if err != nil {
		log.Printf("Could not read persisted comments: %v", err)
		return
	}
	if !found || cache == nil {
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.cache = cache
}

// Comments returns the cached list for the post, or an empty slice if the
// post was never fetched.
func (cs *CommentStore) Comments(post domain.Post) []domain.Comment {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cached := cs.cache[post.Id]
	out := make([]domain.Comment, len(cached))
	copy(out, cached)
	return out
}

// FetchForPost replaces the cached list for the post with the server's. On
// failure the existing cache is left untouched and the UI keeps showing the
// last-known list.
func (cs *CommentStore) FetchForPost(ctx context.Context, post domain.Post) error {
	comments, err := cs.remote.FetchComments(ctx, post.Id)
	if err != nil {
		log.Printf("Could not fetch comments for %s: %v", post.Id, err)
		return err
	}

	cs.mu.Lock()
	if comments == nil {
		comments = []domain.Comment{}
	}
	cs.cache[post.Id] = comments
	cs.mu.Unlock()

	cs.persist()
	return nil
}

// CreateComment attempts a server create. On success the authoritative list
// is re-fetched (picking up the server-assigned id and timestamp) and nil is
// returned. On failure a locally synthesized comment is appended to the
// cache and the returned error wraps ErrNotSynced, so the caller can show a
// non-blocking notice for the visible-but-not-durable result.
func (cs *CommentStore) CreateComment(ctx context.Context, text string, post domain.Post) error {
	if !domain.ValidCommentText(text) {
		return fmt.Errorf("comment text must be 1-%d characters", domain.MaxCommentLen)
	}
	if !cs.session.IsValid() {
		return ErrNotAuthenticated
	}

	err := cs.remote.CreateComment(ctx, post.Id, text)
	if err == nil {
		// Refetch failure is tolerable here; the create itself succeeded
		// and the cache stays consistent with the last-known state.
		if ferr := cs.FetchForPost(ctx, post); ferr != nil {
			log.Printf("Comment created but refetch failed for %s: %v", post.Id, ferr)
		}
		return nil
	}

	author := cs.session.CurrentUser()
	if author == nil {
		author = &domain.User{}
	}
	local := domain.Comment{
		Id:        "local-" + uuid.New().String(),
		PostId:    post.Id,
		Author:    *author,
		Text:      text,
		CreatedAt: time.Now(),
	}

	cs.mu.Lock()
	cs.cache[post.Id] = append(cs.cache[post.Id], local)
	cs.mu.Unlock()

	cs.persist()
	log.Printf("Comment for %s kept locally only: %v", post.Id, err)
	return fmt.Errorf("%w: %v", ErrNotSynced, err)
}

func (cs *CommentStore) persist() {
	cs.mu.Lock()
	snapshot := make(map[string][]domain.Comment, len(cs.cache))
	for k, v := range cs.cache {
		snapshot[k] = v
	}
	cs.mu.Unlock()

	if err := cs.storage.PutJSON(commentsNamespace, commentsCacheKey, snapshot); err != nil {
		log.Printf("Could not persist comments: %v", err)
	}
}
