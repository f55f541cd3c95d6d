package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/reveriehq/reverie/domain"
)

const (
	likesNamespace = "likes"
	likedKey       = "liked"
)

// LikeStore gives the UI a same-frame answer to a like tap while the network
// round trip is outstanding. The liked set tracks locally intended state,
// independent of the server-confirmed counter on the post; the two are
// combined only for display through DisplayCount. The pending set is
// informational for display, not a mutex: overlapping toggles on the same
// post are tolerated because like/unlike are set-membership operations on
// the server.
type LikeStore struct {
	mu      sync.Mutex
	remote  RemoteService
	feed    *FeedStore
	session *SessionManager
	storage Storage

	liked   map[string]struct{}
	pending map[string]struct{}
}

func NewLikeStore(remote RemoteService, feed *FeedStore, session *SessionManager, storage Storage) *LikeStore {
	return &LikeStore{
		remote:  remote,
		feed:    feed,
		session: session,
		storage: storage,
		liked:   make(map[string]struct{}),
		pending: make(map[string]struct{}),
	}
}

// LoadPersisted restores the liked-id set from durable storage, so intent
// recorded before a crash or restart is not lost.
func (ls *LikeStore) LoadPersisted() {
	var ids []string
	found, err := ls.storage.GetJSON(likesNamespace, likedKey, &ids)
	if err != nil {
		log.Printf("Could not read persisted likes: %v", err)
		return
	}
	if !found {
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.liked = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		ls.liked[id] = struct{}{}
	}
}

// IsLiked reports the locally intended like state for the post.
func (ls *LikeStore) IsLiked(post domain.Post) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	_, ok := ls.liked[post.Id]
	return ok
}

// IsPending reports whether a like/unlike call is in flight for the post.
func (ls *LikeStore) IsPending(post domain.Post) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	_, ok := ls.pending[post.Id]
	return ok
}

// Toggle flips the liked membership and persists the updated set right away,
// before any server confirmation.
func (ls *LikeStore) Toggle(post domain.Post) {
	ls.mu.Lock()
	if _, ok := ls.liked[post.Id]; ok {
		delete(ls.liked, post.Id)
	} else {
		ls.liked[post.Id] = struct{}{}
	}
	ids := ls.likedIdsLocked()
	ls.mu.Unlock()

	if err := ls.storage.PutJSON(likesNamespace, likedKey, ids); err != nil {
		log.Printf("Could not persist likes: %v", err)
	}
}

// MarkPending brackets the start of an in-flight like mutation.
func (ls *LikeStore) MarkPending(postId string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.pending[postId] = struct{}{}
}

// ClearPending brackets the end of an in-flight like mutation.
func (ls *LikeStore) ClearPending(postId string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	delete(ls.pending, postId)
}

// DisplayCount is the like count the UI should render. While a mutation is
// pending the local intent is overlaid on the server-confirmed baseline;
// once pending clears, UpdateLikes has already reconciled the post and the
// raw counter is correct, avoiding a double count.
func (ls *LikeStore) DisplayCount(post domain.Post) int {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if _, pending := ls.pending[post.Id]; !pending {
		return post.Likes
	}
	if _, liked := ls.liked[post.Id]; liked {
		return post.Likes + 1
	}
	return post.Likes
}

// ToggleRemote runs the full optimistic mutation protocol: mark pending,
// flip local intent, issue the matching like/unlike call, then reconcile the
// server count into the feed on success or roll the flip back on failure. A
// failed mutation leaves both sets exactly as they were before the attempt.
// There is no retry; the error is returned for a non-blocking notice.
func (ls *LikeStore) ToggleRemote(ctx context.Context, post domain.Post) error {
	if !ls.session.IsValid() {
		return ErrNotAuthenticated
	}

	ls.MarkPending(post.Id)
	ls.Toggle(post)

	var count int
	var err error
	if ls.IsLiked(post) {
		count, err = ls.remote.LikePost(ctx, post.Id)
	} else {
		count, err = ls.remote.UnlikePost(ctx, post.Id)
	}

	if err != nil {
		// Rollback to the pre-call state
		ls.Toggle(post)
		ls.ClearPending(post.Id)
		log.Printf("Like toggle for %s failed, rolled back: %v", post.Id, err)
		return fmt.Errorf("toggle like: %w", err)
	}

	ls.ClearPending(post.Id)
	ls.feed.UpdateLikes(post.Id, count)
	return nil
}

// LikedIds returns the persisted-order list of liked post ids.
func (ls *LikeStore) LikedIds() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.likedIdsLocked()
}

func (ls *LikeStore) likedIdsLocked() []string {
	ids := make([]string, 0, len(ls.liked))
	for id := range ls.liked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
