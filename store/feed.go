package store

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/reveriehq/reverie/domain"
)

// DefaultPageSize is the fixed page size requested from the service.
const DefaultPageSize = 10

// FeedStore maintains the single ordered, duplicate-free view of posts for
// the main feed and per-author filtering. Ordering is insertion order as
// established by fetch-append and prepend; the store never re-sorts, so the
// server's response order is authoritative.
type FeedStore struct {
	mu      sync.Mutex
	remote  RemoteService
	session *SessionManager

	posts    []domain.Post
	page     int
	pageSize int
	loading  bool
}

func NewFeedStore(remote RemoteService, session *SessionManager, pageSize int) *FeedStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &FeedStore{
		remote:   remote,
		session:  session,
		pageSize: pageSize,
	}
}

// LoadInitial populates the feed from page zero. A populated feed is a no-op
// unless force is set, in which case the cursor resets and the collection is
// cleared before refetching.
func (fs *FeedStore) LoadInitial(ctx context.Context, force bool) error {
	fs.mu.Lock()
	if len(fs.posts) > 0 && !force {
		fs.mu.Unlock()
		return nil
	}
	fs.page = 0
	fs.posts = nil
	fs.mu.Unlock()

	return fs.FetchNext(ctx)
}

// FetchNext requests the next page and appends the posts whose ids are not
// already present. Re-entrant calls while a fetch is outstanding are ignored,
// not queued. The cursor advances on any response, including an empty one, so
// an exhausted feed stops retrying the same page; a failed request leaves the
// cursor untouched.
func (fs *FeedStore) FetchNext(ctx context.Context) error {
	fs.mu.Lock()
	if fs.loading {
		fs.mu.Unlock()
		return nil
	}
	fs.loading = true
	page := fs.page
	pageSize := fs.pageSize
	fs.mu.Unlock()

	posts, err := fs.remote.FetchPosts(ctx, page, pageSize)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.loading = false

	if err != nil {
		log.Printf("Could not fetch posts page %d: %v", page, err)
		return err
	}

	for _, post := range posts {
		if fs.indexOfLocked(post.Id) >= 0 {
			continue
		}
		fs.posts = append(fs.posts, post)
	}
	fs.page++
	return nil
}

// Prepend inserts the post at index 0, removing any existing entry with the
// same id first. Used right after a successful server-side create so the UI
// sees the new post before the next fetch cycle.
func (fs *FeedStore) Prepend(post domain.Post) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if i := fs.indexOfLocked(post.Id); i >= 0 {
		fs.posts = append(fs.posts[:i], fs.posts[i+1:]...)
	}
	fs.posts = append([]domain.Post{post}, fs.posts...)
}

// UpdateLikes replaces only the like count of the matching post. Absent ids
// are a no-op; the post may already have been removed.
func (fs *FeedStore) UpdateLikes(postId string, count int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if i := fs.indexOfLocked(postId); i >= 0 {
		fs.posts[i].Likes = count
	}
}

// RemovePost removes the entry if present. Idempotent.
func (fs *FeedStore) RemovePost(postId string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if i := fs.indexOfLocked(postId); i >= 0 {
		fs.posts = append(fs.posts[:i], fs.posts[i+1:]...)
	}
}

// Posts returns a copy of the current collection in feed order.
func (fs *FeedStore) Posts() []domain.Post {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	out := make([]domain.Post, len(fs.posts))
	copy(out, fs.posts)
	return out
}

// Post returns the post with the given id, or false if absent.
func (fs *FeedStore) Post(postId string) (domain.Post, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if i := fs.indexOfLocked(postId); i >= 0 {
		return fs.posts[i], true
	}
	return domain.Post{}, false
}

// PostsByAuthor filters the current collection by author. Recomputed on each
// read; feed sizes are client-bounded by pagination so no separate cache is
// kept.
func (fs *FeedStore) PostsByAuthor(user domain.User) []domain.Post {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var out []domain.Post
	for _, post := range fs.posts {
		if post.Author.Id == user.Id {
			out = append(out, post)
		}
	}
	return out
}

// IsLoading reports whether a page fetch is outstanding.
func (fs *FeedStore) IsLoading() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.loading
}

// Page returns the current pagination cursor.
func (fs *FeedStore) Page() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.page
}

// Len returns the number of posts currently held.
func (fs *FeedStore) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.posts)
}

// CreateAndPrepend uploads a new reflection and prepends the created post.
func (fs *FeedStore) CreateAndPrepend(ctx context.Context, image []byte, filename, caption string) (*domain.Post, error) {
	if !fs.session.IsValid() {
		return nil, ErrNotAuthenticated
	}

	post, err := fs.remote.CreatePost(ctx, image, filename, caption)
	if err != nil {
		return nil, fmt.Errorf("create reflection: %w", err)
	}
	fs.Prepend(*post)
	return post, nil
}

// DeleteRemote deletes the post on the server and removes it locally only
// after the delete succeeded.
func (fs *FeedStore) DeleteRemote(ctx context.Context, postId string) error {
	if !fs.session.IsValid() {
		return ErrNotAuthenticated
	}

	if err := fs.remote.DeletePost(ctx, postId); err != nil {
		return fmt.Errorf("delete reflection: %w", err)
	}
	fs.RemovePost(postId)
	return nil
}

func (fs *FeedStore) indexOfLocked(postId string) int {
	for i := range fs.posts {
		if fs.posts[i].Id == postId {
			return i
		}
	}
	return -1
}
