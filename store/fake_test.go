package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/reveriehq/reverie/domain"
)

var errRemote = errors.New("remote unavailable")

// fakeRemote is an in-memory RemoteService for store tests. Individual
// operations can be switched to fail to exercise rollback paths.
type fakeRemote struct {
	mu    sync.Mutex
	token string

	pages      map[int][]domain.Post
	likeCounts map[string]int
	comments   map[string][]domain.Comment
	users      map[string]domain.User

	failFetchPosts    bool
	failFetchUser     bool
	failLike          bool
	failUnlike        bool
	failFetchComments bool
	failCreateComment bool
	failCreatePost    bool
	failDeletePost    bool
	failSession       bool

	likeCalls   int
	unlikeCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		pages:      make(map[int][]domain.Post),
		likeCounts: make(map[string]int),
		comments:   make(map[string][]domain.Comment),
		users:      make(map[string]domain.User),
	}
}

func (f *fakeRemote) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeRemote) ClearToken() {
	f.SetToken("")
}

func (f *fakeRemote) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeRemote) CreateSession(ctx context.Context, username, password string) (string, *domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSession {
		return "", nil, errRemote
	}
	user, ok := f.users[username]
	if !ok {
		return "", nil, errRemote
	}
	return "token-" + username, &user, nil
}

func (f *fakeRemote) CreateAccount(ctx context.Context, username, password, fullname string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := domain.User{Id: username, Username: username, DisplayName: fullname}
	f.users[username] = user
	return &user, nil
}

func (f *fakeRemote) FetchUser(ctx context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetchUser {
		return nil, errRemote
	}
	user, ok := f.users[username]
	if !ok {
		return nil, errRemote
	}
	return &user, nil
}

func (f *fakeRemote) FetchPosts(ctx context.Context, page, pageSize int) ([]domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetchPosts {
		return nil, errRemote
	}
	return f.pages[page], nil
}

func (f *fakeRemote) CreatePost(ctx context.Context, image []byte, filename, caption string) (*domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreatePost {
		return nil, errRemote
	}
	now := time.Now()
	return &domain.Post{
		Id:        fmt.Sprintf("created-%d", now.UnixNano()),
		Caption:   caption,
		ImageURL:  "http://example.com/uploads/created.jpg",
		CreatedAt: &now,
	}, nil
}

func (f *fakeRemote) DeletePost(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeletePost {
		return errRemote
	}
	return nil
}

func (f *fakeRemote) LikePost(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeCalls++
	if f.failLike {
		return 0, errRemote
	}
	f.likeCounts[id]++
	return f.likeCounts[id], nil
}

func (f *fakeRemote) UnlikePost(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlikeCalls++
	if f.failUnlike {
		return 0, errRemote
	}
	if f.likeCounts[id] > 0 {
		f.likeCounts[id]--
	}
	return f.likeCounts[id], nil
}

func (f *fakeRemote) FetchComments(ctx context.Context, postId string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetchComments {
		return nil, errRemote
	}
	return f.comments[postId], nil
}

func (f *fakeRemote) CreateComment(ctx context.Context, postId, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateComment {
		return errRemote
	}
	f.comments[postId] = append(f.comments[postId], domain.Comment{
		Id:        fmt.Sprintf("c-%d", len(f.comments[postId])+1),
		PostId:    postId,
		Text:      text,
		CreatedAt: time.Now(),
	})
	return nil
}

// memStorage is an in-memory Storage for store tests.
type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (m *memStorage) PutJSON(store, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[store+"/"+key] = buf
	return nil
}

func (m *memStorage) GetJSON(store, key string, v any) (bool, error) {
	m.mu.Lock()
	buf, ok := m.data[store+"/"+key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(buf, v)
}

func (m *memStorage) Delete(store, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, store+"/"+key)
	return nil
}

func makePosts(start, n int) []domain.Post {
	posts := make([]domain.Post, 0, n)
	for i := start; i < start+n; i++ {
		posts = append(posts, domain.Post{
			Id:       fmt.Sprintf("post-%d", i),
			Author:   domain.User{Id: "author", Username: "author"},
			ImageURL: fmt.Sprintf("http://example.com/uploads/%d.jpg", i),
			Likes:    0,
		})
	}
	return posts
}

// signIn puts the session into a validated state for tests that exercise
// authorization gating.
func signIn(remote *fakeRemote, session *SessionManager) {
	remote.CreateAccount(context.Background(), "tester", "pw", "Tester")
	session.SignIn(context.Background(), "tester", "pw")
}
