package store

import (
	"context"
	"errors"

	"github.com/reveriehq/reverie/domain"
)

// ErrNotAuthenticated is returned by operations that require a valid session.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrNotSynced marks a mutation that was applied locally but never reached
// the server. The UI should surface it as a non-blocking notice.
var ErrNotSynced = errors.New("not synced to server")

// RemoteService is the contract the stores require from the REST
// collaborator. api.Client is the production implementation; tests inject
// fakes.
type RemoteService interface {
	SetToken(token string)
	ClearToken()

	CreateSession(ctx context.Context, username, password string) (string, *domain.User, error)
	CreateAccount(ctx context.Context, username, password, fullname string) (*domain.User, error)
	FetchUser(ctx context.Context, username string) (*domain.User, error)

	FetchPosts(ctx context.Context, page, pageSize int) ([]domain.Post, error)
	CreatePost(ctx context.Context, image []byte, filename, caption string) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) error
	LikePost(ctx context.Context, id string) (int, error)
	UnlikePost(ctx context.Context, id string) (int, error)

	FetchComments(ctx context.Context, postId string) ([]domain.Comment, error)
	CreateComment(ctx context.Context, postId, text string) error
}

// Storage is the durable local key-value dependency. db.DB satisfies it.
type Storage interface {
	PutJSON(store, key string, v any) error
	GetJSON(store, key string, v any) (bool, error)
	Delete(store, key string) error
}
