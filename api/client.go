package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/reveriehq/reverie/domain"
)

const defaultServerURL = "http://localhost:5000"

// Client talks to the reverie REST service. The zero token means requests go
// out unauthenticated, which keeps login and signup reachable after logout.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a service client. If baseURL is empty, it defaults to
// the local mock server address.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultServerURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken attaches the bearer token to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token. Requests continue unauthenticated.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// CreateSession exchanges credentials for a token and the user record.
func (c *Client) CreateSession(ctx context.Context, username, password string) (string, *domain.User, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var resp struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", body, &resp); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	return resp.Token, &resp.User, nil
}

// CreateAccount registers a new user. Fullname may be empty.
func (c *Client) CreateAccount(ctx context.Context, username, password, fullname string) (*domain.User, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	if fullname != "" {
		body["fullname"] = fullname
	}

	var user domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", body, &user); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &user, nil
}

// FetchUser retrieves a user record by username.
func (c *Client) FetchUser(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(username), nil, &user); err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return &user, nil
}

// UpdateUser changes the profile fields of the authenticated user.
func (c *Client) UpdateUser(ctx context.Context, username, fullname, email string) (*domain.User, error) {
	body := map[string]string{}
	if fullname != "" {
		body["fullname"] = fullname
	}
	if email != "" {
		body["email"] = email
	}

	var user domain.User
	if err := c.doJSON(ctx, http.MethodPut, "/users/"+url.PathEscape(username), body, &user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}

// FetchPosts retrieves one page of the feed. The server decides ordering
// (reverse-chronological); the caller must preserve response order.
func (c *Client) FetchPosts(ctx context.Context, page, pageSize int) ([]domain.Post, error) {
	path := fmt.Sprintf("/posts?page=%d&pageSize=%d", page, pageSize)
	var posts []domain.Post
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	return posts, nil
}

// FetchPost retrieves a single post by id.
func (c *Client) FetchPost(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := c.doJSON(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, fmt.Errorf("fetch post: %w", err)
	}
	return &post, nil
}

// CreatePost uploads a reflection. A nil image omits the file part; the
// server substitutes a placeholder in mock mode.
func (c *Client) CreatePost(ctx context.Context, image []byte, filename, caption string) (*domain.Post, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if image != nil {
		if filename == "" {
			filename = "upload.jpg"
		}
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		if _, err := part.Write(image); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/posts", &buf)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var post domain.Post
	if err := c.send(req, &post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// DeletePost removes a post owned by the authenticated user.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// LikePost registers a like and returns the authoritative like count.
// Idempotent on the server side.
func (c *Client) LikePost(ctx context.Context, id string) (int, error) {
	var resp struct {
		Likes int `json:"likes"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(id)+"/like", nil, &resp); err != nil {
		return 0, fmt.Errorf("like post: %w", err)
	}
	return resp.Likes, nil
}

// UnlikePost removes a like and returns the authoritative like count.
func (c *Client) UnlikePost(ctx context.Context, id string) (int, error) {
	var resp struct {
		Likes int `json:"likes"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id)+"/like", nil, &resp); err != nil {
		return 0, fmt.Errorf("unlike post: %w", err)
	}
	return resp.Likes, nil
}

// FetchComments retrieves the full comment list for a post, oldest first.
func (c *Client) FetchComments(ctx context.Context, postId string) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.doJSON(ctx, http.MethodGet, "/posts/"+url.PathEscape(postId)+"/comments", nil, &comments); err != nil {
		return nil, fmt.Errorf("fetch comments: %w", err)
	}
	return comments, nil
}

// CreateComment posts a comment. The server assigns id and timestamp; the
// caller re-fetches the list to pick them up.
func (c *Client) CreateComment(ctx context.Context, postId, text string) error {
	form := url.Values{}
	form.Set("operation", "create")
	form.Set("postid", postId)
	form.Set("text", text)
	if err := c.doForm(ctx, "/comments", form); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// DeleteComment removes a comment owned by the authenticated user.
func (c *Client) DeleteComment(ctx context.Context, commentId string) error {
	form := url.Values{}
	form.Set("operation", "delete")
	form.Set("commentid", commentId)
	if err := c.doForm(ctx, "/comments", form); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// FollowUser subscribes the authenticated user to another user's posts.
func (c *Client) FollowUser(ctx context.Context, username string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/users/"+url.PathEscape(username)+"/follow", nil, nil); err != nil {
		return fmt.Errorf("follow user: %w", err)
	}
	return nil
}

// UnfollowUser removes a follow relationship.
func (c *Client) UnfollowUser(ctx context.Context, username string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(username)+"/follow", nil, nil); err != nil {
		return fmt.Errorf("unfollow user: %w", err)
	}
	return nil
}

// Followers lists the users following the given user.
func (c *Client) Followers(ctx context.Context, username string) ([]domain.User, error) {
	var users []domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(username)+"/followers", nil, &users); err != nil {
		return nil, fmt.Errorf("fetch followers: %w", err)
	}
	return users, nil
}

// Following lists the users the given user follows.
func (c *Client) Following(ctx context.Context, username string) ([]domain.User, error) {
	var users []domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(username)+"/following", nil, &users); err != nil {
		return nil, fmt.Errorf("fetch following: %w", err)
	}
	return users, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, result)
}

func (c *Client) doForm(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader([]byte(form.Encode())))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.send(req, nil)
}

func (c *Client) send(req *http.Request, result any) error {
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
