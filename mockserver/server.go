package mockserver

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/reveriehq/reverie/db"
	"github.com/reveriehq/reverie/domain"
	"github.com/reveriehq/reverie/util"
)

// placeholderFilename is served when a reflection or avatar was created
// without an upload.
const placeholderFilename = "default.jpg"

// placeholderJPEG is a minimal valid JPEG used for absent uploads.
var placeholderJPEG = []byte{
	0xff, 0xd8, 0xff, 0xdb, 0x00, 0x43, 0x00, 0x03, 0x02, 0x02, 0x02, 0x02,
	0x02, 0x03, 0x02, 0x02, 0x02, 0x03, 0x03, 0x03, 0x03, 0x04, 0x06, 0x04,
	0x04, 0x04, 0x04, 0x04, 0x08, 0x06, 0x06, 0x05, 0x06, 0x09, 0x08, 0x0a,
	0x0a, 0x09, 0x08, 0x09, 0x09, 0x0a, 0x0c, 0x0f, 0x0c, 0x0a, 0x0b, 0x0e,
	0x0b, 0x09, 0x09, 0x0d, 0x11, 0x0d, 0x0e, 0x0f, 0x10, 0x10, 0x11, 0x10,
	0x0a, 0x0c, 0x12, 0x13, 0x12, 0x10, 0x13, 0x0f, 0x10, 0x10, 0x10, 0xff,
	0xc9, 0x00, 0x0b, 0x08, 0x00, 0x01, 0x00, 0x01, 0x01, 0x01, 0x11, 0x00,
	0xff, 0xcc, 0x00, 0x06, 0x00, 0x10, 0x10, 0x05, 0xff, 0xda, 0x00, 0x08,
	0x01, 0x01, 0x00, 0x00, 0x3f, 0x00, 0xd2, 0xcf, 0x20, 0xff, 0xd9,
}

// Server is a self-contained implementation of the reverie REST contract,
// backed by the shared local database. It exists so the client can run
// offline and so integration tests have a real HTTP surface.
type Server struct {
	store   *mockStore
	baseURL string
}

// NewServer prepares the mock schema inside the given database. baseURL is
// used to build absolute image URLs in responses.
func NewServer(database *db.DB, baseURL string) (*Server, error) {
	store, err := newMockStore(database)
	if err != nil {
		return nil, err
	}
	return &Server{store: store, baseURL: baseURL}, nil
}

// Router builds the gin engine with all service routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	g.POST("/sessions", s.handleCreateSession)
	g.POST("/users", s.handleCreateUser)
	g.GET("/users/:username", s.handleGetUser)
	g.PUT("/users/:username", s.handleUpdateUser)
	g.POST("/users/:username/follow", s.handleFollow)
	g.DELETE("/users/:username/follow", s.handleUnfollow)
	g.GET("/users/:username/followers", s.handleFollowers)
	g.GET("/users/:username/following", s.handleFollowing)

	g.GET("/posts", s.handleListPosts)
	g.POST("/posts", s.handleCreatePost)
	g.GET("/posts/:id", s.handleGetPost)
	g.DELETE("/posts/:id", s.handleDeletePost)
	g.POST("/posts/:id/like", s.handleLike)
	g.DELETE("/posts/:id/like", s.handleUnlike)
	g.GET("/posts/:id/comments", s.handleListComments)
	g.POST("/comments", s.handleComments)

	g.GET("/uploads/:filename", s.handleUpload)

	return g
}

// Run starts the mock service on addr. Blocks until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("Starting mock service on %s", addr)
	return s.Router().Run(addr)
}

func (s *Server) authUsername(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return s.store.usernameForToken(strings.TrimPrefix(auth, "Bearer "))
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password required"})
		return
	}

	user, err := s.store.readUser(body.Username)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)) != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "invalid credentials"})
		return
	}

	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := s.store.createSession(token, user.Username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create session"})
		return
	}

	log.Printf("session created: username=%s", user.Username)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user.toDomainUser(s.baseURL)})
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password required"})
		return
	}

	if _, err := s.store.readUser(body.Username); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username_conflict"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not hash password"})
		return
	}

	fullname := body.Fullname
	if fullname == "" {
		fullname = body.Username
	}
	email := body.Email
	if email == "" {
		email = body.Username + "@example.com"
	}

	user := mockUser{
		Username: body.Username,
		Fullname: fullname,
		Email:    email,
		Filename: placeholderFilename,
		Password: string(hash),
	}
	if err := s.store.createUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create user"})
		return
	}

	log.Printf("user created: username=%s", body.Username)
	c.JSON(http.StatusCreated, user.toDomainUser(s.baseURL))
}

func (s *Server) handleGetUser(c *gin.Context) {
	user, err := s.store.readUser(c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user.toDomainUser(s.baseURL))
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	current := s.authUsername(c)
	if current == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "authentication required"})
		return
	}
	username := c.Param("username")
	if username != current {
		c.JSON(http.StatusForbidden, gin.H{"message": "cannot update another user"})
		return
	}

	var body struct {
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}

	if err := s.store.updateUser(username, body.Fullname, body.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not update user"})
		return
	}

	user, err := s.store.readUser(username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user.toDomainUser(s.baseURL))
}

func (s *Server) handleListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if pageSize <= 0 {
		pageSize = 10
	}

	rows, err := s.store.readPosts(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not read posts"})
		return
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, s.toDomainPost(row))
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) handleCreatePost(c *gin.Context) {
	username := s.authUsername(c)
	if username == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "authentication required"})
		return
	}

	caption := util.NormalizeInput(c.PostForm("caption"))

	filename := placeholderFilename
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "unreadable upload"})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "unreadable upload"})
			return
		}

		suffix := ".jpg"
		if i := strings.LastIndex(file.Filename, "."); i >= 0 {
			suffix = strings.ToLower(file.Filename[i:])
		}
		filename = strings.ReplaceAll(uuid.New().String(), "-", "") + suffix
		if err := s.store.saveUpload(filename, data); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not store upload"})
			return
		}
	}

	postId, err := s.store.createPost(filename, username, caption)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create post"})
		return
	}

	row, err := s.store.readPost(strconv.FormatInt(postId, 10))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not read post"})
		return
	}
	log.Printf("post created: postId=%d owner=%s", postId, username)
	c.JSON(http.StatusOK, s.toDomainPost(*row))
}

func (s *Server) handleGetPost(c *gin.Context) {
	row, err := s.store.readPost(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "post not found"})
		return
	}
	c.JSON(http.StatusOK, s.toDomainPost(*row))
}

func (s *Server) handleDeletePost(c *gin.Context) {
	username := s.authUsername(c)
	if username == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "authentication required"})
		return
	}

	row, err := s.store.readPost(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "post not found"})
		return
	}
	if row.Owner != username {
		c.JSON(http.StatusForbidden, gin.H{"message": "cannot delete another user's post"})
		return
	}

	if err := s.store.deletePost(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not delete post"})
		return
	}
	log.Printf("post deleted: postId=%s owner=%s", c.Param("id"), username)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLike(c *gin.Context) {
	username := s.authUsername(c)
	if username == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "authentication required"})
		return
	}

	postId := c.Param("id")
	if err := s.store.like(username, postId); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not like post"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": s.store.likeCount(postId)})
}

func (s *Server) handleUnlike(c *gin.Context) {
	username := s.authUsername(c)
	if username == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "authentication required"})
		return
	}

	postId := c.Param("id")
	if err := s.store.unlike(username, postId); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not unlike post"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": s.store.likeCount(postId)})
}

func (s *Server) handleListComments(c *gin.Context) {
	rows, err := s.store.readComments(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not read comments"})
		return
	}

	comments := make([]domain.Comment, 0, len(rows))
	for _, row := range rows {
		author := domain.User{Id: row.Owner, Username: row.Owner}
		if u, err := s.store.readUser(row.Owner); err == nil {
			author = u.toDomainUser(s.baseURL)
		}
		comments = append(comments, domain.Comment{
			Id:        strconv.FormatInt(row.CommentId, 10),
			PostId:    strconv.FormatInt(row.PostId, 10),
			Author:    author,
			Text:      row.Text,
			CreatedAt: row.Created,
		})
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) handleComments(c *gin.Context) {
	username := s.authUsername(c)
	if username == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "authentication required"})
		return
	}

	switch c.PostForm("operation") {
	case "create":
		text := strings.TrimSpace(c.PostForm("text"))
		postId := c.PostForm("postid")
		if text == "" || postId == "" || !domain.ValidCommentText(text) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "text and postid required"})
			return
		}
		if err := s.store.createComment(username, postId, text); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create comment"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})

	case "delete":
		commentId := c.PostForm("commentid")
		if commentId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "commentid required"})
			return
		}
		if s.store.commentOwner(commentId) != username {
			c.JSON(http.StatusForbidden, gin.H{"message": "cannot delete another user's comment"})
			return
		}
		if err := s.store.deleteComment(commentId); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not delete comment"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown operation"})
	}
}

func (s *Server) handleFollow(c *gin.Context) {
	current := s.authUsername(c)
	if current == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "authentication required"})
		return
	}
	target := c.Param("username")
	if target == current {
		c.JSON(http.StatusBadRequest, gin.H{"message": "cannot follow yourself"})
		return
	}
	if _, err := s.store.readUser(target); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	if err := s.store.follow(current, target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not follow"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleUnfollow(c *gin.Context) {
	current := s.authUsername(c)
	if current == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "authentication required"})
		return
	}
	if err := s.store.unfollow(current, c.Param("username")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not unfollow"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleFollowers(c *gin.Context) {
	s.handleUserList(c, s.store.followers)
}

func (s *Server) handleFollowing(c *gin.Context) {
	s.handleUserList(c, s.store.following)
}

func (s *Server) handleUserList(c *gin.Context, read func(string) ([]mockUser, error)) {
	username := c.Param("username")
	if _, err := s.store.readUser(username); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	rows, err := read(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not read users"})
		return
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomainUser(s.baseURL))
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.authUsername(c) == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "authentication required"})
		return
	}

	filename := c.Param("filename")
	if filename == placeholderFilename {
		c.Data(http.StatusOK, "image/jpeg", placeholderJPEG)
		return
	}
	data, err := s.store.readUpload(filename)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not read file"})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

func (s *Server) toDomainPost(row mockPost) domain.Post {
	author := domain.User{Id: row.Owner, Username: row.Owner}
	if u, err := s.store.readUser(row.Owner); err == nil {
		author = u.toDomainUser(s.baseURL)
	}
	created := row.Created
	return domain.Post{
		Id:        strconv.FormatInt(row.PostId, 10),
		Author:    author,
		ImageURL:  fmt.Sprintf("%s/uploads/%s", strings.TrimRight(s.baseURL, "/"), row.Filename),
		Caption:   row.Caption,
		Likes:     s.store.likeCount(strconv.FormatInt(row.PostId, 10)),
		CreatedAt: &created,
	}
}
