package mockserver

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/reveriehq/reverie/db"
	"github.com/reveriehq/reverie/domain"
)

const (
	sqlCreateUsersTable = `CREATE TABLE IF NOT EXISTS mock_users(
                        username varchar(100) NOT NULL PRIMARY KEY,
                        fullname varchar(200),
                        email varchar(200),
                        filename varchar(200),
                        password varchar(200) NOT NULL
                        )`
	sqlCreateSessionsTable = `CREATE TABLE IF NOT EXISTS mock_sessions(
                        token varchar(100) NOT NULL PRIMARY KEY,
                        username varchar(100) NOT NULL
                        )`
	sqlCreatePostsTable = `CREATE TABLE IF NOT EXISTS mock_posts(
                        postid INTEGER PRIMARY KEY AUTOINCREMENT,
                        filename varchar(200) NOT NULL,
                        owner varchar(100) NOT NULL,
                        caption varchar(1000),
                        created timestamp default current_timestamp
                        )`
	sqlCreateLikesTable = `CREATE TABLE IF NOT EXISTS mock_likes(
                        owner varchar(100) NOT NULL,
                        postid INTEGER NOT NULL,
                        PRIMARY KEY (owner, postid)
                        )`
	sqlCreateCommentsTable = `CREATE TABLE IF NOT EXISTS mock_comments(
                        commentid INTEGER PRIMARY KEY AUTOINCREMENT,
                        owner varchar(100) NOT NULL,
                        postid INTEGER NOT NULL,
                        text varchar(1024) NOT NULL,
                        created timestamp default current_timestamp
                        )`
	sqlCreateFollowingTable = `CREATE TABLE IF NOT EXISTS mock_following(
                        follower varchar(100) NOT NULL,
                        followee varchar(100) NOT NULL,
                        created timestamp default current_timestamp,
                        PRIMARY KEY (follower, followee)
                        )`
	sqlCreateUploadsTable = `CREATE TABLE IF NOT EXISTS mock_uploads(
                        filename varchar(200) NOT NULL PRIMARY KEY,
                        data blob NOT NULL
                        )`
)

// mockStore owns the mock service's tables inside the shared local database.
// Tables are prefixed so they can never collide with the client's kv storage.
type mockStore struct {
	db *db.DB
}

func newMockStore(database *db.DB) (*mockStore, error) {
	s := &mockStore{db: database}
	err := database.WrapTransaction(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			sqlCreateUsersTable,
			sqlCreateSessionsTable,
			sqlCreatePostsTable,
			sqlCreateLikesTable,
			sqlCreateCommentsTable,
			sqlCreateFollowingTable,
			sqlCreateUploadsTable,
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create mock schema: %w", err)
	}
	return s, nil
}

type mockUser struct {
	Username string
	Fullname string
	Email    string
	Filename string
	Password string
}

func (s *mockStore) createUser(u mockUser) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO mock_users(username, fullname, email, filename, password) VALUES (?, ?, ?, ?, ?)`,
			u.Username, u.Fullname, u.Email, u.Filename, u.Password)
		return err
	})
}

func (s *mockStore) readUser(username string) (*mockUser, error) {
	row := s.db.Handle().QueryRow(`SELECT username, fullname, email, filename, password FROM mock_users WHERE username = ?`, username)
	var u mockUser
	err := row.Scan(&u.Username, &u.Fullname, &u.Email, &u.Filename, &u.Password)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *mockStore) updateUser(username, fullname, email string) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		if fullname != "" {
			if _, err := tx.Exec(`UPDATE mock_users SET fullname = ? WHERE username = ?`, fullname, username); err != nil {
				return err
			}
		}
		if email != "" {
			if _, err := tx.Exec(`UPDATE mock_users SET email = ? WHERE username = ?`, email, username); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *mockStore) createSession(token, username string) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO mock_sessions(token, username) VALUES (?, ?)`, token, username)
		return err
	})
}

func (s *mockStore) usernameForToken(token string) string {
	row := s.db.Handle().QueryRow(`SELECT username FROM mock_sessions WHERE token = ?`, token)
	var username string
	if err := row.Scan(&username); err != nil {
		return ""
	}
	return username
}

type mockPost struct {
	PostId   int64
	Filename string
	Owner    string
	Caption  string
	Created  time.Time
}

func (s *mockStore) createPost(filename, owner, caption string) (int64, error) {
	var postId int64
	err := s.db.WrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO mock_posts(filename, owner, caption, created) VALUES (?, ?, ?, ?)`,
			filename, owner, caption, time.Now().UTC())
		if err != nil {
			return err
		}
		postId, err = res.LastInsertId()
		return err
	})
	return postId, err
}

func (s *mockStore) readPost(postId string) (*mockPost, error) {
	row := s.db.Handle().QueryRow(`SELECT postid, filename, owner, caption, created FROM mock_posts WHERE postid = ?`, postId)
	var p mockPost
	err := row.Scan(&p.PostId, &p.Filename, &p.Owner, &p.Caption, &p.Created)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *mockStore) readPosts(page, pageSize int) ([]mockPost, error) {
	rows, err := s.db.Handle().Query(`SELECT postid, filename, owner, caption, created FROM mock_posts
                                                            ORDER BY created DESC, postid DESC LIMIT ? OFFSET ?`,
		pageSize, page*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []mockPost
	for rows.Next() {
		var p mockPost
		if err := rows.Scan(&p.PostId, &p.Filename, &p.Owner, &p.Caption, &p.Created); err != nil {
			return posts, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *mockStore) deletePost(postId string) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM mock_posts WHERE postid = ?`, postId); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM mock_likes WHERE postid = ?`, postId); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM mock_comments WHERE postid = ?`, postId)
		return err
	})
}

func (s *mockStore) likeCount(postId string) int {
	row := s.db.Handle().QueryRow(`SELECT COUNT(*) FROM mock_likes WHERE postid = ?`, postId)
	var count int
	row.Scan(&count)
	return count
}

func (s *mockStore) like(owner, postId string) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO mock_likes(owner, postid) VALUES (?, ?) ON CONFLICT DO NOTHING`, owner, postId)
		return err
	})
}

func (s *mockStore) unlike(owner, postId string) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM mock_likes WHERE owner = ? AND postid = ?`, owner, postId)
		return err
	})
}

type mockComment struct {
	CommentId int64
	Owner     string
	PostId    int64
	Text      string
	Created   time.Time
}

func (s *mockStore) createComment(owner, postId, text string) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO mock_comments(owner, postid, text, created) VALUES (?, ?, ?, ?)`,
			owner, postId, text, time.Now().UTC())
		return err
	})
}

func (s *mockStore) readComments(postId string) ([]mockComment, error) {
	rows, err := s.db.Handle().Query(`SELECT commentid, owner, postid, text, created FROM mock_comments
                                                            WHERE postid = ? ORDER BY created ASC, commentid ASC`, postId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []mockComment
	for rows.Next() {
		var c mockComment
		if err := rows.Scan(&c.CommentId, &c.Owner, &c.PostId, &c.Text, &c.Created); err != nil {
			return comments, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *mockStore) commentOwner(commentId string) string {
	row := s.db.Handle().QueryRow(`SELECT owner FROM mock_comments WHERE commentid = ?`, commentId)
	var owner string
	if err := row.Scan(&owner); err != nil {
		return ""
	}
	return owner
}

func (s *mockStore) deleteComment(commentId string) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM mock_comments WHERE commentid = ?`, commentId)
		return err
	})
}

func (s *mockStore) follow(follower, followee string) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO mock_following(follower, followee, created) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			follower, followee, time.Now().UTC())
		return err
	})
}

func (s *mockStore) unfollow(follower, followee string) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM mock_following WHERE follower = ? AND followee = ?`, follower, followee)
		return err
	})
}

func (s *mockStore) followers(username string) ([]mockUser, error) {
	return s.queryUsers(`SELECT u.username, u.fullname, u.email, u.filename, u.password FROM mock_following f
                                                            INNER JOIN mock_users u ON u.username = f.follower
                                                            WHERE f.followee = ? ORDER BY f.created DESC`, username)
}

func (s *mockStore) following(username string) ([]mockUser, error) {
	return s.queryUsers(`SELECT u.username, u.fullname, u.email, u.filename, u.password FROM mock_following f
                                                            INNER JOIN mock_users u ON u.username = f.followee
                                                            WHERE f.follower = ? ORDER BY f.created DESC`, username)
}

func (s *mockStore) queryUsers(query string, args ...any) ([]mockUser, error) {
	rows, err := s.db.Handle().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []mockUser
	for rows.Next() {
		var u mockUser
		if err := rows.Scan(&u.Username, &u.Fullname, &u.Email, &u.Filename, &u.Password); err != nil {
			return users, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *mockStore) saveUpload(filename string, data []byte) error {
	return s.db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO mock_uploads(filename, data) VALUES (?, ?)
                        ON CONFLICT(filename) DO UPDATE SET data = excluded.data`, filename, data)
		return err
	})
}

func (s *mockStore) readUpload(filename string) ([]byte, error) {
	row := s.db.Handle().QueryRow(`SELECT data FROM mock_uploads WHERE filename = ?`, filename)
	var data []byte
	if err := row.Scan(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// toDomainUser converts a row into the wire shape. The user id is the
// username, matching the service contract.
func (u *mockUser) toDomainUser(baseURL string) domain.User {
	filename := u.Filename
	if filename == "" {
		filename = placeholderFilename
	}
	return domain.User{
		Id:          u.Username,
		Username:    u.Username,
		DisplayName: u.Fullname,
		AvatarURL:   strings.TrimRight(baseURL, "/") + "/uploads/" + filename,
	}
}
