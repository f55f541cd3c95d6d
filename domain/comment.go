package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxCommentLen is the longest comment text the service accepts.
const MaxCommentLen = 1024

// Comment belongs to a post. Comments created while the server was
// unreachable carry a client-generated id and live only in the local cache.
type Comment struct {
	Id        string    `json:"id"`
	PostId    string    `json:"postId,omitempty"`
	Author    User      `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Comment) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tAuthor: %s \n\tText: %s \n\tCreatedAt: %s)", c.Id, c.Author.Username, c.Text, c.CreatedAt)
}

// ValidCommentText reports whether text is non-empty and within the length cap.
func ValidCommentText(text string) bool {
	n := utf8.RuneCountInString(text)
	return n > 0 && n <= MaxCommentLen
}
