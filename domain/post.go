package domain

import (
	"fmt"
	"time"
)

// Post is a single reflection: an image plus an optional caption. The Likes
// counter is server-authoritative and only changed through reconciliation,
// never by optimistic local logic.
type Post struct {
	Id        string     `json:"id"`
	Author    User       `json:"author"`
	ImageURL  string     `json:"imageURL"`
	Caption   string     `json:"caption,omitempty"`
	Likes     int        `json:"likes"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func (p *Post) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tAuthor: %s \n\tCaption: %s \n\tLikes: %d)", p.Id, p.Author.Username, p.Caption, p.Likes)
}
