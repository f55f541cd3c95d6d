package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUserName(t *testing.T) {
	u := User{Id: "alice", Username: "alice", DisplayName: "Alice A."}
	if u.Name() != "Alice A." {
		t.Errorf("Expected display name, got %q", u.Name())
	}

	u.DisplayName = ""
	if u.Name() != "alice" {
		t.Errorf("Expected username fallback, got %q", u.Name())
	}
}

func TestPostWireShape(t *testing.T) {
	raw := `{"id":"7","author":{"id":"bob","username":"bob","displayName":"Bob","avatarURL":"http://x/u/bob.jpg"},"imageURL":"http://x/7.jpg","caption":"dusk","likes":4}`

	var post Post
	if err := json.Unmarshal([]byte(raw), &post); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if post.Id != "7" {
		t.Errorf("Expected id 7, got %s", post.Id)
	}
	if post.Author.Username != "bob" {
		t.Errorf("Expected author bob, got %s", post.Author.Username)
	}
	if post.Likes != 4 {
		t.Errorf("Expected 4 likes, got %d", post.Likes)
	}
	if post.CreatedAt != nil {
		t.Error("List responses omit createdAt; expected nil")
	}
}

func TestCommentWireShape(t *testing.T) {
	raw := `{"id":"3","author":{"id":"bob","username":"bob"},"text":"nice","createdAt":"2025-06-01T10:00:00+00:00"}`

	var comment Comment
	if err := json.Unmarshal([]byte(raw), &comment); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if comment.Text != "nice" {
		t.Errorf("Expected text nice, got %s", comment.Text)
	}
	if comment.CreatedAt.IsZero() {
		t.Error("Expected createdAt to parse")
	}
}

func TestValidCommentText(t *testing.T) {
	if ValidCommentText("") {
		t.Error("Empty text should be invalid")
	}
	if !ValidCommentText("hello") {
		t.Error("Short text should be valid")
	}
	if !ValidCommentText(strings.Repeat("x", MaxCommentLen)) {
		t.Error("Text at the cap should be valid")
	}
	if ValidCommentText(strings.Repeat("x", MaxCommentLen+1)) {
		t.Error("Text over the cap should be invalid")
	}
	// Length cap counts runes, not bytes
	if !ValidCommentText(strings.Repeat("ü", MaxCommentLen)) {
		t.Error("Multibyte text at the cap should be valid")
	}
}

func TestSessionHasToken(t *testing.T) {
	s := Session{}
	if s.HasToken() {
		t.Error("Empty session should not have a token")
	}
	s.Token = "tok"
	if !s.HasToken() {
		t.Error("Expected token to be reported")
	}
}

func TestSessionValidityNotSerialized(t *testing.T) {
	s := Session{Token: "tok", UserId: "alice", IsValid: true}
	buf, err := json.Marshal(&s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var restored Session
	if err := json.Unmarshal(buf, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if restored.IsValid {
		t.Error("IsValid must never round-trip through persistence")
	}
	if restored.Token != "tok" {
		t.Errorf("Expected token to round-trip, got %q", restored.Token)
	}
}

func TestToStringHelpers(t *testing.T) {
	u := User{Id: "alice", Username: "alice"}
	if !strings.Contains(u.ToString(), "alice") {
		t.Error("User.ToString should contain the username")
	}

	p := Post{Id: "p1", Author: u, Caption: "cap", Likes: 2}
	if !strings.Contains(p.ToString(), "cap") {
		t.Error("Post.ToString should contain the caption")
	}

	c := Comment{Id: "c1", Author: u, Text: "txt", CreatedAt: time.Now()}
	if !strings.Contains(c.ToString(), "txt") {
		t.Error("Comment.ToString should contain the text")
	}
}
