package common

type SessionState uint

const (
	FeedView SessionState = iota
	ComposeView
	CommentsView
	ProfileView
	SignInView
	RefreshFeed // Reload the feed after a mutation
)

// ShowCommentsMsg switches to the comments view for one post.
type ShowCommentsMsg struct {
	PostId string
}

// NoticeMsg carries a short status line for the footer.
type NoticeMsg struct {
	Text string
}
