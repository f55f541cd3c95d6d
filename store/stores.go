package store

// Stores is the composition root for the state synchronization layer. Each
// store is constructed once at process start and handed down explicitly; no
// store is reachable through a global lookup.
type Stores struct {
	Session  *SessionManager
	Feed     *FeedStore
	Likes    *LikeStore
	Comments *CommentStore
}

// NewStores wires the stores in dependency order: SessionManager first, then
// FeedStore, then LikeStore and CommentStore which reference the feed's post
// ids but do not own post records.
func NewStores(remote RemoteService, storage Storage, pageSize int) *Stores {
	session := NewSessionManager(remote, storage)
	feed := NewFeedStore(remote, session, pageSize)
	likes := NewLikeStore(remote, feed, session, storage)
	comments := NewCommentStore(remote, session, storage)

	return &Stores{
		Session:  session,
		Feed:     feed,
		Likes:    likes,
		Comments: comments,
	}
}

// LoadPersisted restores all durable per-store state from local storage.
// Network validation of a restored token happens separately through
// Session.Validate.
func (s *Stores) LoadPersisted() bool {
	tokenFound := s.Session.LoadPersisted()
	s.Likes.LoadPersisted()
	s.Comments.LoadPersisted()
	return tokenFound
}
