package domain

// Session is the persisted authentication state for this device. IsValid is
// never persisted as true: a restored token must survive a round-trip
// validation against the server before the session counts as valid.
type Session struct {
	Token       string `json:"token,omitempty"`
	UserId      string `json:"userId,omitempty"`
	CurrentUser *User  `json:"currentUser,omitempty"`
	IsValid     bool   `json:"-"`
}

// HasToken reports whether a token was restored or saved for this session.
func (s *Session) HasToken() bool {
	return s.Token != ""
}
