package domain

import "fmt"

// User is a server-owned identity record. Immutable once fetched; identity
// is the Id field.
type User struct {
	Id          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarURL,omitempty"`
}

func (u *User) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tUsername: %s \n\tDisplayName: %s)", u.Id, u.Username, u.DisplayName)
}

// Name returns the best human-readable name for display purposes.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
