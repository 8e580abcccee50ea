package domain

import "time"

// Credentials holds the delegated OAuth token material for a user's mailbox.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// UserData is the profile plus credential material stored in a session.
type UserData struct {
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Picture     string      `json:"picture,omitempty"`
	Credentials Credentials `json:"credentials"`
}

// UserProfile is the credential-free view returned to clients.
type UserProfile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Profile strips credential material from the user data.
func (u *UserData) Profile() UserProfile {
	return UserProfile{Email: u.Email, Name: u.Name, Picture: u.Picture}
}

// Session maps an opaque token to a user's mailbox credentials. Created on a
// successful OAuth callback, read on every authenticated call, deleted on
// logout or lazily on first access past ExpiresAt.
type Session struct {
	Token     string    `json:"token"`
	User      UserData  `json:"user_data"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}
