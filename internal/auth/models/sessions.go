package models

import "time"

// Session is materialized after a successful code exchange and lives only in
// the user_session cookie.
type Session struct {
	State    string
	Token    string
	IssuedAt time.Time
}

// Valid reports whether the session carries an access token.
func (s Session) Valid() bool {
	return s.Token != ""
}

// LoginResult is what a completed login hands back to the transport layer.
type LoginResult struct {
	Session     Session
	RedirectURL string
}
