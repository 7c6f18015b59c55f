package models

import "time"

// UserInfo is the subject carried in the SSO token.
type UserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is an SSO session persisted in Redis. The token itself is the
// source of truth for expiry; ExpiresAt is denormalized so the monitor can
// scan sessions without re-parsing JWTs.
type Session struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	User        UserInfo  `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	RefreshedAt time.Time `json:"refreshed_at,omitempty"`
}

// TimeUntilExpiry returns the remaining session lifetime at now.
func (s *Session) TimeUntilExpiry(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// Expired reports whether the session is already past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TokenResponse is the Django refresh endpoint's payload.
type TokenResponse struct {
	Token     string   `json:"token"`
	User      UserInfo `json:"user"`
	ExpiresAt int64    `json:"expires_at"` // unix seconds
	Error     string   `json:"error,omitempty"`
}
