package models

import "time"

// Session is an authenticated login. It is deleted at logout and treated as
// absent once its age exceeds the configured TTL.
type Session struct {
	ID          string
	UserID      string
	AccessToken string
	CreatedAt   time.Time
}
