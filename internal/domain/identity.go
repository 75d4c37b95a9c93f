package domain

import "time"

// APIKey maps an opaque token to its owner. Only the hash of the token is kept.
type APIKey struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Hash      string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the stored write capability for an owner's repository.
type Session struct {
	Owner      string    `json:"owner"`
	PrivateKey string    `json:"-"`
	Repository string    `json:"repository"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
