package domain

import "time"

// FeedNotice is pushed to live feed subscribers.
type FeedNotice struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	// AdminOnly notices are only delivered to admin-tier members.
	AdminOnly bool `json:"-"`
}
