// Package model defines domain entities for the application.
package model

import "time"

// Subscriber is one waitlist signup.
// ID is the surrogate key and is never serialized to clients.
type Subscriber struct {
	ID        int64     `json:"-"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
