// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/ninjainc/waitlist/internal/model"
)

// SubscribeRequest is the body of a signup request.
// Email is left untyped so the validator can tell a missing field,
// JSON null and a non-string apart.
type SubscribeRequest struct {
	Email any `json:"email"`
}

// MessageResponse is a plain success body.
type MessageResponse struct {
	Message string `json:"message"`
}

// SubscriberResponse is one entry in the admin listing.
type SubscriberResponse struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscriberListResponse is the body of GET /subscribers.
type SubscriberListResponse struct {
	Subscribers []SubscriberResponse `json:"subscribers"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Type    string `json:"type,omitempty"`
}

// ToSubscriberListResponse converts subscribers, keeping their order.
// The result always encodes "subscribers" as an array, never null.
func ToSubscriberListResponse(subscribers []*model.Subscriber) SubscriberListResponse {
	out := make([]SubscriberResponse, 0, len(subscribers))
	for _, s := range subscribers {
		out = append(out, SubscriberResponse{
			Email:     s.Email,
			CreatedAt: s.CreatedAt,
		})
	}
	return SubscriberListResponse{Subscribers: out}
}
