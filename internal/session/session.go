package session

import (
	"context"
	"errors"
	"time"
)

// ErrMissingSelection: no pending service choice for the user, either
// never made or aged out.
var ErrMissingSelection = errors.New("no pending service selection")

// DefaultTTL bounds how long an abandoned conversation keeps its choice.
const DefaultTTL = 30 * time.Minute

// Selection is the in-progress choice between two chat events.
type Selection struct {
	ServiceID string    `json:"service_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps one Selection per user. Put overwrites, Get does not consume,
// Delete is idempotent.
type Store interface {
	Put(ctx context.Context, userID int64, sel Selection) error
	Get(ctx context.Context, userID int64) (Selection, error)
	Delete(ctx context.Context, userID int64) error
}
