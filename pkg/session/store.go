package session

import "context"

// Store persists the session context between runs.
type Store interface {
	// Load returns ErrNotFound when nothing has been saved.
	Load(ctx context.Context) (Context, error)
	Save(ctx context.Context, c Context) error
	Delete(ctx context.Context) error
}
