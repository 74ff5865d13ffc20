package cart

import (
	"context"
	"errors"
)

var ErrUnknownProduct = errors.New("unknown product")

// Sessions keeps one cart per browser session. Loading an unknown session
// yields an empty cart, not an error.
type Sessions interface {
	Load(ctx context.Context, sessionID string) (Cart, error)
	Save(ctx context.Context, sessionID string, c Cart) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}
