package secret

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a parameter does not exist in the backing store.
var ErrNotFound = errors.New("parameter not found")

// Provider resolves named configuration values. Secure values are returned decrypted.
type Provider interface {
	Get(ctx context.Context, name string) (string, error)
}
