// Package identity verifies the opaque bearer tokens the rest of the system
// treats as the user's identity.
package identity

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("identity: invalid token")

// Identity is the stable identity behind a verified token. Email doubles as
// the share-recipient address.
type Identity struct {
	UserID string
	Email  string
}

type Provider interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
