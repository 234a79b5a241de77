package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned for every verification failure: missing
// token, rejected token, or an unreachable auth service. Collapsing the cases
// keeps unauthenticated callers from distinguishing "bad token" from
// "auth service down".
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the resolved caller. ID is the owner stamp applied to every
// subsequent read and write in the request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier exchanges a bearer token for an authenticated identity.
type Verifier interface {
	GetUser(ctx context.Context, token string) (*Identity, error)
}
