package auth

import (
	"context"

	"github.com/mmynk/expensebook/internal/models"
)

// Authenticator verifies user credentials. PasswordAuthenticator is the only
// implementation; services depend on this interface so another credential
// type can replace it.
type Authenticator interface {
	// Register creates an account. The credential format is up to the
	// implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user when the credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials that could never be accepted.
	ValidateCredential(credential string) error

	// Lookup returns the account of an already authenticated user.
	Lookup(ctx context.Context, userID int64) (*models.User, error)
}
