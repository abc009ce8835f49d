package db

import (
	"context"
	"errors"

	"github.com/geocoder89/supplylens/internal/domain/user"
	"github.com/geocoder89/supplylens/internal/security"
)

type seedUsers interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
}

// EnsureSeedUser creates the configured bootstrap account when it is missing.
// It is a no-op when either credential is empty.
func EnsureSeedUser(ctx context.Context, users seedUsers, hasher *security.Hasher, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	_, err := users.GetByEmail(ctx, email)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(password)

	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, email, hash)

	if errors.Is(err, user.ErrEmailTaken) {
		// lost a race with another instance
		return false, nil
	}

	return err == nil, err
}
