package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/knotspotapp/knotspot-server/internal/domain"
)

// Account documents get secondary indexes for login lookups. Indexes live in
// their own keyspace and are maintained in the same transaction as the
// account document, so they can never dangle.

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser writes a new account with unique email and username.
// Returns ErrAlreadyExists if either index is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.Users.marshal(user)
	if err != nil {
		return err
	}

	emailKey := userIndexKey("email", normalizeEmail(user.Email))
	usernameKey := userIndexKey("username", strings.ToLower(user.Username))

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, idxKey := range [][]byte{emailKey, usernameKey} {
			_, err := txn.Get(idxKey)
			if err == nil {
				return ErrAlreadyExists
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}

		if err := txn.Set(UserPath(user.ID).key(), data); err != nil {
			return err
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(usernameKey, []byte(user.ID))
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return err
		}
		return ErrWriteFailed.WithCause(err)
	}
	return nil
}

// GetUser retrieves an account by id.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.Users.Get(ctx, UserPath(id))
}

// GetUserByEmail retrieves an account through the email index.
// Lookup is case-insensitive.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserByIndex(ctx, "email", normalizeEmail(email))
}

// GetUserByUsername retrieves an account through the username index.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserByIndex(ctx, "username", strings.ToLower(username))
}

func (s *Store) getUserByIndex(ctx context.Context, field, value string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := s.getRaw(userIndexKey(field, value))
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, string(id))
}
