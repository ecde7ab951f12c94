package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// IdentityResolver looks up and creates users and verifies their
// credentials. It is the single convergence point for the password, OAuth
// and token flows.
type IdentityResolver struct {
	storage UserStore
	hasher  PasswordHandler

	// dummyHash is burned through on unknown emails so the duration of a
	// failed VerifyCredentials does not reveal whether the email exists.
	dummyHash string
}

// UserDefaults are the fields applied when FindOrCreateByEmail has to
// create the user.
type UserDefaults struct {
	FullName string
}

func NewIdentityResolver(storage UserStore, hasher PasswordHandler) *IdentityResolver {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		dummy = ""
	}
	return &IdentityResolver{
		storage:   storage,
		hasher:    hasher,
		dummyHash: dummy,
	}
}

// VerifyCredentials authenticates an email/password pair.
//
// Every failure is ErrInvalidCredentials: an unknown email, a passwordless
// (OAuth-born) account and a wrong password are indistinguishable to the
// caller.
func (r *IdentityResolver) VerifyCredentials(email, password string) (*User, error) {
	user, err := r.storage.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			r.burnHash(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.Password == nil {
		r.burnHash(password)
		return nil, ErrInvalidCredentials
	}

	valid, err := r.hasher.Verify(password, *user.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// FindOrCreateByEmail resolves a user by email, creating one with the
// supplied defaults when absent. Concurrent calls with the same email
// converge on a single row: the storage layer enforces email uniqueness,
// and the loser of the race re-reads the winner's row.
//
// Existing rows are updated only to attach provider-derived profile
// fields that are still blank; filled fields are never overwritten.
func (r *IdentityResolver) FindOrCreateByEmail(email string, defaults UserDefaults) (*User, error) {
	user, err := r.storage.GetUserByEmail(email)
	if err == nil {
		return r.attachDefaults(user, defaults)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user = &User{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: defaults.FullName,
	}

	err = r.storage.CreateUser(user)
	if errors.Is(err, ErrUserExists) {
		// Lost the race; the other writer's row wins.
		user, err = r.storage.GetUserByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		return r.attachDefaults(user, defaults)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (r *IdentityResolver) attachDefaults(user *User, defaults UserDefaults) (*User, error) {
	if user.FullName != "" || defaults.FullName == "" {
		return user, nil
	}

	user.FullName = defaults.FullName
	if err := r.storage.UpdateUser(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Create registers a user with a password credential. Used for seeding;
// the demo flows have no sign-up form.
func (r *IdentityResolver) Create(email, fullName, password string) (*User, error) {
	hashed, err := r.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: fullName,
		Password: &hashed,
	}

	if err := r.storage.CreateUser(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *IdentityResolver) burnHash(password string) {
	if r.dummyHash == "" {
		return
	}
	_, _ = r.hasher.Verify(password, r.dummyHash)
}
