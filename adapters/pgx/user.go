package pgx

import (
	"context"
	"time"

	"github.com/7nohe/gatekeep"
	"github.com/jackc/pgx/v5"
)

func (a *Adapter) CreateUser(user *gatekeep.User) error {
	ctx := context.Background()

	query := `INSERT INTO public.users (id, email, full_name, password) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`

	var createdAt, updatedAt time.Time
	err := a.pool.QueryRow(ctx, query, user.ID, user.Email, user.FullName, user.Password).Scan(&createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return gatekeep.ErrUserExists
		}
		return err
	}

	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return nil
}

func (a *Adapter) GetUserByID(id string) (*gatekeep.User, error) {
	ctx := context.Background()
	q := `SELECT id, email, full_name, password, created_at, updated_at FROM public.users WHERE id = $1`

	user := &gatekeep.User{}
	err := a.pool.QueryRow(ctx, q, id).Scan(&user.ID, &user.Email, &user.FullName, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, gatekeep.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (a *Adapter) GetUserByEmail(email string) (*gatekeep.User, error) {
	ctx := context.Background()
	q := `SELECT id, email, full_name, password, created_at, updated_at FROM public.users WHERE email = $1`

	user := &gatekeep.User{}
	err := a.pool.QueryRow(ctx, q, email).Scan(&user.ID, &user.Email, &user.FullName, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, gatekeep.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (a *Adapter) UpdateUser(user *gatekeep.User) error {
	ctx := context.Background()
	q := `UPDATE public.users SET email = $1, full_name = $2, password = $3, updated_at = now() WHERE id = $4 RETURNING updated_at`

	var updatedAt time.Time
	err := a.pool.QueryRow(ctx, q, user.Email, user.FullName, user.Password, user.ID).Scan(&updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return gatekeep.ErrUserNotFound
		}
		return err
	}
	user.UpdatedAt = updatedAt
	return nil
}
