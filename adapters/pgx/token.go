package pgx

import (
	"context"
	"time"

	"github.com/7nohe/gatekeep"
	"github.com/jackc/pgx/v5"
)

func (a *Adapter) CreateToken(token *gatekeep.AccessToken) error {
	ctx := context.Background()

	query := `INSERT INTO public.access_tokens (id, user_id, name, hash, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := a.pool.Exec(ctx, query, token.ID, token.UserID, token.Name, token.Hash, token.CreatedAt)
	return err
}

func (a *Adapter) GetTokenByID(id string) (*gatekeep.AccessToken, error) {
	ctx := context.Background()
	query := `SELECT id, user_id, name, hash, last_used_at, created_at
	          FROM public.access_tokens WHERE id = $1`

	token := &gatekeep.AccessToken{}
	err := a.pool.QueryRow(ctx, query, id).Scan(
		&token.ID, &token.UserID, &token.Name, &token.Hash, &token.LastUsedAt, &token.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, gatekeep.ErrTokenNotFound
		}
		return nil, err
	}
	return token, nil
}

func (a *Adapter) ListUserTokens(userID string) ([]*gatekeep.AccessToken, error) {
	ctx := context.Background()
	query := `SELECT id, user_id, name, hash, last_used_at, created_at
	          FROM public.access_tokens WHERE user_id = $1 ORDER BY created_at`

	rows, err := a.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*gatekeep.AccessToken
	for rows.Next() {
		token := &gatekeep.AccessToken{}
		err := rows.Scan(&token.ID, &token.UserID, &token.Name, &token.Hash, &token.LastUsedAt, &token.CreatedAt)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tokens, nil
}

func (a *Adapter) TouchToken(id string, at time.Time) error {
	ctx := context.Background()

	_, err := a.pool.Exec(ctx, `UPDATE public.access_tokens SET last_used_at = $1 WHERE id = $2`, at, id)
	return err
}

func (a *Adapter) DeleteToken(userID, id string) error {
	ctx := context.Background()

	tag, err := a.pool.Exec(ctx, `DELETE FROM public.access_tokens WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gatekeep.ErrTokenNotFound
	}
	return nil
}
