package pgx

import (
	"context"
	"time"

	"github.com/7nohe/gatekeep"
	"github.com/jackc/pgx/v5"
)

func (a *Adapter) CreateSession(session *gatekeep.Session) error {
	ctx := context.Background()

	query := `INSERT INTO public.sessions (id, user_id, token_hash, flash, oauth_state, created_at, updated_at, expires_at)
	          VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8)`

	_, err := a.pool.Exec(ctx, query,
		session.ID, session.UserID, session.TokenHash, session.Flash, session.OAuthState,
		session.CreatedAt, session.UpdatedAt, session.ExpiresAt,
	)
	return err
}

func (a *Adapter) GetSessionByHash(tokenHash string) (*gatekeep.Session, error) {
	ctx := context.Background()
	query := `SELECT id, COALESCE(user_id::text, ''), token_hash, COALESCE(flash, '{}'::jsonb), oauth_state, created_at, updated_at, expires_at
	          FROM public.sessions WHERE token_hash = $1`

	session := &gatekeep.Session{}
	err := a.pool.QueryRow(ctx, query, tokenHash).Scan(
		&session.ID, &session.UserID, &session.TokenHash, &session.Flash, &session.OAuthState,
		&session.CreatedAt, &session.UpdatedAt, &session.ExpiresAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, gatekeep.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (a *Adapter) UpdateSession(session *gatekeep.Session) error {
	ctx := context.Background()
	query := `UPDATE public.sessions SET user_id = NULLIF($1, '')::uuid, flash = $2, oauth_state = $3, updated_at = $4
	          WHERE id = $5 RETURNING updated_at`

	var updatedAt time.Time
	err := a.pool.QueryRow(ctx, query,
		session.UserID, session.Flash, session.OAuthState, session.UpdatedAt, session.ID,
	).Scan(&updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return gatekeep.ErrSessionNotFound
		}
		return err
	}
	session.UpdatedAt = updatedAt
	return nil
}

func (a *Adapter) DeleteSessionByID(id string) error {
	ctx := context.Background()

	tag, err := a.pool.Exec(ctx, `DELETE FROM public.sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gatekeep.ErrSessionNotFound
	}
	return nil
}

func (a *Adapter) DeleteExpiredSessions() (int, error) {
	ctx := context.Background()

	tag, err := a.pool.Exec(ctx, `DELETE FROM public.sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
