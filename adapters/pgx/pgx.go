// Package pgx provides a PostgreSQL Storage adapter backed by a pgxpool.
// See schema.sql for the expected tables.
package pgx

import (
	"errors"

	"github.com/7nohe/gatekeep"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code FindOrCreateByEmail relies on
// for idempotent creation.
const uniqueViolation = "23505"

type Adapter struct {
	pool *pgxpool.Pool
}

var _ gatekeep.Storage = (*Adapter)(nil)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
