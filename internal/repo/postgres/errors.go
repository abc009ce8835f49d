package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/supplylens/internal/observability"
)

const (
	usersEmailUniq   = "users_email_key"
	watchlistKeyUniq = "uq_user_token"
)

func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// base is shared by every repo: the pool plus optional query metrics.
type base struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// observe traces fn and, when metrics are wired, records it under op.
func (b base) observe(ctx context.Context, op string, fn func() error) error {
	return b.prom.ObserveDB(ctx, op, fn)
}
