package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/supplylens/internal/domain/user"
	"github.com/geocoder89/supplylens/internal/observability"
)

type UsersRepo struct {
	base
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{base{pool: pool, prom: prom}}
}

const userColumns = `id, email, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash string) (user.User, error) {
	u := user.New(email, passwordHash)

	err := r.observe(ctx, "users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err, usersEmailUniq) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg string) (user.User, error) {
	var u user.User

	err := r.observe(ctx, op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

// Delete removes the user and everything they own in one transaction. The
// foreign keys cascade as well; the explicit deletes keep the behaviour
// independent of schema drift.
func (r *UsersRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = r.observe(ctx, "users.delete.children", func() error {
		if _, err := tx.Exec(ctx, `DELETE FROM alerts WHERE user_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM watchlist WHERE user_id = $1`, id)
		return err
	})
	if err != nil {
		return err
	}

	var affected int64
	err = r.observe(ctx, "users.delete", func() error {
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		err = user.ErrNotFound
		return err
	}

	return tx.Commit(ctx)
}
