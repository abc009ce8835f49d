package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/supplylens/internal/domain/watchlist"
	"github.com/geocoder89/supplylens/internal/observability"
)

type WatchlistRepo struct {
	base
}

func NewWatchlistRepo(pool *pgxpool.Pool, prom *observability.Prom) *WatchlistRepo {
	return &WatchlistRepo{base{pool: pool, prom: prom}}
}

const watchlistColumns = `id, user_id, token_symbol, token_address, notes, created_at`

func scanWatchItem(row pgx.Row) (watchlist.Item, error) {
	var i watchlist.Item
	err := row.Scan(&i.ID, &i.UserID, &i.TokenSymbol, &i.TokenAddress, &i.Notes, &i.CreatedAt)
	return i, err
}

func (r *WatchlistRepo) Create(ctx context.Context, userID string, req watchlist.CreateRequest) (watchlist.Item, error) {
	item := watchlist.NewFromCreateRequest(userID, req)

	err := r.observe(ctx, "watchlist.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO watchlist (id, user_id, token_symbol, token_address, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.UserID, item.TokenSymbol, item.TokenAddress, item.Notes, item.CreatedAt,
		)
		return err
	})
	if err != nil {
		if IsUniqueViolation(err, watchlistKeyUniq) {
			return watchlist.Item{}, watchlist.ErrDuplicate
		}
		return watchlist.Item{}, err
	}

	return item, nil
}

func (r *WatchlistRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]watchlist.Item, int, error) {
	var total int
	err := r.observe(ctx, "watchlist.count_by_user", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM watchlist WHERE user_id = $1`, userID).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	output := make([]watchlist.Item, 0, limit)
	if total == 0 || offset < 0 || offset >= total {
		return output, total, nil
	}

	err = r.observe(ctx, "watchlist.list_by_user", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+watchlistColumns+`
			FROM watchlist
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3`,
			userID, limit, offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			i, err := scanWatchItem(rows)
			if err != nil {
				return err
			}
			output = append(output, i)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *WatchlistRepo) GetByID(ctx context.Context, userID, id string) (watchlist.Item, error) {
	var i watchlist.Item

	err := r.observe(ctx, "watchlist.get_by_id", func() error {
		var err error
		i, err = scanWatchItem(r.pool.QueryRow(ctx,
			`SELECT `+watchlistColumns+` FROM watchlist WHERE id = $1 AND user_id = $2`,
			id, userID,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return watchlist.Item{}, watchlist.ErrNotFound
		}
		return watchlist.Item{}, err
	}

	return i, nil
}

// UpdateNotes replaces notes when non-nil; nil leaves the item unchanged.
func (r *WatchlistRepo) UpdateNotes(ctx context.Context, userID, id string, notes *string) (watchlist.Item, error) {
	if notes == nil {
		return r.GetByID(ctx, userID, id)
	}

	var i watchlist.Item
	err := r.observe(ctx, "watchlist.update_notes", func() error {
		var err error
		i, err = scanWatchItem(r.pool.QueryRow(ctx,
			`UPDATE watchlist SET notes = $3
			WHERE id = $1 AND user_id = $2
			RETURNING `+watchlistColumns,
			id, userID, *notes,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return watchlist.Item{}, watchlist.ErrNotFound
		}
		return watchlist.Item{}, err
	}

	return i, nil
}

func (r *WatchlistRepo) Delete(ctx context.Context, userID, id string) error {
	var affected int64

	err := r.observe(ctx, "watchlist.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM watchlist WHERE id = $1 AND user_id = $2`, id, userID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return watchlist.ErrNotFound
	}

	return nil
}
