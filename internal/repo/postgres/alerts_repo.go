package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/supplylens/internal/domain/alert"
	"github.com/geocoder89/supplylens/internal/observability"
)

type AlertsRepo struct {
	base
}

func NewAlertsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AlertsRepo {
	return &AlertsRepo{base{pool: pool, prom: prom}}
}

const alertColumns = `id, user_id, token_symbol, token_address, alert_type, condition,
	threshold_value, is_active, triggered_at, created_at, updated_at`

func scanAlert(row pgx.Row) (alert.Alert, error) {
	var (
		a         alert.Alert
		threshold float64
	)
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.TokenSymbol,
		&a.TokenAddress,
		&a.AlertType,
		&a.Condition,
		&threshold,
		&a.IsActive,
		&a.TriggeredAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	a.ThresholdValue = alert.Decimal(threshold)
	return a, err
}

func (r *AlertsRepo) Create(ctx context.Context, userID string, req alert.CreateRequest) (alert.Alert, error) {
	a := alert.NewFromCreateRequest(userID, req)

	err := r.observe(ctx, "alerts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO alerts (id, user_id, token_symbol, token_address, alert_type, condition,
				threshold_value, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			a.ID, a.UserID, a.TokenSymbol, a.TokenAddress, string(a.AlertType), string(a.Condition),
			float64(a.ThresholdValue), a.IsActive, a.CreatedAt, a.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return alert.Alert{}, err
	}

	return a, nil
}

// ListByUser returns one page, newest first, and the user's total count.
// The count runs separately so a page past the end still reports the total.
func (r *AlertsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]alert.Alert, int, error) {
	var total int
	err := r.observe(ctx, "alerts.count_by_user", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE user_id = $1`, userID).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	output := make([]alert.Alert, 0, limit)
	if total == 0 || offset < 0 || offset >= total {
		return output, total, nil
	}

	err = r.observe(ctx, "alerts.list_by_user", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+alertColumns+`
			FROM alerts
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
			a, err := scanAlert(rows)
			if err != nil {
				return err
			}
			output = append(output, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *AlertsRepo) GetByID(ctx context.Context, userID, id string) (alert.Alert, error) {
	var a alert.Alert

	err := r.observe(ctx, "alerts.get_by_id", func() error {
		var err error
		a, err = scanAlert(r.pool.QueryRow(ctx,
			`SELECT `+alertColumns+` FROM alerts WHERE id = $1 AND user_id = $2`,
			id, userID,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return alert.Alert{}, alert.ErrNotFound
		}
		return alert.Alert{}, err
	}

	return a, nil
}

// Update writes only the fields present in req. An empty request is a read.
func (r *AlertsRepo) Update(ctx context.Context, userID, id string, req alert.UpdateRequest) (alert.Alert, error) {
	if req.IsEmpty() {
		return r.GetByID(ctx, userID, id)
	}

	var sets []string
	args := []interface{}{id, userID}
	argsPosition := 3

	set := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argsPosition))
		args = append(args, value)
		argsPosition++
	}

	if req.TokenSymbol != nil {
		set("token_symbol", *req.TokenSymbol)
	}
	if req.TokenAddress != nil {
		set("token_address", *req.TokenAddress)
	}
	if req.AlertType != nil {
		set("alert_type", string(*req.AlertType))
	}
	if req.Condition != nil {
		set("condition", string(*req.Condition))
	}
	if req.ThresholdValue != nil {
		set("threshold_value", float64(*req.ThresholdValue))
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}

	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE alerts SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND user_id = $2 RETURNING ` + alertColumns

	var a alert.Alert
	err := r.observe(ctx, "alerts.update", func() error {
		var err error
		a, err = scanAlert(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return alert.Alert{}, alert.ErrNotFound
		}
		return alert.Alert{}, err
	}

	return a, nil
}

func (r *AlertsRepo) SetActive(ctx context.Context, userID, id string, active bool) (alert.Alert, error) {
	return r.Update(ctx, userID, id, alert.UpdateRequest{IsActive: &active})
}

func (r *AlertsRepo) Delete(ctx context.Context, userID, id string) error {
	var affected int64

	err := r.observe(ctx, "alerts.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return alert.ErrNotFound
	}

	return nil
}
