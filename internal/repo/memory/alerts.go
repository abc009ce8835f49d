package memory

import (
	"context"
	"time"

	"github.com/geocoder89/supplylens/internal/domain/alert"
)

type alertRow struct {
	alert.Alert
	seq int64
}

func (r alertRow) createdAt() time.Time { return r.CreatedAt }
func (r alertRow) sequence() int64      { return r.seq }

type AlertsRepo struct {
	s *Store
}

func (r *AlertsRepo) Create(ctx context.Context, userID string, req alert.CreateRequest) (alert.Alert, error) {
	a := alert.NewFromCreateRequest(userID, req)

	r.s.mu.Lock()
	r.s.alerts[a.ID] = alertRow{Alert: a, seq: r.s.next()}
	r.s.mu.Unlock()

	return a, nil
}

func (r *AlertsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]alert.Alert, int, error) {
	r.s.mu.RLock()
	rows := make([]alertRow, 0)
	for _, a := range r.s.alerts {
		if a.UserID == userID {
			rows = append(rows, a)
		}
	}
	r.s.mu.RUnlock()

	newestFirst(rows)

	window := page(rows, limit, offset)
	out := make([]alert.Alert, 0, len(window))
	for _, row := range window {
		out = append(out, row.Alert)
	}
	return out, len(rows), nil
}

func (r *AlertsRepo) GetByID(ctx context.Context, userID, id string) (alert.Alert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.alerts[id]
	if !ok || row.UserID != userID {
		return alert.Alert{}, alert.ErrNotFound
	}
	return row.Alert, nil
}

func (r *AlertsRepo) Update(ctx context.Context, userID, id string, req alert.UpdateRequest) (alert.Alert, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.alerts[id]
	if !ok || row.UserID != userID {
		return alert.Alert{}, alert.ErrNotFound
	}

	if req.IsEmpty() {
		return row.Alert, nil
	}

	row.Apply(req)
	row.UpdatedAt = time.Now().UTC()
	r.s.alerts[id] = row

	return row.Alert, nil
}

func (r *AlertsRepo) SetActive(ctx context.Context, userID, id string, active bool) (alert.Alert, error) {
	return r.Update(ctx, userID, id, alert.UpdateRequest{IsActive: &active})
}

func (r *AlertsRepo) Delete(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.alerts[id]
	if !ok || row.UserID != userID {
		return alert.ErrNotFound
	}
	delete(r.s.alerts, id)
	return nil
}
