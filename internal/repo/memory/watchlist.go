package memory

import (
	"context"
	"time"

	"github.com/geocoder89/supplylens/internal/domain/watchlist"
)

type watchRow struct {
	watchlist.Item
	seq int64
}

func (r watchRow) createdAt() time.Time { return r.CreatedAt }
func (r watchRow) sequence() int64      { return r.seq }

type WatchlistRepo struct {
	s *Store
}

func (r *WatchlistRepo) Create(ctx context.Context, userID string, req watchlist.CreateRequest) (watchlist.Item, error) {
	item := watchlist.NewFromCreateRequest(userID, req)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := item.Key()
	if _, exists := r.s.watchlistKeys[key]; exists {
		return watchlist.Item{}, watchlist.ErrDuplicate
	}

	r.s.watchlist[item.ID] = watchRow{Item: item, seq: r.s.next()}
	r.s.watchlistKeys[key] = item.ID

	return item, nil
}

func (r *WatchlistRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]watchlist.Item, int, error) {
	r.s.mu.RLock()
	rows := make([]watchRow, 0)
	for _, w := range r.s.watchlist {
		if w.UserID == userID {
			rows = append(rows, w)
		}
	}
	r.s.mu.RUnlock()

	newestFirst(rows)

	window := page(rows, limit, offset)
	out := make([]watchlist.Item, 0, len(window))
	for _, row := range window {
		out = append(out, row.Item)
	}
	return out, len(rows), nil
}

func (r *WatchlistRepo) GetByID(ctx context.Context, userID, id string) (watchlist.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.watchlist[id]
	if !ok || row.UserID != userID {
		return watchlist.Item{}, watchlist.ErrNotFound
	}
	return row.Item, nil
}

func (r *WatchlistRepo) UpdateNotes(ctx context.Context, userID, id string, notes *string) (watchlist.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.watchlist[id]
	if !ok || row.UserID != userID {
		return watchlist.Item{}, watchlist.ErrNotFound
	}

	if notes != nil {
		n := *notes
		row.Notes = &n
		r.s.watchlist[id] = row
	}
	return row.Item, nil
}

func (r *WatchlistRepo) Delete(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.watchlist[id]
	if !ok || row.UserID != userID {
		return watchlist.ErrNotFound
	}
	delete(r.s.watchlistKeys, row.Key())
	delete(r.s.watchlist, id)
	return nil
}
