// Package memory is an in-process store with the same contract as the
// postgres repositories: unique emails, unique watchlist keys, user-scoped
// lookups and cascading user deletes.
package memory

import (
	"sort"
	"sync"
	"time"
)

type Store struct {
	mu  sync.RWMutex
	seq int64

	users        map[string]userRow
	usersByEmail map[string]string

	alerts map[string]alertRow

	watchlist     map[string]watchRow
	watchlistKeys map[string]string
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]userRow),
		usersByEmail:  make(map[string]string),
		alerts:        make(map[string]alertRow),
		watchlist:     make(map[string]watchRow),
		watchlistKeys: make(map[string]string),
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) Alerts() *AlertsRepo {
	return &AlertsRepo{s: s}
}

func (s *Store) Watchlist() *WatchlistRepo {
	return &WatchlistRepo{s: s}
}

// next must be called with mu held.
func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

type ordered interface {
	createdAt() time.Time
	sequence() int64
}

// newestFirst mirrors ORDER BY created_at DESC with insertion order as tie-break.
func newestFirst[T ordered](rows []T) {
	sort.Slice(rows, func(i, j int) bool {
		ci, cj := rows[i].createdAt(), rows[j].createdAt()
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return rows[i].sequence() > rows[j].sequence()
	})
}

func page[T any](rows []T, limit, offset int) []T {
	if offset < 0 || offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(rows) || end < offset {
		end = len(rows)
	}
	return rows[offset:end]
}
