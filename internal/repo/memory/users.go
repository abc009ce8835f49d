package memory

import (
	"context"

	"github.com/geocoder89/supplylens/internal/domain/user"
)

type userRow struct {
	user.User
	seq int64
}

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash string) (user.User, error) {
	u := user.New(email, passwordHash)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.usersByEmail[email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.users[u.ID] = userRow{User: u, seq: r.s.next()}
	r.s.usersByEmail[email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usersByEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.s.users[id].User, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return row.User, nil
}

// Delete removes the user together with their alerts and watchlist items.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}

	for aid, a := range r.s.alerts {
		if a.UserID == id {
			delete(r.s.alerts, aid)
		}
	}
	for wid, w := range r.s.watchlist {
		if w.UserID == id {
			delete(r.s.watchlistKeys, w.Key())
			delete(r.s.watchlist, wid)
		}
	}

	delete(r.s.usersByEmail, row.Email)
	delete(r.s.users, id)
	return nil
}
