package watchlist

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Item struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TokenSymbol  string    `json:"token_symbol"`
	TokenAddress *string   `json:"token_address"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	ErrNotFound = errors.New("watchlist item not found")
	// a user may track a (symbol, address) pair only once
	ErrDuplicate = errors.New("token already in watchlist")
)

type CreateRequest struct {
	TokenSymbol  string  `json:"token_symbol" binding:"required,min=1,max=50"`
	TokenAddress *string `json:"token_address" binding:"omitempty,max=255"`
	Notes        *string `json:"notes" binding:"omitempty,max=5000"`
}

type UpdateRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=5000"`
}

func NewFromCreateRequest(userID string, req CreateRequest) Item {
	return Item{
		ID:           uuid.NewString(),
		UserID:       userID,
		TokenSymbol:  req.TokenSymbol,
		TokenAddress: req.TokenAddress,
		Notes:        req.Notes,
		CreatedAt:    time.Now().UTC(),
	}
}

// Key identifies an item for uniqueness; a missing address counts as "".
func (i Item) Key() string {
	addr := ""
	if i.TokenAddress != nil {
		addr = *i.TokenAddress
	}
	return i.UserID + "\x00" + i.TokenSymbol + "\x00" + addr
}
