package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/supplylens/internal/config"
	"github.com/geocoder89/supplylens/internal/domain/watchlist"
	"github.com/geocoder89/supplylens/internal/envelope"
	"github.com/geocoder89/supplylens/internal/http/middlewares"
)

type WatchlistStore interface {
	Create(ctx context.Context, userID string, req watchlist.CreateRequest) (watchlist.Item, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]watchlist.Item, int, error)
	GetByID(ctx context.Context, userID, id string) (watchlist.Item, error)
	UpdateNotes(ctx context.Context, userID, id string, notes *string) (watchlist.Item, error)
	Delete(ctx context.Context, userID, id string) error
}

type WatchlistHandler struct {
	repo WatchlistStore
}

func NewWatchlistHandler(repo WatchlistStore) *WatchlistHandler {
	return &WatchlistHandler{repo: repo}
}

const (
	CodeWatchlistNotFound  = "WATCHLIST_ITEM_NOT_FOUND"
	CodeWatchlistDuplicate = "WATCHLIST_DUPLICATE"
	watchlistStoreTimeout  = 2 * time.Second
)

func (h *WatchlistHandler) List(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	q, ok := parsePage(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), watchlistStoreTimeout)
	defer cancel()

	items, total, err := h.repo.ListByUser(cctx, u.ID, q.Limit(), q.Offset())
	if err != nil {
		RespondInternal(ctx, "list watchlist", err)
		return
	}

	ctx.JSON(http.StatusOK, envelope.Paginated(items, q.Page, q.PerPage, total, "Watchlist retrieved successfully"))
}

func (h *WatchlistHandler) Add(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	var req watchlist.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), watchlistStoreTimeout)
	defer cancel()

	item, err := h.repo.Create(cctx, u.ID, req)
	if err != nil {
		if errors.Is(err, watchlist.ErrDuplicate) {
			RespondFailure(ctx, CodeWatchlistDuplicate, "This token is already in your watchlist")
			return
		}
		RespondInternal(ctx, "add watchlist item", err)
		return
	}

	RespondOK(ctx, item, "Item added to watchlist successfully")
}

func (h *WatchlistHandler) Get(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), watchlistStoreTimeout)
	defer cancel()

	item, err := h.repo.GetByID(cctx, u.ID, id)
	if err != nil {
		h.fail(ctx, "get watchlist item", err)
		return
	}

	RespondOK(ctx, item, "Watchlist item retrieved successfully")
}

// Update only touches notes; symbol and address identify the item.
func (h *WatchlistHandler) Update(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req watchlist.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), watchlistStoreTimeout)
	defer cancel()

	item, err := h.repo.UpdateNotes(cctx, u.ID, id, req.Notes)
	if err != nil {
		h.fail(ctx, "update watchlist item", err)
		return
	}

	RespondOK(ctx, item, "Watchlist item updated successfully")
}

func (h *WatchlistHandler) Remove(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), watchlistStoreTimeout)
	defer cancel()

	if err := h.repo.Delete(cctx, u.ID, id); err != nil {
		h.fail(ctx, "remove watchlist item", err)
		return
	}

	RespondDeleted(ctx, "Item removed from watchlist successfully")
}

func (h *WatchlistHandler) fail(ctx *gin.Context, op string, err error) {
	if errors.Is(err, watchlist.ErrNotFound) {
		RespondFailure(ctx, CodeWatchlistNotFound, "Watchlist item not found")
		return
	}
	RespondInternal(ctx, op, err)
}
