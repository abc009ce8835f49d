package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/supplylens/internal/config"
	"github.com/geocoder89/supplylens/internal/domain/alert"
	"github.com/geocoder89/supplylens/internal/envelope"
	"github.com/geocoder89/supplylens/internal/http/middlewares"
)

// AlertStore is every alert operation scoped to the owning user.
type AlertStore interface {
	Create(ctx context.Context, userID string, req alert.CreateRequest) (alert.Alert, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]alert.Alert, int, error)
	GetByID(ctx context.Context, userID, id string) (alert.Alert, error)
	Update(ctx context.Context, userID, id string, req alert.UpdateRequest) (alert.Alert, error)
	SetActive(ctx context.Context, userID, id string, active bool) (alert.Alert, error)
	Delete(ctx context.Context, userID, id string) error
}

type AlertsHandler struct {
	repo AlertStore
}

func NewAlertsHandler(repo AlertStore) *AlertsHandler {
	return &AlertsHandler{repo: repo}
}

const (
	CodeAlertNotFound    = "ALERT_NOT_FOUND"
	messageAlertNotFound = "Alert not found"
	alertStoreTimeout    = 2 * time.Second
)

func (h *AlertsHandler) List(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	q, ok := parsePage(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), alertStoreTimeout)
	defer cancel()

	items, total, err := h.repo.ListByUser(cctx, u.ID, q.Limit(), q.Offset())
	if err != nil {
		RespondInternal(ctx, "list alerts", err)
		return
	}

	ctx.JSON(http.StatusOK, envelope.Paginated(items, q.Page, q.PerPage, total, "Alerts retrieved successfully"))
}

func (h *AlertsHandler) Create(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	var req alert.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), alertStoreTimeout)
	defer cancel()

	a, err := h.repo.Create(cctx, u.ID, req)
	if err != nil {
		RespondInternal(ctx, "create alert", err)
		return
	}

	RespondOK(ctx, a, "Alert created successfully")
}

func (h *AlertsHandler) Get(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), alertStoreTimeout)
	defer cancel()

	a, err := h.repo.GetByID(cctx, u.ID, id)
	if err != nil {
		h.fail(ctx, "get alert", err)
		return
	}

	RespondOK(ctx, a, "Alert retrieved successfully")
}

// Update applies only the fields present in the body.
func (h *AlertsHandler) Update(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req alert.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), alertStoreTimeout)
	defer cancel()

	a, err := h.repo.Update(cctx, u.ID, id, req)
	if err != nil {
		h.fail(ctx, "update alert", err)
		return
	}

	RespondOK(ctx, a, "Alert updated successfully")
}

func (h *AlertsHandler) Delete(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), alertStoreTimeout)
	defer cancel()

	if err := h.repo.Delete(cctx, u.ID, id); err != nil {
		h.fail(ctx, "delete alert", err)
		return
	}

	RespondDeleted(ctx, "Alert deleted successfully")
}

func (h *AlertsHandler) Toggle(ctx *gin.Context) {
	u, _ := middlewares.CurrentUser(ctx)

	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req alert.ToggleRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), alertStoreTimeout)
	defer cancel()

	a, err := h.repo.SetActive(cctx, u.ID, id, *req.IsActive)
	if err != nil {
		h.fail(ctx, "toggle alert", err)
		return
	}

	message := "Alert deactivated successfully"
	if a.IsActive {
		message = "Alert activated successfully"
	}

	RespondOK(ctx, a, message)
}

func (h *AlertsHandler) fail(ctx *gin.Context, op string, err error) {
	if errors.Is(err, alert.ErrNotFound) {
		RespondFailure(ctx, CodeAlertNotFound, messageAlertNotFound)
		return
	}
	RespondInternal(ctx, op, err)
}
