package alert

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypePrice     Type = "price"
	TypeVolume    Type = "volume"
	TypeHolder    Type = "holder"
	TypeLiquidity Type = "liquidity"
)

type Condition string

const (
	ConditionAbove  Condition = "above"
	ConditionBelow  Condition = "below"
	ConditionEquals Condition = "equals"
)

type Alert struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	TokenSymbol    string     `json:"token_symbol"`
	TokenAddress   *string    `json:"token_address"`
	AlertType      Type       `json:"alert_type"`
	Condition      Condition  `json:"condition"`
	ThresholdValue Decimal    `json:"threshold_value"`
	IsActive       bool       `json:"is_active"`
	TriggeredAt    *time.Time `json:"triggered_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

var ErrNotFound = errors.New("alert not found")

type CreateRequest struct {
	TokenSymbol    string    `json:"token_symbol" binding:"required,min=1,max=50"`
	TokenAddress   *string   `json:"token_address" binding:"omitempty,max=255"`
	AlertType      Type      `json:"alert_type" binding:"required,oneof=price volume holder liquidity"`
	Condition      Condition `json:"condition" binding:"required,oneof=above below equals"`
	ThresholdValue Decimal   `json:"threshold_value" binding:"required,gt=0"`
	IsActive       *bool     `json:"is_active"`
}

// UpdateRequest is a partial update: nil fields are left untouched.
type UpdateRequest struct {
	TokenSymbol    *string    `json:"token_symbol" binding:"omitempty,min=1,max=50"`
	TokenAddress   *string    `json:"token_address" binding:"omitempty,max=255"`
	AlertType      *Type      `json:"alert_type" binding:"omitempty,oneof=price volume holder liquidity"`
	Condition      *Condition `json:"condition" binding:"omitempty,oneof=above below equals"`
	ThresholdValue *Decimal   `json:"threshold_value" binding:"omitempty,gt=0"`
	IsActive       *bool      `json:"is_active"`
}

func (r UpdateRequest) IsEmpty() bool {
	return r.TokenSymbol == nil && r.TokenAddress == nil && r.AlertType == nil &&
		r.Condition == nil && r.ThresholdValue == nil && r.IsActive == nil
}

type ToggleRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func NewFromCreateRequest(userID string, req CreateRequest) Alert {
	now := time.Now().UTC()

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return Alert{
		ID:             uuid.NewString(),
		UserID:         userID,
		TokenSymbol:    req.TokenSymbol,
		TokenAddress:   req.TokenAddress,
		AlertType:      req.AlertType,
		Condition:      req.Condition,
		ThresholdValue: req.ThresholdValue,
		IsActive:       active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Apply copies the set fields of req onto a.
func (a *Alert) Apply(req UpdateRequest) {
	if req.TokenSymbol != nil {
		a.TokenSymbol = *req.TokenSymbol
	}
	if req.TokenAddress != nil {
		addr := *req.TokenAddress
		a.TokenAddress = &addr
	}
	if req.AlertType != nil {
		a.AlertType = *req.AlertType
	}
	if req.Condition != nil {
		a.Condition = *req.Condition
	}
	if req.ThresholdValue != nil {
		a.ThresholdValue = *req.ThresholdValue
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
}
