package alert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimal_AcceptsNumberOrString(t *testing.T) {
	var req CreateRequest

	require.NoError(t, json.Unmarshal([]byte(`{"threshold_value":"50000.0"}`), &req))
	assert.Equal(t, Decimal(50000), req.ThresholdValue)

	require.NoError(t, json.Unmarshal([]byte(`{"threshold_value":0.00000125}`), &req))
	assert.Equal(t, Decimal(0.00000125), req.ThresholdValue)

	assert.Error(t, json.Unmarshal([]byte(`{"threshold_value":"lots"}`), &req))
}

func TestDecimal_MarshalsAsString(t *testing.T) {
	raw, err := json.Marshal(struct {
		V Decimal `json:"v"`
	}{V: 1234.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"1234.5"}`, string(raw))
}

func TestNewFromCreateRequest_DefaultsActive(t *testing.T) {
	a := NewFromCreateRequest("u1", CreateRequest{TokenSymbol: "BTC", AlertType: TypePrice, Condition: ConditionAbove, ThresholdValue: 1})
	assert.True(t, a.IsActive)
	assert.Equal(t, "u1", a.UserID)
	assert.NotEmpty(t, a.ID)

	off := false
	a = NewFromCreateRequest("u1", CreateRequest{TokenSymbol: "BTC", IsActive: &off})
	assert.False(t, a.IsActive)
}

func TestApply_OnlySetFields(t *testing.T) {
	a := NewFromCreateRequest("u1", CreateRequest{TokenSymbol: "BTC", AlertType: TypePrice, Condition: ConditionAbove, ThresholdValue: 10})

	sym := "ETH"
	th := Decimal(20)
	a.Apply(UpdateRequest{TokenSymbol: &sym, ThresholdValue: &th})

	assert.Equal(t, "ETH", a.TokenSymbol)
	assert.Equal(t, Decimal(20), a.ThresholdValue)
	assert.Equal(t, TypePrice, a.AlertType)
	assert.Equal(t, ConditionAbove, a.Condition)
	assert.True(t, a.IsActive)
	assert.True(t, UpdateRequest{}.IsEmpty())
}
