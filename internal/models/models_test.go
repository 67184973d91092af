package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountsMarshalAsNumbers(t *testing.T) {
	b, err := json.Marshal(OrderRequest{
		UserID:        "5",
		PaymentMethod: "credit_card",
		OrderItems:    []OrderItem{{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("8.50")}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"5","shippingAddress":"","paymentMethod":"credit_card","orderItems":[{"productId":2,"quantity":1,"price":8.5}]}`, string(b))

	var item OrderItem
	require.NoError(t, json.Unmarshal([]byte(`{"productId":2,"quantity":1,"price":"8.50"}`), &item))
	assert.True(t, item.Price.Equal(decimal.RequireFromString("8.5")), "quoted amounts still decode")
}

func TestStatusTag(t *testing.T) {
	assert.Equal(t, "yellow", OrderPending.Tag())
	assert.Equal(t, "red", OrderCancelled.Tag())
	assert.Equal(t, "gray", OrderStatus("ON_HOLD").Tag())
}
