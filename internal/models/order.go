package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

var orderStatusTags = map[OrderStatus]string{
	OrderPending:    "yellow",
	OrderProcessing: "blue",
	OrderShipped:    "purple",
	OrderDelivered:  "green",
	OrderCancelled:  "red",
}

// Tag is the display tag of the status; unknown statuses get "gray".
func (s OrderStatus) Tag() string {
	if tag, ok := orderStatusTags[s]; ok {
		return tag
	}
	return "gray"
}

type OrderItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderRequest is the body of the order-creation call.
type OrderRequest struct {
	UserID          string      `json:"userId"`
	ShippingAddress string      `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	OrderItems      []OrderItem `json:"orderItems"`
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"userId"`
	ShippingAddress string          `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	OrderItems      []OrderItem     `json:"orderItems"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CreatedAt       time.Time       `json:"createdAt"`
}
