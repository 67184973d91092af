package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Cart struct {
	UserID      string          `json:"userId"`
	Items       []CartItem      `json:"cartItems"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type CartItem struct {
	ProductID int64           `json:"productId"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// UnmarshalJSON accepts the product id either flat (productId) or nested
// under product.id, the backend sends both shapes.
func (i *CartItem) UnmarshalJSON(data []byte) error {
	type raw CartItem
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.ProductID == 0 && r.Product != nil {
		r.ProductID = r.Product.ID
	}
	*i = CartItem(r)
	return nil
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Recalculate derives TotalItems from the items. TotalAmount is kept when the
// backend reported one and recomputed otherwise.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
		total = total.Add(item.Subtotal())
	}
	c.TotalItems = count
	if c.TotalAmount.IsZero() {
		c.TotalAmount = total
	}
}

// QuantityOf returns how many units of productID the cart holds.
func (c Cart) QuantityOf(productID int64) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}
