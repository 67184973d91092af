package models

import "github.com/shopspring/decimal"

// Amounts travel as JSON numbers, the shape the backend and UI exchange.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is owned by the backend; the storefront never mutates it.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Category      string          `json:"category,omitempty"`
}

func (p Product) InStock() bool {
	return p.StockQuantity > 0
}
