package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// State is the storefront's projection of one user's server-side cart.
type State struct {
	UserID      string            `json:"userId"`
	Items       []models.CartItem `json:"items"`
	TotalItems  int               `json:"totalItems"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Loading     bool              `json:"loading"`
	Error       string            `json:"error,omitempty"`
	Version     int64             `json:"version"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func emptyState(userID string) State {
	return State{
		UserID:      userID,
		Items:       []models.CartItem{},
		TotalAmount: decimal.Zero,
	}
}

// replace swaps in the server's cart wholesale.
func (s *State) replace(c models.Cart, now time.Time) {
	s.Items = c.Items
	if s.Items == nil {
		s.Items = []models.CartItem{}
	}
	s.TotalItems = c.TotalItems
	s.TotalAmount = c.TotalAmount
	s.Loading = false
	s.Error = ""
	s.Version++
	s.UpdatedAt = now
}

func (s *State) reset(now time.Time) {
	s.replace(models.Cart{}, now)
	s.TotalAmount = decimal.Zero
}

func (s *State) fail(msg string) {
	s.Loading = false
	s.Error = msg
}

// Cart returns the projection as a models.Cart.
func (s State) Cart() models.Cart {
	return models.Cart{
		UserID:      s.UserID,
		Items:       s.Items,
		TotalItems:  s.TotalItems,
		TotalAmount: s.TotalAmount,
	}
}

func (s State) QuantityOf(productID int64) int {
	return s.Cart().QuantityOf(productID)
}
