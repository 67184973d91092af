// Package checkout runs the four-step checkout: shipping, billing, payment,
// review. Moving forward is gated by validation of the current step; the
// review step submits a single order and clears the cart.
package checkout

import (
	"errors"
	"time"

	"storefront/internal/models"
)

type Step int

const (
	StepShipping Step = iota + 1
	StepBilling
	StepPayment
	StepReview
	StepPlaced
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepBilling:
		return "billing"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepPlaced:
		return "placed"
	default:
		return "unknown"
	}
}

const (
	SubmitErrorKey  = "submit"
	MsgSubmitFailed = "Failed to place order. Please try again."
	PaymentMethod   = "credit_card"
)

var (
	ErrInvalidTransition = errors.New("checkout: invalid step transition")
	ErrValidation        = errors.New("checkout: validation failed")
	ErrPlaced            = errors.New("checkout: order already placed")
)

// Redirect tells the browser where to go once the order is placed.
type Redirect struct {
	To      string    `json:"to"`
	DelayMs int64     `json:"delayMs"`
	At      time.Time `json:"at"`
}

type Checkout struct {
	ID     string            `json:"id"`
	UserID string            `json:"userId"`
	Step   Step              `json:"step"`
	Form   Form              `json:"form"`
	Errors map[string]string `json:"errors"`
	// PaymentValidated is set once the payment step passed; the card data is
	// masked from then on and never stored in clear.
	PaymentValidated bool          `json:"paymentValidated"`
	Cart             models.Cart   `json:"cart"`
	Order            *models.Order `json:"order,omitempty"`
	Redirect         *Redirect     `json:"redirect,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func newCheckout(id, userID string, now time.Time) *Checkout {
	return &Checkout{
		ID:        id,
		UserID:    userID,
		Step:      StepShipping,
		Form:      newForm(),
		Errors:    map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Checkout) Placed() bool { return c.Step == StepPlaced }

// Next validates the current step and advances one step. On failure the
// field errors are kept on the checkout and the step does not change.
func (c *Checkout) Next() error {
	if c.Placed() {
		return ErrPlaced
	}
	if c.Step >= StepReview {
		return ErrInvalidTransition
	}
	if c.Step == StepPayment && c.PaymentValidated {
		c.Errors = map[string]string{}
		c.Step++
		return nil
	}
	errs := Validate(c.Form, c.Step)
	c.Errors = errs
	if len(errs) > 0 {
		return ErrValidation
	}
	if c.Step == StepPayment {
		c.Form.PaymentInfo = c.Form.PaymentInfo.Masked()
		c.PaymentValidated = true
	}
	c.Step++
	return nil
}

// Back returns to the previous step without validating.
func (c *Checkout) Back() error {
	if c.Placed() {
		return ErrPlaced
	}
	if c.Step <= StepShipping {
		return ErrInvalidTransition
	}
	c.Step--
	c.Errors = map[string]string{}
	return nil
}

// GoTo moves to an adjacent step; anything else is refused.
func (c *Checkout) GoTo(step Step) error {
	switch step {
	case c.Step + 1:
		return c.Next()
	case c.Step - 1:
		return c.Back()
	case c.Step:
		return nil
	}
	return ErrInvalidTransition
}

// validateAll re-checks every form step before submission, since fields of
// earlier steps may have been edited after they were left.
func (c *Checkout) validateAll() map[string]string {
	errs := map[string]string{}
	steps := []Step{StepShipping, StepBilling}
	if !c.PaymentValidated {
		steps = append(steps, StepPayment)
	}
	for _, step := range steps {
		for k, v := range Validate(c.Form, step) {
			errs[k] = v
		}
	}
	return errs
}

func (c *Checkout) orderRequest() models.OrderRequest {
	items := make([]models.OrderItem, 0, len(c.Cart.Items))
	for _, item := range c.Cart.Items {
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return models.OrderRequest{
		UserID:          c.UserID,
		ShippingAddress: c.Form.ShippingInfo.ShippingAddress(),
		PaymentMethod:   PaymentMethod,
		OrderItems:      items,
	}
}

// View is the checkout as sent to the browser, with card data masked.
func (c *Checkout) View() Checkout {
	v := *c
	v.Form.PaymentInfo = c.Form.PaymentInfo.Masked()
	return v
}
