package checkout

import "errors"

var ErrUnknownField = errors.New("checkout: unknown field")

type ShippingInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email_shape"`
	Phone     string `json:"phone" validate:"required,phone10"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country"`
}

type BillingInfo struct {
	SameAsShipping bool   `json:"sameAsShipping"`
	FirstName      string `json:"firstName" validate:"required"`
	LastName       string `json:"lastName" validate:"required"`
	Address        string `json:"address" validate:"required"`
	City           string `json:"city" validate:"required"`
	State          string `json:"state" validate:"required"`
	ZipCode        string `json:"zipCode" validate:"required"`
	Country        string `json:"country"`
}

type PaymentInfo struct {
	CardNumber string `json:"cardNumber" validate:"required,card16"`
	CardName   string `json:"cardName" validate:"required"`
	ExpiryDate string `json:"expiryDate" validate:"required,expiry"`
	CVV        string `json:"cvv" validate:"required,cvv"`
}

// Masked keeps only the last four card digits, for views sent to the browser.
func (p PaymentInfo) Masked() PaymentInfo {
	masked := PaymentInfo{CardName: p.CardName, ExpiryDate: p.ExpiryDate}
	digits := stripSpaces(p.CardNumber)
	if len(digits) >= 4 {
		masked.CardNumber = "**** **** **** " + digits[len(digits)-4:]
	}
	if p.CVV != "" {
		masked.CVV = "***"
	}
	return masked
}

type Form struct {
	ShippingInfo   ShippingInfo `json:"shippingInfo"`
	BillingInfo    BillingInfo  `json:"billingInfo"`
	PaymentInfo    PaymentInfo  `json:"paymentInfo"`
	DeliveryMethod string       `json:"deliveryMethod"`
}

func newForm() Form {
	return Form{
		BillingInfo:    BillingInfo{SameAsShipping: true},
		DeliveryMethod: "standard",
	}
}

// mirroredFields are the shipping fields copied into billing while
// sameAsShipping is set.
var mirroredFields = map[string]bool{
	"firstName": true,
	"lastName":  true,
	"address":   true,
	"city":      true,
	"state":     true,
	"zipCode":   true,
	"country":   true,
}

func (s *ShippingInfo) field(name string) *string {
	switch name {
	case "firstName":
		return &s.FirstName
	case "lastName":
		return &s.LastName
	case "email":
		return &s.Email
	case "phone":
		return &s.Phone
	case "address":
		return &s.Address
	case "city":
		return &s.City
	case "state":
		return &s.State
	case "zipCode":
		return &s.ZipCode
	case "country":
		return &s.Country
	}
	return nil
}

func (b *BillingInfo) field(name string) *string {
	switch name {
	case "firstName":
		return &b.FirstName
	case "lastName":
		return &b.LastName
	case "address":
		return &b.Address
	case "city":
		return &b.City
	case "state":
		return &b.State
	case "zipCode":
		return &b.ZipCode
	case "country":
		return &b.Country
	}
	return nil
}

func (p *PaymentInfo) field(name string) *string {
	switch name {
	case "cardNumber":
		return &p.CardNumber
	case "cardName":
		return &p.CardName
	case "expiryDate":
		return &p.ExpiryDate
	case "cvv":
		return &p.CVV
	}
	return nil
}

// SetShippingField edits one shipping field. While SameAsShipping is set the
// value is mirrored into billing; billing edits never flow back.
func (f *Form) SetShippingField(name, value string) error {
	dst := f.ShippingInfo.field(name)
	if dst == nil {
		return ErrUnknownField
	}
	*dst = value
	if f.BillingInfo.SameAsShipping && mirroredFields[name] {
		*f.BillingInfo.field(name) = value
	}
	return nil
}

func (f *Form) SetBillingField(name, value string) error {
	dst := f.BillingInfo.field(name)
	if dst == nil {
		return ErrUnknownField
	}
	*dst = value
	return nil
}

func (f *Form) SetPaymentField(name, value string) error {
	dst := f.PaymentInfo.field(name)
	if dst == nil {
		return ErrUnknownField
	}
	*dst = value
	return nil
}

// ShippingAddress is the single-line address sent with the order.
func (s ShippingInfo) ShippingAddress() string {
	return s.Address + ", " + s.City + ", " + s.State + " " + s.ZipCode
}
