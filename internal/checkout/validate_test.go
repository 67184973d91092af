package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validShipping() ShippingInfo {
	return ShippingInfo{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "(555) 123-4567",
		Address:   "1 Main St",
		City:      "Boulder",
		State:     "CO",
		ZipCode:   "80301",
	}
}

func validPayment() PaymentInfo {
	return PaymentInfo{
		CardNumber: "4111 1111 1111 1111",
		CardName:   "Ada Lovelace",
		ExpiryDate: "09/29",
		CVV:        "123",
	}
}

func TestValidateShippingMissingEmail(t *testing.T) {
	f := newForm()
	f.ShippingInfo = validShipping()
	f.ShippingInfo.Email = ""

	errs := Validate(f, StepShipping)
	require.Len(t, errs, 1)
	assert.Equal(t, MsgRequired, errs["shipping_email"])
}

func TestValidateShippingFormats(t *testing.T) {
	f := newForm()
	f.ShippingInfo = validShipping()
	assert.Empty(t, Validate(f, StepShipping))

	f.ShippingInfo.Email = "not-an-email"
	f.ShippingInfo.Phone = "12345"
	errs := Validate(f, StepShipping)
	assert.Equal(t, map[string]string{
		"shipping_email": "Invalid email format",
		"shipping_phone": "Invalid phone number",
	}, errs)
}

func TestValidateShippingAllMissing(t *testing.T) {
	errs := Validate(newForm(), StepShipping)
	for _, field := range []string{"firstName", "lastName", "email", "phone", "address", "city", "state", "zipCode"} {
		assert.Equal(t, MsgRequired, errs["shipping_"+field], field)
	}
	assert.NotContains(t, errs, "shipping_country")
	assert.Len(t, errs, 8)
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("(555) 123-4567"))
	assert.True(t, ValidPhone("5551234567"))
	assert.False(t, ValidPhone("12345"))
	assert.False(t, ValidPhone("+1 (555) 123-4567"))
}

func TestValidCardNumber(t *testing.T) {
	assert.True(t, ValidCardNumber("4111 1111 1111 1111"))
	assert.True(t, ValidCardNumber("4111111111111111"))
	assert.False(t, ValidCardNumber("1234"))
	assert.False(t, ValidCardNumber("4111-1111-1111-1111"))
}

func TestValidatePayment(t *testing.T) {
	f := newForm()
	f.PaymentInfo = validPayment()
	assert.Empty(t, Validate(f, StepPayment))

	tests := []struct {
		name string
		edit func(*PaymentInfo)
		key  string
		msg  string
	}{
		{"short card", func(p *PaymentInfo) { p.CardNumber = "1234" }, "payment_cardNumber", "Invalid card number"},
		{"cvv letters", func(p *PaymentInfo) { p.CVV = "12a" }, "payment_cvv", "Invalid CVV"},
		{"cvv five digits", func(p *PaymentInfo) { p.CVV = "12345" }, "payment_cvv", "Invalid CVV"},
		{"month 13", func(p *PaymentInfo) { p.ExpiryDate = "13/30" }, "payment_expiryDate", "Invalid expiry date (MM/YY)"},
		{"month 00", func(p *PaymentInfo) { p.ExpiryDate = "00/30" }, "payment_expiryDate", "Invalid expiry date (MM/YY)"},
		{"long year", func(p *PaymentInfo) { p.ExpiryDate = "01/2030" }, "payment_expiryDate", "Invalid expiry date (MM/YY)"},
		{"no name", func(p *PaymentInfo) { p.CardName = "" }, "payment_cardName", MsgRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newForm()
			f.PaymentInfo = validPayment()
			tt.edit(&f.PaymentInfo)
			assert.Equal(t, map[string]string{tt.key: tt.msg}, Validate(f, StepPayment))
		})
	}

	f.PaymentInfo.CVV = "1234"
	assert.Empty(t, Validate(f, StepPayment), "four digit cvv")
}

func TestValidateBillingSkippedWhenSameAsShipping(t *testing.T) {
	f := newForm()
	require.True(t, f.BillingInfo.SameAsShipping)
	assert.Empty(t, Validate(f, StepBilling))

	f.BillingInfo.SameAsShipping = false
	errs := Validate(f, StepBilling)
	assert.Len(t, errs, 6)
	assert.Equal(t, MsgRequired, errs["billing_city"])
}

func TestSameAsShippingMirrorsEdits(t *testing.T) {
	f := newForm()
	require.NoError(t, f.SetShippingField("city", "Denver"))
	assert.Equal(t, "Denver", f.BillingInfo.City)

	require.NoError(t, f.SetShippingField("email", "a@b.co"))
	require.NoError(t, f.SetBillingField("city", "Austin"))
	assert.Equal(t, "Denver", f.ShippingInfo.City, "billing edits never flow back")

	f.BillingInfo.SameAsShipping = false
	require.NoError(t, f.SetShippingField("city", "Reno"))
	assert.Equal(t, "Austin", f.BillingInfo.City)

	assert.ErrorIs(t, f.SetShippingField("nope", "x"), ErrUnknownField)
	assert.ErrorIs(t, f.SetBillingField("email", "x"), ErrUnknownField)
	assert.ErrorIs(t, f.SetPaymentField("pin", "x"), ErrUnknownField)
}

func TestShippingAddress(t *testing.T) {
	assert.Equal(t, "1 Main St, Boulder, CO 80301", validShipping().ShippingAddress())
}

func TestMasked(t *testing.T) {
	m := validPayment().Masked()
	assert.Equal(t, "**** **** **** 1111", m.CardNumber)
	assert.Equal(t, "***", m.CVV)
	assert.Equal(t, "09/29", m.ExpiryDate)
	assert.Empty(t, PaymentInfo{}.Masked().CVV)
}
