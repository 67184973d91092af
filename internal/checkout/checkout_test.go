package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepFlow(t *testing.T) {
	co := newCheckout("c1", "u1", time.Now())
	assert.Equal(t, StepShipping, co.Step)

	assert.ErrorIs(t, co.Back(), ErrInvalidTransition)
	assert.ErrorIs(t, co.Next(), ErrValidation)
	assert.Equal(t, StepShipping, co.Step)
	assert.NotEmpty(t, co.Errors)

	co.Form.ShippingInfo = validShipping()
	require.NoError(t, co.Next())
	assert.Equal(t, StepBilling, co.Step)
	assert.Empty(t, co.Errors)

	require.NoError(t, co.Next(), "billing skipped when same as shipping")
	assert.Equal(t, StepPayment, co.Step)

	require.NoError(t, co.Back())
	assert.Equal(t, StepBilling, co.Step)
	require.NoError(t, co.GoTo(StepPayment))

	assert.ErrorIs(t, co.GoTo(StepShipping), ErrInvalidTransition, "no skipping")

	co.Form.PaymentInfo = validPayment()
	require.NoError(t, co.Next())
	assert.Equal(t, StepReview, co.Step)
	assert.True(t, co.PaymentValidated)
	assert.Equal(t, "**** **** **** 1111", co.Form.PaymentInfo.CardNumber)

	assert.ErrorIs(t, co.Next(), ErrInvalidTransition)

	// back and forth over payment keeps the earlier validation
	require.NoError(t, co.Back())
	require.NoError(t, co.Next())
	assert.Equal(t, StepReview, co.Step)
	assert.Empty(t, co.validateAll())
}

func TestBillingRequiredWhenNotSameAsShipping(t *testing.T) {
	co := newCheckout("c1", "u1", time.Now())
	co.Form.ShippingInfo = validShipping()
	require.NoError(t, co.Next())

	co.Form.BillingInfo.SameAsShipping = false
	assert.ErrorIs(t, co.Next(), ErrValidation)
	assert.Contains(t, co.Errors, "billing_firstName")
	assert.Equal(t, StepBilling, co.Step)
}

func TestPlacedIsTerminal(t *testing.T) {
	co := newCheckout("c1", "u1", time.Now())
	co.Step = StepPlaced
	assert.ErrorIs(t, co.Next(), ErrPlaced)
	assert.ErrorIs(t, co.Back(), ErrPlaced)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "shipping", StepShipping.String())
	assert.Equal(t, "placed", StepPlaced.String())
	assert.Equal(t, "unknown", Step(9).String())
}
