package checkout_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/backend/backendtest"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/session"
)

var sess = session.Context{UserID: "5", Token: "tok"}

type fixture struct {
	srv   *backendtest.Server
	carts *cart.Store
	svc   *checkout.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	srv := backendtest.New(t)
	srv.AddProduct(models.Product{ID: 3, Name: "Kettle", Price: decimal.RequireFromString("24.00"), StockQuantity: 9})
	srv.SetProfile("5", models.UserProfile{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "555-123-4567",
		Address:   "1 Main St",
	})

	mem := cache.NewMemory()
	client := srv.NewClient()
	carts := cart.NewStore(client, mem, nil)
	svc := checkout.NewService(carts, client, mem, checkout.Config{}, nil)
	return fixture{srv: srv, carts: carts, svc: svc}
}

func (f fixture) toReview(t *testing.T, ctx context.Context) *checkout.Checkout {
	t.Helper()
	co, err := f.svc.Begin(ctx, sess)
	require.NoError(t, err)

	_, err = f.svc.EditShipping(ctx, sess, co.ID, map[string]string{"city": "Denver", "state": "CO", "zipCode": "80202"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = f.svc.Next(ctx, sess, co.ID)
		require.NoError(t, err)
	}
	_, err = f.svc.EditPayment(ctx, sess, co.ID, map[string]string{
		"cardNumber": "4111 1111 1111 1111",
		"cardName":   "Ada Lovelace",
		"expiryDate": "12/28",
		"cvv":        "123",
	})
	require.NoError(t, err)
	co, err = f.svc.Next(ctx, sess, co.ID)
	require.NoError(t, err)
	require.Equal(t, checkout.StepReview, co.Step)
	return co
}

func TestBeginPrefillsShipping(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	co, err := f.svc.Begin(ctx, sess)
	require.NoError(t, err)
	assert.NotEmpty(t, co.ID)
	assert.Equal(t, checkout.StepShipping, co.Step)
	assert.Equal(t, "Ada", co.Form.ShippingInfo.FirstName)
	assert.Equal(t, "ada@example.com", co.Form.ShippingInfo.Email)
	assert.Equal(t, "1 Main St", co.Form.BillingInfo.Address)
	assert.True(t, co.Form.BillingInfo.SameAsShipping)
	assert.Equal(t, "standard", co.Form.DeliveryMethod)
}

func TestBeginWithoutProfile(t *testing.T) {
	f := setup(t)
	f.srv.Fail(http.MethodGet, "/api/users/5", http.StatusInternalServerError)

	co, err := f.svc.Begin(context.Background(), sess)
	require.NoError(t, err)
	assert.Empty(t, co.Form.ShippingInfo.FirstName)
}

func TestNextBlockedOnMissingEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	co, err := f.svc.Begin(ctx, sess)
	require.NoError(t, err)
	_, err = f.svc.EditShipping(ctx, sess, co.ID, map[string]string{"email": "", "city": "Denver", "state": "CO", "zipCode": "80202"})
	require.NoError(t, err)

	before := len(f.srv.Requests())
	co, err = f.svc.Next(ctx, sess, co.ID)
	require.ErrorIs(t, err, checkout.ErrValidation)
	assert.Equal(t, checkout.StepShipping, co.Step)
	assert.Equal(t, map[string]string{"shipping_email": checkout.MsgRequired}, co.Errors)
	assert.Len(t, f.srv.Requests(), before, "validation makes no request")

	stored, err := f.svc.Get(ctx, sess, co.ID)
	require.NoError(t, err)
	assert.Equal(t, co.Errors, stored.Errors)
}

func TestSameAsShippingCityMirrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	co, err := f.svc.Begin(ctx, sess)
	require.NoError(t, err)
	co, err = f.svc.EditShipping(ctx, sess, co.ID, map[string]string{"city": "Denver"})
	require.NoError(t, err)
	assert.Equal(t, "Denver", co.Form.BillingInfo.City)
}

func TestSubmitPlacesOrderThenClearsCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.carts.Add(ctx, sess, 3, 2)
	require.NoError(t, err)

	co := f.toReview(t, ctx)
	mark := len(f.srv.Requests())

	co, err = f.svc.Submit(ctx, sess, co.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepPlaced, co.Step)
	require.NotNil(t, co.Order)
	require.NotNil(t, co.Redirect)
	assert.Equal(t, "/order-confirmation", co.Redirect.To)
	assert.Equal(t, int64(2000), co.Redirect.DelayMs)

	reqs := f.srv.Requests()[mark:]
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/orders/user/5", reqs[0].Path)
	assert.Equal(t, http.MethodDelete, reqs[1].Method)
	assert.Equal(t, "/api/carts/user/5/clear", reqs[1].Path)

	var body models.OrderRequest
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, "5", body.UserID)
	assert.Equal(t, "credit_card", body.PaymentMethod)
	assert.Equal(t, "1 Main St, Denver, CO 80202", body.ShippingAddress)
	require.Len(t, body.OrderItems, 1)
	assert.Equal(t, int64(3), body.OrderItems[0].ProductID)
	assert.Equal(t, 2, body.OrderItems[0].Quantity)
	assert.True(t, decimal.RequireFromString("24").Equal(body.OrderItems[0].Price))

	snap, err := f.carts.Snapshot(ctx, "5")
	require.NoError(t, err)
	assert.Zero(t, snap.TotalItems)

	_, err = f.svc.Submit(ctx, sess, co.ID)
	assert.ErrorIs(t, err, checkout.ErrPlaced)
}

func TestSubmitFailureStaysOnReview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.carts.Add(ctx, sess, 3, 1)
	require.NoError(t, err)
	co := f.toReview(t, ctx)

	f.srv.Fail(http.MethodPost, "/api/orders/user/5", http.StatusInternalServerError)
	mark := len(f.srv.Requests())

	co, err = f.svc.Submit(ctx, sess, co.ID)
	require.ErrorIs(t, err, checkout.ErrSubmit)
	assert.Equal(t, checkout.StepReview, co.Step)
	assert.Equal(t, checkout.MsgSubmitFailed, co.Errors[checkout.SubmitErrorKey])

	reqs := f.srv.Requests()[mark:]
	require.Len(t, reqs, 1, "no clear and no retry")
	assert.Equal(t, "/api/orders/user/5", reqs[0].Path)
	assert.Len(t, f.srv.CartItems("5"), 1)
}

func TestSubmitEmptyCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	co := f.toReview(t, ctx)

	co, err := f.svc.Submit(ctx, sess, co.ID)
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.Equal(t, checkout.StepReview, co.Step)
	assert.Empty(t, f.srv.Orders("5"))
}

func TestSubmitOnlyFromReview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	co, err := f.svc.Begin(ctx, sess)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, sess, co.ID)
	assert.ErrorIs(t, err, checkout.ErrInvalidTransition)
}

func TestCheckoutScopedToUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	co, err := f.svc.Begin(ctx, sess)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, session.Context{UserID: "other"}, co.ID)
	assert.ErrorIs(t, err, checkout.ErrNotFound)

	require.NoError(t, f.svc.Abandon(ctx, sess, co.ID))
	_, err = f.svc.Get(ctx, sess, co.ID)
	assert.ErrorIs(t, err, checkout.ErrNotFound)
}

func TestRedirectConfig(t *testing.T) {
	srv := backendtest.New(t)
	srv.AddProduct(models.Product{ID: 3, Price: decimal.NewFromInt(1), StockQuantity: 1})
	mem := cache.NewMemory()
	client := srv.NewClient()
	carts := cart.NewStore(client, mem, nil)
	svc := checkout.NewService(carts, client, mem, checkout.Config{RedirectTo: "/thanks", RedirectDelay: 5 * time.Second}, nil)
	ctx := context.Background()

	_, err := carts.Add(ctx, sess, 3, 1)
	require.NoError(t, err)
	co, err := svc.Begin(ctx, sess)
	require.NoError(t, err)
	_, err = svc.EditShipping(ctx, sess, co.ID, map[string]string{
		"firstName": "A", "lastName": "B", "email": "a@b.io", "phone": "5551234567",
		"address": "x", "city": "y", "state": "z", "zipCode": "1",
	})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = svc.Next(ctx, sess, co.ID)
		require.NoError(t, err)
	}
	_, err = svc.EditPayment(ctx, sess, co.ID, map[string]string{
		"cardNumber": "4111111111111111", "cardName": "A B", "expiryDate": "01/30", "cvv": "999",
	})
	require.NoError(t, err)
	_, err = svc.Next(ctx, sess, co.ID)
	require.NoError(t, err)

	co, err = svc.Submit(ctx, sess, co.ID)
	require.NoError(t, err)
	assert.Equal(t, "/thanks", co.Redirect.To)
	assert.Equal(t, int64(5000), co.Redirect.DelayMs)
}
