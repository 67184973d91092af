// Package backend is the typed HTTP client for the commerce REST backend.
// Every call is a single request: no retries, no caching.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/session"
)

const maxErrorBody = 4 << 10

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every backend call; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Products ---

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := c.do(ctx, "list products", http.MethodGet, "/api/products", nil, "", nil, &products)
	return products, err
}

func (c *Client) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	var product models.Product
	err := c.do(ctx, "get product", http.MethodGet, "/api/products/"+strconv.FormatInt(id, 10), nil, "", nil, &product)
	return product, err
}

// --- Carts ---

func (c *Client) GetCart(ctx context.Context, sess session.Context) (models.Cart, error) {
	var cart models.Cart
	err := c.do(ctx, "get cart", http.MethodGet, cartPath(sess.UserID, ""), nil, sess.Token, nil, &cart)
	return normalizeCart(cart, sess.UserID), err
}

func (c *Client) AddToCart(ctx context.Context, sess session.Context, productID int64, quantity int) (models.Cart, error) {
	q := url.Values{}
	q.Set("productId", strconv.FormatInt(productID, 10))
	q.Set("quantity", strconv.Itoa(quantity))

	var cart models.Cart
	err := c.do(ctx, "add to cart", http.MethodPost, cartPath(sess.UserID, "/add"), q, sess.Token, nil, &cart)
	return normalizeCart(cart, sess.UserID), err
}

func (c *Client) RemoveFromCart(ctx context.Context, sess session.Context, productID int64) (models.Cart, error) {
	q := url.Values{}
	q.Set("productId", strconv.FormatInt(productID, 10))

	var cart models.Cart
	err := c.do(ctx, "remove from cart", http.MethodDelete, cartPath(sess.UserID, "/remove"), q, sess.Token, nil, &cart)
	return normalizeCart(cart, sess.UserID), err
}

// ClearCart ignores the response body; success means an empty cart.
func (c *Client) ClearCart(ctx context.Context, sess session.Context) error {
	return c.do(ctx, "clear cart", http.MethodDelete, cartPath(sess.UserID, "/clear"), nil, sess.Token, nil, nil)
}

// --- Users ---

func (c *Client) GetUser(ctx context.Context, sess session.Context) (models.UserProfile, error) {
	var profile models.UserProfile
	err := c.do(ctx, "get user", http.MethodGet, "/api/users/"+url.PathEscape(sess.UserID), nil, sess.Token, nil, &profile)
	return profile, err
}

func (c *Client) UpdateUser(ctx context.Context, sess session.Context, profile models.UserProfile) (models.UserProfile, error) {
	var updated models.UserProfile
	err := c.do(ctx, "update user", http.MethodPut, "/api/users/"+url.PathEscape(sess.UserID), nil, sess.Token, profile, &updated)
	return updated, err
}

// --- Orders ---

func (c *Client) CreateOrder(ctx context.Context, sess session.Context, req models.OrderRequest) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, "create order", http.MethodPost, "/api/orders/user/"+url.PathEscape(sess.UserID), nil, sess.Token, req, &order)
	return order, err
}

func (c *Client) ListOrders(ctx context.Context, sess session.Context) ([]models.Order, error) {
	var orders []models.Order
	err := c.do(ctx, "list orders", http.MethodGet, "/api/orders/user/"+url.PathEscape(sess.UserID), nil, sess.Token, nil, &orders)
	return orders, err
}

func cartPath(userID, suffix string) string {
	return "/api/carts/user/" + url.PathEscape(userID) + suffix
}

func normalizeCart(cart models.Cart, userID string) models.Cart {
	if cart.UserID == "" {
		cart.UserID = userID
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	cart.Recalculate()
	return cart
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, token string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindDecode, Op: op, Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Kind: KindStatus, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &Error{Kind: KindDecode, Op: op, Err: err}
	}
	return nil
}
