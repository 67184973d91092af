// Package catalog serves the product list and detail views. Products are
// fetched once per call; filtering and sorting happen here, over the full
// list.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/session"
)

const relatedLimit = 4

const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

var (
	ErrOutOfStock  = errors.New("catalog: product out of stock")
	ErrNotFound    = errors.New("catalog: product not found")
	ErrUnavailable = errors.New("catalog: products unavailable")
)

type Backend interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
}

type CartAdder interface {
	Add(ctx context.Context, sess session.Context, productID int64, quantity int) (cart.State, error)
	Snapshot(ctx context.Context, userID string) (cart.State, error)
}

type Query struct {
	Search   string `form:"q"`
	Category string `form:"category"`
	Sort     string `form:"sort"`
}

type Detail struct {
	Product models.Product   `json:"product"`
	Related []models.Product `json:"related"`
}

type Service struct {
	backend Backend
	carts   CartAdder
	log     *slog.Logger
}

func NewService(b Backend, carts CartAdder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{backend: b, carts: carts, log: log.With("component", "catalog")}
}

func (s *Service) List(ctx context.Context, q Query) ([]models.Product, error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		s.log.Error("product list failed", "kind", backend.KindOf(err).String(), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return Apply(products, q), nil
}

// Get returns one product plus up to four others from the catalog. The
// related list is best effort.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	p, err := s.backend.GetProduct(ctx, id)
	if err != nil {
		if backend.StatusOf(err) == http.StatusNotFound {
			return Detail{}, ErrNotFound
		}
		s.log.Error("product fetch failed", "product_id", id, "kind", backend.KindOf(err).String(), "error", err)
		return Detail{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	d := Detail{Product: p, Related: []models.Product{}}
	all, err := s.backend.ListProducts(ctx)
	if err != nil {
		s.log.Warn("related products skipped", "product_id", id, "error", err)
		return d, nil
	}
	for _, other := range all {
		if len(d.Related) == relatedLimit {
			break
		}
		if other.ID != p.ID {
			d.Related = append(d.Related, other)
		}
	}
	return d, nil
}

// AddToCart clamps the requested quantity to the stock not already in the
// cart and hands it to the cart store. Nothing is sent when no units are
// left.
func (s *Service) AddToCart(ctx context.Context, sess session.Context, productID int64, quantity int) (cart.State, error) {
	p, err := s.backend.GetProduct(ctx, productID)
	if err != nil {
		if backend.StatusOf(err) == http.StatusNotFound {
			return cart.State{}, ErrNotFound
		}
		return cart.State{}, fmt.Errorf("%w: %w", cart.ErrOperationFailed, err)
	}

	st, err := s.carts.Snapshot(ctx, sess.UserID)
	if err != nil {
		s.log.Warn("cart projection unreadable, clamping to stock", "user_id", sess.UserID, "error", err)
	}
	p.StockQuantity -= st.QuantityOf(productID)

	q := ClampQuantity(p, quantity)
	if q == 0 {
		return st, ErrOutOfStock
	}
	return s.carts.Add(ctx, sess, productID, q)
}

// ClampQuantity bounds q to [1, stock]; it is 0 when nothing is in stock.
func ClampQuantity(p models.Product, q int) int {
	if p.StockQuantity <= 0 {
		return 0
	}
	if q < 1 {
		return 1
	}
	if q > p.StockQuantity {
		return p.StockQuantity
	}
	return q
}

// Apply filters and sorts an already fetched product list. The input is
// not modified.
func Apply(products []models.Product, q Query) []models.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.TrimSpace(q.Category)

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	}
	return out
}

// QuantityInCart is what the detail view shows as already in the cart.
func QuantityInCart(c models.Cart, productID int64) int {
	return c.QuantityOf(productID)
}
