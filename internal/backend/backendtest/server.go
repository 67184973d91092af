// Package backendtest runs an in-memory stand-in for the commerce backend
// over httptest, recording every request it receives.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/backend"
	"storefront/internal/models"
)

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Auth   string
}

type failure struct {
	method string
	path   string
	status int
}

type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	products []models.Product
	carts    map[string][]models.CartItem
	profiles map[string]models.UserProfile
	orders   map[string][]models.Order
	nextID   int64
	requests []Request
	failures []failure
	delay    map[string]time.Duration
}

func New(t testing.TB) *Server {
	s := &Server{
		carts:    make(map[string][]models.CartItem),
		profiles: make(map[string]models.UserProfile),
		orders:   make(map[string][]models.Order),
		nextID:   1000,
		delay:    make(map[string]time.Duration),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", s.listProducts)
	mux.HandleFunc("GET /api/products/{id}", s.getProduct)
	mux.HandleFunc("GET /api/carts/user/{userId}", s.getCart)
	mux.HandleFunc("POST /api/carts/user/{userId}/add", s.addToCart)
	mux.HandleFunc("DELETE /api/carts/user/{userId}/remove", s.removeFromCart)
	mux.HandleFunc("DELETE /api/carts/user/{userId}/clear", s.clearCart)
	mux.HandleFunc("GET /api/users/{userId}", s.getUser)
	mux.HandleFunc("PUT /api/users/{userId}", s.putUser)
	mux.HandleFunc("POST /api/orders/user/{userId}", s.createOrder)
	mux.HandleFunc("GET /api/orders/user/{userId}", s.listOrders)

	s.srv = httptest.NewServer(s.record(mux))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) URL() string { return s.srv.URL }

// NewClient returns a backend client pointed at the server.
func (s *Server) NewClient() *backend.Client {
	return backend.New(s.srv.URL, backend.WithHTTPClient(s.srv.Client()))
}

func (s *Server) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
}

func (s *Server) SetProfile(userID string, p models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = p
}

func (s *Server) AddOrder(userID string, o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[userID] = append(s.orders[userID], o)
}

// Fail makes every request matching method and path answer with status
// until Recover is called.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status})
}

func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = nil
}

// Delay holds responses to requests on path for d.
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay[path] = d
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) Orders(userID string) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Order(nil), s.orders[userID]...)
}

func (s *Server) CartItems(userID string) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem(nil), s.carts[userID]...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   body,
			Auth:   r.Header.Get("Authorization"),
		})
		status := 0
		for _, f := range s.failures {
			if f.method == r.Method && f.path == r.URL.Path {
				status = f.status
				break
			}
		}
		d := s.delay[r.URL.Path]
		s.mu.Unlock()

		if d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			http.Error(w, `{"error":"forced failure"}`, status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) findProduct(id int64) (models.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.findProduct(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// cartBody mirrors the backend's cart payload: items nest their product and
// do not repeat productId.
type cartBody struct {
	UserID      string          `json:"userId"`
	CartItems   []cartItemBody  `json:"cartItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type cartItemBody struct {
	Product  models.Product  `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (s *Server) cartLocked(userID string) cartBody {
	body := cartBody{UserID: userID, CartItems: []cartItemBody{}, TotalAmount: decimal.Zero}
	for _, item := range s.carts[userID] {
		p, _ := s.findProduct(item.ProductID)
		body.CartItems = append(body.CartItems, cartItemBody{Product: p, Quantity: item.Quantity, Price: item.Price})
		body.TotalAmount = body.TotalAmount.Add(item.Subtotal())
	}
	return body
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.cartLocked(r.PathValue("userId")))
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	productID, _ := strconv.ParseInt(r.URL.Query().Get("productId"), 10, 64)
	quantity, _ := strconv.Atoi(r.URL.Query().Get("quantity"))

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.findProduct(productID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	if quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
		return
	}

	items := s.carts[userID]
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			if items[i].Quantity+quantity > p.StockQuantity {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient stock"})
				return
			}
			items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		if quantity > p.StockQuantity {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient stock"})
			return
		}
		items = append(items, models.CartItem{ProductID: productID, Quantity: quantity, Price: p.Price})
	}
	s.carts[userID] = items
	writeJSON(w, http.StatusOK, s.cartLocked(userID))
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	productID, _ := strconv.ParseInt(r.URL.Query().Get("productId"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.carts[userID][:0:0]
	for _, item := range s.carts[userID] {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.carts[userID] = kept
	writeJSON(w, http.StatusOK, s.cartLocked(userID))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, r.PathValue("userId"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[r.PathValue("userId")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) putUser(w http.ResponseWriter, r *http.Request) {
	var p models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[r.PathValue("userId")] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.OrderItems) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, item := range req.OrderItems {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	s.nextID++
	order := models.Order{
		ID:              s.nextID,
		UserID:          req.UserID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		OrderItems:      req.OrderItems,
		Status:          models.OrderPending,
		TotalAmount:     total,
		CreatedAt:       time.Now().UTC(),
	}
	userID := r.PathValue("userId")
	s.orders[userID] = append(s.orders[userID], order)
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := append([]models.Order{}, s.orders[r.PathValue("userId")]...)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	writeJSON(w, http.StatusOK, orders)
}
