package stubshop

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenTTL is the lifetime of tokens minted by the stub shop.
const TokenTTL = 24 * time.Hour

type contextKey string

const userIDKey contextKey = "user_id"

// Server is an in-process storefront backend implementing the HTTP contract
// the client consumes. It backs the demo command and the end-to-end tests; it
// is not a production service.
type Server struct {
	store   *Store
	secret  []byte
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewServer(store *Store, secret []byte, log *zap.Logger) *Server {
	return &Server{
		store:   store,
		secret:  secret,
		limiter: rate.NewLimiter(rate.Limit(200), 400),
		log:     log,
	}
}

// Handler builds the router for the storefront API surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.throttle)

	r.Post("/api/auth/login", s.login)

	r.Get("/api/products", s.products)
	r.Get("/api/products/{product_id}", s.product)
	r.Get("/api/product_variations/by-product/{product_id}", s.variations)
	r.Get("/api/categories", s.categories)

	r.Get("/api/stock/{variation_id}", s.stock)
	r.Get("/api/stock/{variation_id}/check", s.stockCheck)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/api/users/me", s.me)
		r.Route("/api/cart", func(r chi.Router) {
			r.Post("/add", s.addItem)
			r.Get("/items", s.items)
			r.Put("/update-quantity", s.updateQuantity)
			r.Delete("/remove/{cart_item_id}", s.removeItem)
			r.Delete("/clear", s.clearCart)
			r.Get("/summary", s.summary)
		})
	})
	return r
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.respondError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate validates the bearer token and puts the user id on the
// request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			s.respondError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}
		claims := jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			s.respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
			return
		}
		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid token subject")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid email or password")
		return
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "internal_error", "token signing failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"token": signed})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, ok := s.store.UserByID(s.userID(r))
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "unauthenticated", "unknown user")
		return
	}
	s.respondJSON(w, http.StatusOK, domain.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	})
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VariationID int64 `json:"variationId"`
		Quantity    int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		s.respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		return
	}
	item, err := s.store.AddItem(s.userID(r), req.VariationID, req.Quantity)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) items(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.store.Items(s.userID(r)))
}

func (s *Server) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CartItemID int64 `json:"cartItemId"`
		Quantity   int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not be negative")
		return
	}
	item, err := s.store.UpdateQuantity(s.userID(r), req.CartItemID, req.Quantity)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	// nil item encodes as JSON null: the quantity-zero delete case.
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	cartItemID, err := strconv.ParseInt(chi.URLParam(r, "cart_item_id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_cart_item_id", "cart item id must be an integer")
		return
	}
	if err := s.store.Remove(s.userID(r), cartItemID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.store.Clear(s.userID(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.store.Summary(s.userID(r)))
}

func (s *Server) stock(w http.ResponseWriter, r *http.Request) {
	variationID, err := strconv.ParseInt(chi.URLParam(r, "variation_id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_variation_id", "variation id must be an integer")
		return
	}
	stock, ok := s.store.Stock(variationID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "not_found", "variation not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"availableStock": stock})
}

func (s *Server) stockCheck(w http.ResponseWriter, r *http.Request) {
	variationID, err := strconv.ParseInt(chi.URLParam(r, "variation_id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_variation_id", "variation id must be an integer")
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be a non-negative integer")
		return
	}
	stock, ok := s.store.Stock(variationID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "not_found", "variation not found")
		return
	}
	s.respondJSON(w, http.StatusOK, domain.StockCheck{
		Sufficient:     quantity <= stock,
		AvailableStock: stock,
	})
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("category"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid_category", "category must be an integer")
			return
		}
		s.respondJSON(w, http.StatusOK, s.store.ProductsByCategory(categoryID))
		return
	}
	s.respondJSON(w, http.StatusOK, s.store.Products())
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}
	product, ok := s.store.Product(productID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	s.respondJSON(w, http.StatusOK, product)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) variations(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}
	s.respondJSON(w, http.StatusOK, s.store.VariationsByProduct(productID))
}

func (s *Server) userID(r *http.Request) int64 {
	if userID, ok := r.Context().Value(userIDKey).(int64); ok {
		return userID
	}
	return 0
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		s.respondError(w, http.StatusConflict, "insufficient_stock", "Insufficient stock for requested quantity")
	case errors.Is(err, ErrLineNotFound):
		s.respondError(w, http.StatusNotFound, "not_found", "cart item not found")
	case errors.Is(err, ErrVariationNotFound):
		s.respondError(w, http.StatusNotFound, "not_found", "variation not found")
	default:
		s.respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{Error: message, Code: code})
}
