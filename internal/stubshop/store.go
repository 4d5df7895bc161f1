package stubshop

import (
	"errors"
	"sort"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrVariationNotFound = errors.New("variation not found")
	ErrLineNotFound      = errors.New("cart item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBadCredentials    = errors.New("invalid email or password")
)

// User is an account known to the stub shop.
type User struct {
	ID        int64
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// catalogEntry joins a variation with the product fields the cart
// denormalizes into its lines.
type catalogEntry struct {
	variation   domain.Variation
	productName string
	imageURL    string
	unitPrice   decimal.Decimal
}

type cartLine struct {
	cartItemID  int64
	variationID int64
	quantity    int
}

// Store is the in-memory state behind the stub shop: users, catalog and one
// cart per user. It enforces the same invariants the real backend does: at
// most one line per variation, stock-checked mutations, server-computed line
// totals.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*User // by email
	products   []domain.Product
	categories []domain.Category
	catalog    map[int64]*catalogEntry // by variation id
	carts      map[int64][]*cartLine   // by user id
	nextLineID int64
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]*User),
		catalog:    make(map[int64]*catalogEntry),
		carts:      make(map[int64][]*cartLine),
		nextLineID: 1,
	}
}

func (s *Store) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := u
	s.users[u.Email] = &user
}

func (s *Store) AddProduct(p domain.Product, variations ...domain.Variation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
	for _, v := range variations {
		v.ProductID = p.ID
		s.catalog[v.ID] = &catalogEntry{
			variation:   v,
			productName: p.Name,
			imageURL:    p.ImageURL,
			unitPrice:   p.Price,
		}
	}
}

func (s *Store) AddCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
}

// SetStock overrides a variation's stock level, mainly for tests.
func (s *Store) SetStock(variationID int64, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.catalog[variationID]
	if !ok {
		return ErrVariationNotFound
	}
	entry.variation.AvailableStock = stock
	return nil
}

// Authenticate checks the password and returns the account.
func (s *Store) Authenticate(email, password string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email]
	if !ok || user.Password != password {
		return User{}, ErrBadCredentials
	}
	return *user, nil
}

func (s *Store) UserByID(id int64) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.ID == id {
			return *user, true
		}
	}
	return User{}, false
}

// AddItem merges quantity units of the variation into the user's cart,
// keeping at most one line per variation, and returns the canonical line.
func (s *Store) AddItem(userID, variationID int64, quantity int) (domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.catalog[variationID]
	if !ok {
		return domain.CartItem{}, ErrVariationNotFound
	}
	for _, line := range s.carts[userID] {
		if line.variationID == variationID {
			wanted := line.quantity + quantity
			if wanted > entry.variation.AvailableStock {
				return domain.CartItem{}, ErrInsufficientStock
			}
			line.quantity = wanted
			return s.renderLocked(line), nil
		}
	}
	if quantity > entry.variation.AvailableStock {
		return domain.CartItem{}, ErrInsufficientStock
	}
	line := &cartLine{
		cartItemID:  s.nextLineID,
		variationID: variationID,
		quantity:    quantity,
	}
	s.nextLineID++
	s.carts[userID] = append(s.carts[userID], line)
	return s.renderLocked(line), nil
}

// Items renders the user's cart in insertion order.
func (s *Store) Items(userID int64) []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]domain.CartItem, 0, len(s.carts[userID]))
	for _, line := range s.carts[userID] {
		items = append(items, s.renderLocked(line))
	}
	return items
}

// UpdateQuantity sets a line's quantity. Zero deletes the line and returns
// nil, mirroring the wire contract.
func (s *Store) UpdateQuantity(userID, cartItemID int64, quantity int) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i, line := range lines {
		if line.cartItemID != cartItemID {
			continue
		}
		if quantity == 0 {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			return nil, nil
		}
		entry := s.catalog[line.variationID]
		if quantity > entry.variation.AvailableStock {
			return nil, ErrInsufficientStock
		}
		line.quantity = quantity
		item := s.renderLocked(line)
		return &item, nil
	}
	return nil, ErrLineNotFound
}

func (s *Store) Remove(userID, cartItemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i, line := range lines {
		if line.cartItemID == cartItemID {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

func (s *Store) Summary(userID int64) domain.CartSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := domain.CartSummary{TotalPrice: decimal.Zero}
	for _, line := range s.carts[userID] {
		item := s.renderLocked(line)
		summary.TotalItems += item.Quantity
		summary.TotalPrice = summary.TotalPrice.Add(item.LineTotal)
	}
	return summary
}

func (s *Store) Stock(variationID int64) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.catalog[variationID]
	if !ok {
		return 0, false
	}
	return entry.variation.AvailableStock, true
}

func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.products...)
}

func (s *Store) ProductsByCategory(categoryID int64) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Product
	for _, p := range s.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) Product(id int64) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Store) VariationsByProduct(productID int64) []domain.Variation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Variation
	for _, entry := range s.catalog {
		if entry.variation.ProductID == productID {
			out = append(out, entry.variation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Category(nil), s.categories...)
}

// renderLocked builds the denormalized wire form of a line. LineTotal is
// always unit price times quantity; the client mirrors that invariant.
func (s *Store) renderLocked(line *cartLine) domain.CartItem {
	entry := s.catalog[line.variationID]
	return domain.CartItem{
		CartItemID:     line.cartItemID,
		VariationID:    line.variationID,
		Quantity:       line.quantity,
		UnitPrice:      entry.unitPrice,
		LineTotal:      entry.unitPrice.Mul(decimal.NewFromInt(int64(line.quantity))),
		ProductName:    entry.productName,
		ImageURL:       entry.imageURL,
		Size:           entry.variation.Size,
		Color:          entry.variation.Color,
		AvailableStock: entry.variation.AvailableStock,
	}
}
