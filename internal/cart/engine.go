package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_storefront/internal/api"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("quantity must not be negative")

// API is the slice of the transport layer the engine drives. Consumers define
// this interface, not the HTTP implementation.
type API interface {
	Add(ctx context.Context, variationID int64, quantity int) (domain.CartItem, error)
	Items(ctx context.Context) ([]domain.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, quantity int) (*domain.CartItem, error)
	Remove(ctx context.Context, cartItemID int64) error
	Clear(ctx context.Context) error
}

// StockAPI answers feasibility questions. Failures are treated as
// insufficient stock, never as permission to proceed.
type StockAPI interface {
	Check(ctx context.Context, variationID int64, quantity int) (domain.StockCheck, error)
}

// IdentityGate is what the engine needs from the session layer: the identity
// held right now, checked per operation, and the transition stream.
type IdentityGate interface {
	Current() (domain.Identity, bool)
	Subscribe() <-chan session.Event
}

// Totals is the derived pair over the local mirror. It is recomputed on
// every observation, never cached across mutations.
type Totals struct {
	ItemCount int
	Total     decimal.Decimal
}

func (t Totals) String() string {
	return fmt.Sprintf("%d item(s), total %s", t.ItemCount, t.Total.StringFixed(2))
}

// Engine owns the authoritative local mirror of the server cart. Per item it
// allows one mutation in flight; later intents for the same item coalesce
// into a single follow-up request carrying the latest desired quantity, and
// the superseded response is discarded. All mirror mutations happen in
// completion handlers under the engine mutex. One Engine lives per session;
// identity transitions reload or clear the mirror.
type Engine struct {
	client API
	stock  StockAPI
	gate   IdentityGate
	log    *zap.Logger

	events <-chan session.Event

	mu    sync.Mutex
	items []domain.CartItem
	slots map[int64]*slot
	epoch uint64
}

// NewEngine wires the engine to its collaborators and subscribes to identity
// transitions immediately, so no event between construction and Run is lost.
func NewEngine(client API, stock StockAPI, gate IdentityGate, log *zap.Logger) *Engine {
	return &Engine{
		client: client,
		stock:  stock,
		gate:   gate,
		log:    log,
		events: gate.Subscribe(),
		slots:  make(map[int64]*slot),
	}
}

// Run reacts to identity transitions until ctx is done: login reloads the
// mirror from the server, logout clears it. Run the loop in its own
// goroutine.
func (e *Engine) Run(ctx context.Context) {
	events := e.events
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Type {
			case session.LoggedIn:
				if err := e.Reload(ctx); err != nil {
					e.log.Warn("cart reload after login failed", zap.Error(err))
				}
			case session.LoggedOut:
				e.reset()
			}
		}
	}
}

// Reload replaces the mirror with the server snapshot and invalidates every
// in-flight and queued mutation.
func (e *Engine) Reload(ctx context.Context) error {
	items, err := e.client.Items(ctx)
	if err != nil {
		return fmt.Errorf("reload cart: %w", err)
	}
	e.mu.Lock()
	e.epoch++
	e.items = items
	e.dropQueuedLocked()
	e.mu.Unlock()
	return nil
}

// reset empties the mirror on logout. Completions of requests issued before
// the reset observe the epoch bump and leave the empty cart alone.
func (e *Engine) reset() {
	e.mu.Lock()
	e.epoch++
	e.items = nil
	e.dropQueuedLocked()
	e.mu.Unlock()
}

func (e *Engine) dropQueuedLocked() {
	for _, s := range e.slots {
		s.pending = nil
	}
}

// AddItem puts quantity units of the variation into the cart. The variation's
// stock snapshot gates the request client-side; the server remains the final
// authority. On success the returned canonical line is upserted by
// CartItemID, replacing in place or appending, so the rest of the list keeps
// its order.
func (e *Engine) AddItem(ctx context.Context, variation domain.Variation, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("add item: %w", ErrInvalidQuantity)
	}
	if _, ok := e.gate.Current(); !ok {
		return fmt.Errorf("add item: %w", api.ErrUnauthenticated)
	}
	if wanted := quantity + e.quantityInCart(variation.ID); wanted > variation.AvailableStock {
		return fmt.Errorf("add item: %d of variation %d wanted, %d available: %w",
			wanted, variation.ID, variation.AvailableStock, api.ErrInsufficientStock)
	}

	e.mu.Lock()
	epoch := e.epoch
	e.mu.Unlock()

	item, err := e.client.Add(ctx, variation.ID, quantity)
	if err != nil {
		return fmt.Errorf("add item: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		e.log.Info("discarding add result after identity transition",
			zap.Int64("cart_item_id", item.CartItemID))
		return nil
	}
	e.upsertLocked(item)
	return nil
}

// SetQuantity sets the line's quantity through the per-item slot. Zero is
// equivalent to RemoveItem. The call resolves when the request carrying the
// latest coalesced intent for this item completes.
func (e *Engine) SetQuantity(ctx context.Context, cartItemID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("set quantity: %w", ErrInvalidQuantity)
	}
	if _, ok := e.gate.Current(); !ok {
		return fmt.Errorf("set quantity: %w", api.ErrUnauthenticated)
	}
	if quantity > 0 {
		if item, ok := e.item(cartItemID); ok && item.AvailableStock > 0 && quantity > item.AvailableStock {
			return fmt.Errorf("set quantity: %d wanted, %d available: %w",
				quantity, item.AvailableStock, api.ErrInsufficientStock)
		}
	}
	return e.await(ctx, e.enqueue(cartItemID, quantity))
}

// RemoveItem deletes the line. Removing an id the server no longer knows is a
// no-op success.
func (e *Engine) RemoveItem(ctx context.Context, cartItemID int64) error {
	if _, ok := e.gate.Current(); !ok {
		return fmt.Errorf("remove item: %w", api.ErrUnauthenticated)
	}
	return e.await(ctx, e.enqueue(cartItemID, 0))
}

// ClearCart empties the cart server-side, then locally. The epoch bump makes
// completions of older per-item requests leave the emptied cart alone.
func (e *Engine) ClearCart(ctx context.Context) error {
	if _, ok := e.gate.Current(); !ok {
		return fmt.Errorf("clear cart: %w", api.ErrUnauthenticated)
	}
	if err := e.client.Clear(ctx); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	e.mu.Lock()
	e.epoch++
	e.items = nil
	e.dropQueuedLocked()
	e.mu.Unlock()
	return nil
}

// CheckStock is a fail-safe feasibility probe: any failure reads as
// insufficient.
func (e *Engine) CheckStock(ctx context.Context, variationID int64, quantity int) domain.StockCheck {
	check, err := e.stock.Check(ctx, variationID, quantity)
	if err != nil {
		e.log.Warn("stock check failed, assuming insufficient",
			zap.Int64("variation_id", variationID), zap.Error(err))
		return domain.StockCheck{}
	}
	return check
}

// Items returns a copy of the mirror in insertion order.
func (e *Engine) Items() []domain.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	items := make([]domain.CartItem, len(e.items))
	copy(items, e.items)
	return items
}

// DerivedTotals recomputes the totals pair from the mirror.
func (e *Engine) DerivedTotals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	totals := Totals{Total: decimal.Zero}
	for _, item := range e.items {
		totals.ItemCount += item.Quantity
		totals.Total = totals.Total.Add(item.LineTotal)
	}
	return totals
}

// Pending reports whether a mutation for the item is in flight or queued.
// Presentation surfaces use it to mark individual lines busy while the rest
// of the cart stays interactive.
func (e *Engine) Pending(cartItemID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.slots[cartItemID]
	return ok && s.inFlight
}

func (e *Engine) item(cartItemID int64) (domain.CartItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, item := range e.items {
		if item.CartItemID == cartItemID {
			return item, true
		}
	}
	return domain.CartItem{}, false
}

func (e *Engine) quantityInCart(variationID int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, item := range e.items {
		if item.VariationID == variationID {
			return item.Quantity
		}
	}
	return 0
}

// upsertLocked merges a canonical line into the mirror by CartItemID.
func (e *Engine) upsertLocked(item domain.CartItem) {
	for i := range e.items {
		if e.items[i].CartItemID == item.CartItemID {
			e.items[i] = item
			return
		}
	}
	e.items = append(e.items, item)
}

func (e *Engine) removeLocked(cartItemID int64) {
	for i, item := range e.items {
		if item.CartItemID == cartItemID {
			e.items = append(e.items[:i], e.items[i+1:]...)
			return
		}
	}
}
