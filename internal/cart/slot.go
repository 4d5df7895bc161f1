package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_storefront/internal/api"
	"github.com/fjod/go_storefront/internal/domain"
	"go.uber.org/zap"
)

// slot serializes mutations for one cart item. At most one request is in
// flight; while it is, later intents overwrite pending, so a burst of +/-
// clicks collapses into a single follow-up request carrying the last desired
// quantity. Waiters of superseded intents are carried forward and resolve
// with the final request's outcome.
type slot struct {
	inFlight bool
	pending  *int
	waiters  []chan error
}

// enqueue registers the intent (desired quantity, 0 meaning remove) and
// returns the channel its outcome will arrive on.
func (e *Engine) enqueue(cartItemID int64, quantity int) <-chan error {
	done := make(chan error, 1)
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.slots[cartItemID]
	if !ok {
		s = &slot{}
		e.slots[cartItemID] = s
	}
	if s.inFlight {
		q := quantity
		s.pending = &q
		s.waiters = append(s.waiters, done)
		return done
	}
	s.inFlight = true
	s.waiters = []chan error{done}
	go e.runSlot(cartItemID, quantity, e.epoch)
	return done
}

func (e *Engine) await(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// The mutation keeps running; only this caller stops waiting.
		return ctx.Err()
	}
}

// runSlot issues one request for the item and applies its canonical result.
// If a newer intent arrived while the request was in flight, the result is
// discarded, the follow-up is issued at the current epoch, and every waiter
// moves to it — responses are applied strictly in issue order, so a slow
// superseded response can never clobber a later one.
func (e *Engine) runSlot(cartItemID int64, quantity int, epoch uint64) {
	item, err := e.mutate(context.Background(), cartItemID, quantity)

	e.mu.Lock()
	s := e.slots[cartItemID]

	if s.pending != nil {
		next := *s.pending
		s.pending = nil
		go e.runSlot(cartItemID, next, e.epoch)
		e.mu.Unlock()
		return
	}

	waiters := s.waiters
	s.waiters = nil
	s.inFlight = false
	delete(e.slots, cartItemID)

	if e.epoch != epoch {
		e.log.Info("discarding mutation result after identity transition",
			zap.Int64("cart_item_id", cartItemID))
		e.mu.Unlock()
		deliver(waiters, err)
		return
	}

	if err == nil {
		if item != nil {
			e.upsertLocked(*item)
		} else {
			e.removeLocked(cartItemID)
		}
	}
	e.mu.Unlock()
	deliver(waiters, err)
}

// mutate performs the wire operation for a desired quantity. Zero routes to
// the remove endpoint, where a missing item counts as already satisfied; the
// cart stays untouched on every failure, so there is nothing to roll back.
func (e *Engine) mutate(ctx context.Context, cartItemID int64, quantity int) (*domain.CartItem, error) {
	if quantity == 0 {
		if err := e.client.Remove(ctx, cartItemID); err != nil && !errors.Is(err, api.ErrNotFound) {
			return nil, err
		}
		return nil, nil
	}
	return e.client.UpdateQuantity(ctx, cartItemID, quantity)
}

func deliver(waiters []chan error, err error) {
	for _, ch := range waiters {
		ch <- err
	}
}
