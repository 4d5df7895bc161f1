package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// EventType marks an identity transition.
type EventType string

const (
	LoggedIn  EventType = "logged_in"
	LoggedOut EventType = "logged_out"
)

// Event is emitted on every identity transition. Identity is set only for
// LoggedIn.
type Event struct {
	Type     EventType
	Identity domain.Identity
}

// AuthAPI is the slice of the transport layer the gate needs. Consumers
// define this interface, not the HTTP implementation.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context) (domain.Identity, error)
}

// Gate tracks the presence of a valid credential and the identity it resolves
// to. Cart mutation entry points consult Current at call time; the gate never
// keeps a credential stored that it believes is invalid.
type Gate struct {
	store TokenStore
	auth  AuthAPI
	log   *zap.Logger

	mu      sync.RWMutex
	current *domain.Identity
	subs    []chan Event
}

func NewGate(store TokenStore, auth AuthAPI, log *zap.Logger) *Gate {
	return &Gate{store: store, auth: auth, log: log}
}

// Bootstrap seeds the gate from the credential slot at startup. An expired or
// unresolvable token is cleared rather than kept around to fail on every
// subsequent request.
func (g *Gate) Bootstrap(ctx context.Context) {
	token, ok := g.store.Load()
	if !ok {
		return
	}
	if expired(token) {
		g.log.Info("stored credential expired, clearing")
		g.store.Clear()
		return
	}
	identity, err := g.auth.Me(ctx)
	if err != nil {
		g.log.Warn("stored credential did not resolve, clearing", zap.Error(err))
		g.store.Clear()
		return
	}
	g.mu.Lock()
	g.current = &identity
	g.mu.Unlock()
	g.emit(Event{Type: LoggedIn, Identity: identity})
}

// Login obtains a token, persists it, then resolves the profile. If the
// profile fetch fails the freshly stored token is cleared before the error
// returns.
func (g *Gate) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	token, err := g.auth.Login(ctx, email, password)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("login: %w", err)
	}
	if err := g.store.Save(token); err != nil {
		return domain.Identity{}, fmt.Errorf("persist credential: %w", err)
	}
	identity, err := g.auth.Me(ctx)
	if err != nil {
		g.store.Clear()
		return domain.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	g.mu.Lock()
	g.current = &identity
	g.mu.Unlock()
	g.emit(Event{Type: LoggedIn, Identity: identity})
	return identity, nil
}

// Logout clears the credential slot and drops the identity.
func (g *Gate) Logout() {
	g.store.Clear()
	g.mu.Lock()
	wasPresent := g.current != nil
	g.current = nil
	g.mu.Unlock()
	if wasPresent {
		g.emit(Event{Type: LoggedOut})
	}
}

// ForceLogout is Logout for the server-rejected-credential path.
func (g *Gate) ForceLogout(reason string) {
	g.log.Warn("forced logout", zap.String("reason", reason))
	g.Logout()
}

// Current returns the identity held right now. Callers must re-check per
// operation; identity can change between intent dispatch and execution.
func (g *Gate) Current() (domain.Identity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return domain.Identity{}, false
	}
	return *g.current, true
}

// Subscribe returns a channel of identity transitions. Slow subscribers drop
// events rather than block the gate.
func (g *Gate) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	g.mu.Lock()
	g.subs = append(g.subs, ch)
	g.mu.Unlock()
	return ch
}

func (g *Gate) emit(event Event) {
	g.mu.RLock()
	subs := make([]chan Event, len(g.subs))
	copy(subs, g.subs)
	g.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			g.log.Warn("dropping identity event for slow subscriber",
				zap.String("type", string(event.Type)))
		}
	}
}

// expired peeks at the token's exp claim without verifying the signature;
// verification is the server's job, this only avoids bootstrapping from a
// token that cannot possibly work. Opaque non-JWT tokens pass through.
func expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now())
}
