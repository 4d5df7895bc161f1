// Package ui holds the interactive presentation surfaces. They dispatch
// intents into the cart engine and render whatever state it exposes; they
// never mutate cart items themselves.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/session"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	totalStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type opDoneMsg struct{ err error }

type orderPlacedMsg struct {
	order domain.Order
	err   error
}

type orderAdvanceMsg struct {
	orderID string
	status  domain.OrderStatus
	message string
}

// CartModel is the interactive cart screen. Key presses dispatch intents to
// the engine in commands; the view re-renders from the engine's mirror, with
// per-line pending markers while a mutation is in flight.
type CartModel struct {
	engine  *cart.Engine
	tracker *orders.Tracker
	gate    *session.Gate

	cursor  int
	spin    spinner.Model
	lastErr string
	order   *domain.Order
}

func NewCartModel(engine *cart.Engine, tracker *orders.Tracker, gate *session.Gate) CartModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return CartModel{engine: engine, tracker: tracker, gate: gate, spin: s}
}

func (m CartModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m CartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case opDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		} else {
			m.lastErr = ""
		}
		m.clampCursor()
		return m, nil

	case orderPlacedMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		order := msg.order
		m.order = &order
		m.lastErr = ""
		// The stub fulfillment: the order moves through its statuses on
		// a timer, the way the storefront demos tracking.
		return m, tea.Batch(
			advanceAfter(2*time.Second, order.ID, domain.OrderProcessing, "order is being processed"),
			advanceAfter(5*time.Second, order.ID, domain.OrderShipped, "order has been shipped"),
		)

	case orderAdvanceMsg:
		if m.order != nil && m.order.ID == msg.orderID {
			identity, ok := m.gate.Current()
			if ok {
				if order, err := m.tracker.Advance(identity.UserID, msg.orderID, msg.status, msg.message); err == nil {
					m.order = &order
				}
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m CartModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.engine.Items()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "+", "=":
		if item, ok := m.selected(items); ok {
			return m, m.setQuantity(item.CartItemID, item.Quantity+1)
		}
	case "-", "_":
		if item, ok := m.selected(items); ok {
			return m, m.setQuantity(item.CartItemID, item.Quantity-1)
		}
	case "x", "delete":
		if item, ok := m.selected(items); ok {
			return m, m.remove(item.CartItemID)
		}
	case "C":
		if len(items) > 0 {
			return m, m.clear()
		}
	case "r":
		return m, m.reload()
	case "enter", "c":
		if len(items) > 0 {
			return m, m.checkout()
		}
	}
	return m, nil
}

func (m CartModel) selected(items []domain.CartItem) (domain.CartItem, bool) {
	if m.cursor < 0 || m.cursor >= len(items) {
		return domain.CartItem{}, false
	}
	return items[m.cursor], true
}

func (m *CartModel) clampCursor() {
	if n := len(m.engine.Items()); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	} else if n == 0 {
		m.cursor = 0
	}
}

func (m CartModel) setQuantity(cartItemID int64, quantity int) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: m.engine.SetQuantity(context.Background(), cartItemID, quantity)}
	}
}

func (m CartModel) remove(cartItemID int64) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: m.engine.RemoveItem(context.Background(), cartItemID)}
	}
}

func (m CartModel) clear() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: m.engine.ClearCart(context.Background())}
	}
}

func (m CartModel) reload() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: m.engine.Reload(context.Background())}
	}
}

func (m CartModel) checkout() tea.Cmd {
	return func() tea.Msg {
		identity, ok := m.gate.Current()
		if !ok {
			return orderPlacedMsg{err: fmt.Errorf("not logged in")}
		}
		items := m.engine.Items()
		totals := m.engine.DerivedTotals()
		order, err := m.tracker.Place(identity.UserID, items, totals.Total)
		if err != nil {
			return orderPlacedMsg{err: err}
		}
		if err := m.engine.ClearCart(context.Background()); err != nil {
			return orderPlacedMsg{err: err}
		}
		return orderPlacedMsg{order: order}
	}
}

func advanceAfter(d time.Duration, orderID string, status domain.OrderStatus, message string) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return orderAdvanceMsg{orderID: orderID, status: status, message: message}
	})
}

func (m CartModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Your cart"))
	b.WriteString("\n\n")

	items := m.engine.Items()
	if len(items) == 0 {
		b.WriteString(pendingStyle.Render("Cart is empty"))
		b.WriteString("\n")
	}
	for i, item := range items {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%s%-24s %s/%-6s x%-3d %8s", cursor,
			item.ProductName, item.Size, item.Color, item.Quantity, item.LineTotal.StringFixed(2))
		if m.engine.Pending(item.CartItemID) {
			line += " " + pendingStyle.Render(m.spin.View()+"updating")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(totalStyle.Render(m.engine.DerivedTotals().String()))
	b.WriteString("\n")

	if m.order != nil {
		b.WriteString(fmt.Sprintf("\nOrder %s: %s\n", m.order.ID, m.order.Status))
		for _, event := range m.order.StatusHistory {
			b.WriteString(pendingStyle.Render(fmt.Sprintf("  %s  %s\n",
				event.At.Format("15:04:05"), event.Message)))
		}
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("+/- quantity · x remove · C clear · enter checkout · r reload · q quit"))
	b.WriteString("\n")
	return b.String()
}
