package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"keita/internal/api"
)

// OrdersPageModel lists the signed-in user's order history.
type OrdersPageModel struct {
	orders  []api.Order
	loading bool
	loadErr error

	width  int
	height int
	styles Styles
}

// NewOrdersPageModel creates an empty orders page.
func NewOrdersPageModel(styles Styles) OrdersPageModel {
	return OrdersPageModel{
		styles: styles,
		width:  80,
		height: 20,
	}
}

// Init initializes the model.
func (m OrdersPageModel) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the page is read-only.
func (m OrdersPageModel) Update(_ tea.Msg) (OrdersPageModel, tea.Cmd) {
	return m, nil
}

// View renders the order table.
func (m OrdersPageModel) View() string {
	if m.loading {
		return m.styles.Content.Render(m.styles.Muted.Render("Loading your orders..."))
	}
	if m.loadErr != nil {
		return m.styles.Content.Render(m.styles.Error.Render("Could not load your orders.") + "\n" +
			m.styles.Muted.Render("Press r to retry."))
	}
	if len(m.orders) == 0 {
		return m.styles.Content.Render(m.styles.Muted.Render("No orders yet."))
	}

	table := NewSimpleTable("Your orders", []string{"#", "Placed", "Total", "Status"})
	for _, o := range m.orders {
		table.AddRow(
			fmt.Sprintf("%d", o.ID),
			o.CreatedAt.Format("2006-01-02 15:04"),
			formatPrice(o.TotalPrice),
			o.Status,
		)
	}
	return m.styles.Content.Render(table.View(m.styles))
}

// SetSize updates the layout size.
func (m *OrdersPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// UpdateContent replaces the page data with a fresh snapshot.
func (m *OrdersPageModel) UpdateContent(orders []api.Order, loading bool, loadErr error) {
	m.orders = orders
	m.loading = loading
	m.loadErr = loadErr
}
