package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"keita/internal/api"
)

// CartPageModel shows the cart lines with checkbox selection and the order
// confirmation modal.
type CartPageModel struct {
	cursor   int
	items    []api.CartItem
	selected map[int]bool
	total    float64
	count    int

	confirming bool
	placing    bool
	loading    bool
	loadErr    error

	width  int
	height int
	styles Styles
}

// NewCartPageModel creates an empty cart page.
func NewCartPageModel(styles Styles) CartPageModel {
	return CartPageModel{
		styles: styles,
		width:  80,
		height: 20,
	}
}

// Init initializes the model.
func (m CartPageModel) Init() tea.Cmd {
	return nil
}

// Update handles cursor movement. Selection, quantity, and ordering keys are
// handled by the app model because they mutate shared state.
func (m CartPageModel) Update(msg tea.Msg) (CartPageModel, tea.Cmd) {
	if m.confirming {
		return m, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "j", "down":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

// View renders the cart.
func (m CartPageModel) View() string {
	if m.loading {
		return m.styles.Content.Render(m.styles.Muted.Render("Loading your cart..."))
	}
	if m.loadErr != nil {
		return m.styles.Content.Render(m.styles.Error.Render("Could not load your cart.") + "\n" +
			m.styles.Muted.Render("Press r to retry."))
	}
	if len(m.items) == 0 {
		return m.styles.Content.Render(m.styles.Muted.Render("Your cart is empty."))
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Your cart"))
	sb.WriteString("\n")

	for i, item := range m.items {
		box := "[ ]"
		if m.selected[item.ID] {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %-28s %3d × %9s = %10s",
			box,
			clip(item.Product.Name, 28),
			item.Quantity,
			formatPrice(item.Product.Price),
			formatPrice(float64(item.Quantity)*item.Product.Price),
		)
		if i == m.cursor {
			sb.WriteString(m.styles.Cursor.Render("❯ "))
			sb.WriteString(m.styles.Selected.Render(line))
		} else {
			sb.WriteString("  ")
			sb.WriteString(m.styles.Body.Render(line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Bold.Render(fmt.Sprintf("Selected: %d item(s) · Total %s", m.count, formatPrice(m.total))))
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Muted.Render("space select · a all · n none · +/- quantity · x remove · o order"))

	body := m.styles.Content.Render(sb.String())

	if m.confirming {
		return lipgloss.JoinVertical(lipgloss.Left, body, m.confirmationModal())
	}
	return body
}

func (m CartPageModel) confirmationModal() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Bold.Render("Place order?"))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Body.Render(fmt.Sprintf("%d item(s), total %s", m.count, formatPrice(m.total))))
	sb.WriteString("\n\n")
	if m.placing {
		sb.WriteString(m.styles.Muted.Render("Placing order..."))
	} else {
		sb.WriteString(m.styles.Muted.Render("y confirm · esc cancel"))
	}
	return m.styles.Modal.Render(sb.String())
}

// SetSize updates the layout size.
func (m *CartPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// UpdateContent replaces the page data with a fresh snapshot.
func (m *CartPageModel) UpdateContent(items []api.CartItem, selected map[int]bool, total float64, count int, confirming, placing, loading bool, loadErr error) {
	m.items = items
	m.selected = selected
	m.total = total
	m.count = count
	m.confirming = confirming
	m.placing = placing
	m.loading = loading
	m.loadErr = loadErr
	if m.cursor >= len(items) {
		m.cursor = len(items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Current returns the cart line under the cursor.
func (m CartPageModel) Current() (api.CartItem, bool) {
	if len(m.items) == 0 {
		return api.CartItem{}, false
	}
	return m.items[m.cursor], true
}
