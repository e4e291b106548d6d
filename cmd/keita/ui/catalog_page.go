package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"keita/internal/api"
)

// CatalogPageModel is the product list the shop opens on.
type CatalogPageModel struct {
	cursor   int
	products []api.Product
	inCart   map[int]bool
	adding   map[int]bool
	loading  bool
	loadErr  error

	width  int
	height int
	styles Styles
}

// NewCatalogPageModel creates an empty catalog page.
func NewCatalogPageModel(styles Styles) CatalogPageModel {
	return CatalogPageModel{
		styles: styles,
		width:  80,
		height: 20,
	}
}

// Init initializes the model.
func (m CatalogPageModel) Init() tea.Cmd {
	return nil
}

// Update handles cursor movement.
func (m CatalogPageModel) Update(msg tea.Msg) (CatalogPageModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "j", "down":
			if m.cursor < len(m.products)-1 {
				m.cursor++
			}
		case "g", "home":
			m.cursor = 0
		case "G", "end":
			if len(m.products) > 0 {
				m.cursor = len(m.products) - 1
			}
		}
	}
	return m, nil
}

// View renders the product list.
func (m CatalogPageModel) View() string {
	if m.loading {
		return m.styles.Content.Render(m.styles.Muted.Render("Loading products..."))
	}
	if m.loadErr != nil {
		return m.styles.Content.Render(m.styles.Error.Render("Could not load products.") + "\n" +
			m.styles.Muted.Render("Press r to retry."))
	}
	if len(m.products) == 0 {
		return m.styles.Content.Render(m.styles.Muted.Render("The shop is empty right now."))
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Souvenirs"))
	sb.WriteString("\n")

	for i, p := range m.products {
		line := fmt.Sprintf("%-30s %10s  %s", clip(p.Name, 30), formatPrice(p.Price), stockLabel(m.styles, p.Stock))
		if m.inCart[p.ID] {
			line += " " + m.styles.Badge.Render("in cart")
		}
		if m.adding[p.ID] {
			line += " " + m.styles.Muted.Render("adding...")
		}

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
	sb.WriteString(m.styles.Muted.Render("enter view · a add to cart · j/k move"))
	return m.styles.Content.Render(sb.String())
}

// SetSize updates the layout size.
func (m *CatalogPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// UpdateContent replaces the page data with a fresh snapshot.
func (m *CatalogPageModel) UpdateContent(products []api.Product, inCart, adding map[int]bool, loading bool, loadErr error) {
	m.products = products
	m.inCart = inCart
	m.adding = adding
	m.loading = loading
	m.loadErr = loadErr
	if m.cursor >= len(products) {
		m.cursor = len(products) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Current returns the product under the cursor.
func (m CatalogPageModel) Current() (api.Product, bool) {
	if len(m.products) == 0 {
		return api.Product{}, false
	}
	return m.products[m.cursor], true
}

func stockLabel(s Styles, stock int) string {
	switch {
	case stock <= 0:
		return s.Error.Render("out of stock")
	case stock <= 5:
		return s.Warning.Render(fmt.Sprintf("%d left", stock))
	default:
		return s.Muted.Render(fmt.Sprintf("%d in stock", stock))
	}
}

func formatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
