package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"keita/internal/api"
)

// ProductPageModel shows a single product with its markdown description
// rendered through glamour.
type ProductPageModel struct {
	product  api.Product
	inCart   bool
	hasData  bool
	viewport viewport.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	styles Styles
}

// NewProductPageModel creates an empty details page.
func NewProductPageModel(styles Styles) ProductPageModel {
	vp := viewport.New(80, 20)
	vp.SetContent("")

	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(76),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStandardStyle("light"),
			glamour.WithWordWrap(76),
		)
	}

	return ProductPageModel{
		viewport: vp,
		renderer: renderer,
		styles:   styles,
		width:    80,
		height:   20,
	}
}

// Init initializes the model.
func (m ProductPageModel) Init() tea.Cmd {
	return nil
}

// Update handles scrolling.
func (m ProductPageModel) Update(msg tea.Msg) (ProductPageModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "k", "up":
			m.viewport.LineUp(1)
		case "j", "down":
			m.viewport.LineDown(1)
		case "pgup":
			m.viewport.HalfViewUp()
		case "pgdown":
			m.viewport.HalfViewDown()
		}
	}
	return m, nil
}

// View renders the page.
func (m ProductPageModel) View() string {
	if !m.hasData {
		return m.styles.Content.Render(m.styles.Muted.Render("No product selected."))
	}
	footer := m.styles.Muted.Render("a add to cart · esc back · j/k scroll")
	return m.styles.Content.Render(m.viewport.View() + "\n" + footer)
}

// SetSize updates the viewport size.
func (m *ProductPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w - 4
	m.viewport.Height = h - 4
	if w > 8 {
		if m.styles.Theme.IsDark {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithStandardStyle("dark"),
				glamour.WithWordWrap(w-8),
			)
		} else {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithStandardStyle("light"),
				glamour.WithWordWrap(w-8),
			)
		}
	}
	if m.hasData {
		m.refresh()
	}
}

// UpdateContent sets the product shown on the page.
func (m *ProductPageModel) UpdateContent(p api.Product, inCart bool) {
	m.product = p
	m.inCart = inCart
	m.hasData = true
	m.refresh()
}

// Product returns the product on display.
func (m ProductPageModel) Product() (api.Product, bool) {
	return m.product, m.hasData
}

func (m *ProductPageModel) refresh() {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(m.product.Name))
	sb.WriteString("\n")

	meta := fmt.Sprintf("%s · %s", formatPrice(m.product.Price), stockLabel(m.styles, m.product.Stock))
	if m.inCart {
		meta += " " + m.styles.Badge.Render("in cart")
	}
	sb.WriteString(m.styles.Subtitle.Render(meta))
	sb.WriteString("\n")

	desc := m.product.Description
	if m.renderer != nil {
		if out, err := m.renderer.Render(desc); err == nil {
			desc = out
		}
	}
	sb.WriteString(desc)

	if m.product.ImageURL != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Muted.Render("image: " + m.product.ImageURL))
	}

	m.viewport.SetContent(sb.String())
	m.viewport.GotoTop()
}
