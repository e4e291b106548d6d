package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"keita/internal/api"
)

const adminFormFields = 5

// AdminPageModel is the product management dashboard: a list of all
// products, a create/edit form, and a delete confirmation modal.
type AdminPageModel struct {
	cursor   int
	products []api.Product
	loading  bool
	loadErr  error

	formOpen bool
	editing  bool // false while creating
	imageURL string
	formErr  string
	saving   bool
	inputs   [adminFormFields]textinput.Model
	focus    int

	deleteCandidate *api.Product
	deleting        bool

	width  int
	height int
	styles Styles
}

// NewAdminPageModel creates the dashboard in list mode.
func NewAdminPageModel(styles Styles) AdminPageModel {
	m := AdminPageModel{
		styles: styles,
		width:  80,
		height: 20,
	}

	labels := []string{"name", "description", "price", "stock", "image file path"}
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = labels[i]
		in.Width = 48
		m.inputs[i] = in
	}
	m.inputs[0].CharLimit = 63
	m.inputs[1].CharLimit = 2000
	return m
}

// Init initializes the model.
func (m AdminPageModel) Init() tea.Cmd {
	return nil
}

// Update handles list navigation and form field input. Save, delete, and
// upload keys are handled by the app model.
func (m AdminPageModel) Update(msg tea.Msg) (AdminPageModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.deleteCandidate != nil {
		return m, nil
	}

	if m.formOpen {
		switch key.String() {
		case "tab", "down":
			m.setFocus((m.focus + 1) % adminFormFields)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + adminFormFields - 1) % adminFormFields)
			return m, nil
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "j", "down":
		if m.cursor < len(m.products)-1 {
			m.cursor++
		}
	}
	return m, nil
}

// View renders the dashboard.
func (m AdminPageModel) View() string {
	if m.formOpen {
		return m.styles.Content.Render(m.formView())
	}

	body := m.listView()
	if m.deleteCandidate != nil {
		return lipgloss.JoinVertical(lipgloss.Left, m.styles.Content.Render(body), m.deleteModal())
	}
	return m.styles.Content.Render(body)
}

func (m AdminPageModel) listView() string {
	if m.loading {
		return m.styles.Muted.Render("Loading products...")
	}
	if m.loadErr != nil {
		return m.styles.Error.Render("Could not load products.") + "\n" +
			m.styles.Muted.Render("Press r to retry.")
	}

	var sb strings.Builder
	if len(m.products) == 0 {
		sb.WriteString(m.styles.Muted.Render("No products. Press n to create one."))
		sb.WriteString("\n")
	} else {
		table := NewSimpleTable("Manage products", []string{"#", "Name", "Price", "Stock"})
		table.Cursor = m.cursor
		for _, p := range m.products {
			table.AddRow(
				fmt.Sprintf("%d", p.ID),
				clip(p.Name, 36),
				formatPrice(p.Price),
				fmt.Sprintf("%d", p.Stock),
			)
		}
		sb.WriteString(table.View(m.styles))
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("n new · e edit · x delete · j/k move"))
	return sb.String()
}

func (m AdminPageModel) formView() string {
	var sb strings.Builder

	title := "New product"
	if m.editing {
		title = "Edit product"
	}
	sb.WriteString(m.styles.Title.Render(title))
	sb.WriteString("\n")

	labels := []string{"Name", "Description", "Price", "Stock", "Image"}
	for i, in := range m.inputs {
		label := labels[i]
		if i == m.focus {
			sb.WriteString(m.styles.Prompt.Render(label))
		} else {
			sb.WriteString(m.styles.Body.Render(label))
		}
		sb.WriteString("\n")
		sb.WriteString(in.View())
		sb.WriteString("\n")
	}

	if m.imageURL != "" {
		sb.WriteString(m.styles.Muted.Render("uploaded: " + m.imageURL))
		sb.WriteString("\n")
	}
	if m.formErr != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Error.Render(m.formErr))
		sb.WriteString("\n")
	}
	if m.saving {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Muted.Render("Saving..."))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("enter save · ctrl+u upload image · tab next field · esc cancel"))
	return sb.String()
}

func (m AdminPageModel) deleteModal() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Bold.Render("Delete product?"))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Body.Render(m.deleteCandidate.Name))
	sb.WriteString("\n\n")
	if m.deleting {
		sb.WriteString(m.styles.Muted.Render("Deleting..."))
	} else {
		sb.WriteString(m.styles.Muted.Render("y confirm · esc cancel"))
	}
	return m.styles.Modal.Render(sb.String())
}

// SetSize updates the layout size.
func (m *AdminPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// UpdateContent replaces the list and modal state with a fresh snapshot.
func (m *AdminPageModel) UpdateContent(products []api.Product, loading bool, loadErr error, deleteCandidate *api.Product, deleting bool, formErr string, saving bool) {
	m.products = products
	m.loading = loading
	m.loadErr = loadErr
	m.deleteCandidate = deleteCandidate
	m.deleting = deleting
	m.formErr = formErr
	m.saving = saving
	if m.cursor >= len(products) {
		m.cursor = len(products) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// OpenForm seeds the form fields from a draft and switches to form mode.
func (m *AdminPageModel) OpenForm(draft api.Product) {
	m.formOpen = true
	m.editing = draft.ID != 0
	m.imageURL = draft.ImageURL
	m.formErr = ""

	m.inputs[0].SetValue(draft.Name)
	m.inputs[1].SetValue(draft.Description)
	if draft.Price > 0 {
		m.inputs[2].SetValue(strconv.FormatFloat(draft.Price, 'f', -1, 64))
	} else {
		m.inputs[2].SetValue("")
	}
	if draft.Stock > 0 {
		m.inputs[3].SetValue(strconv.Itoa(draft.Stock))
	} else {
		m.inputs[3].SetValue("")
	}
	m.inputs[4].SetValue("")
	m.setFocus(0)
}

// CloseForm returns to list mode.
func (m *AdminPageModel) CloseForm() {
	m.formOpen = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

// FormOpen reports whether the form is showing.
func (m AdminPageModel) FormOpen() bool {
	return m.formOpen
}

// FormValues parses the current field contents. Unparsable numbers come back
// as zero so validation can reject them with a message.
func (m AdminPageModel) FormValues() (name, description string, price float64, stock int, imagePath string) {
	name = m.inputs[0].Value()
	description = m.inputs[1].Value()
	price, _ = strconv.ParseFloat(strings.TrimSpace(m.inputs[2].Value()), 64)
	stock, _ = strconv.Atoi(strings.TrimSpace(m.inputs[3].Value()))
	imagePath = strings.TrimSpace(m.inputs[4].Value())
	return name, description, price, stock, imagePath
}

// SetImageURL records the uploaded image URL shown under the form.
func (m *AdminPageModel) SetImageURL(url string) {
	m.imageURL = url
}

// Current returns the product under the list cursor.
func (m AdminPageModel) Current() (api.Product, bool) {
	if len(m.products) == 0 {
		return api.Product{}, false
	}
	return m.products[m.cursor], true
}

func (m *AdminPageModel) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}
