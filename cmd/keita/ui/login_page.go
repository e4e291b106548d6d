package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// LoginPageModel is the sign-in / registration form.
type LoginPageModel struct {
	username textinput.Model
	password textinput.Model
	focus    int

	registerMode bool
	busy         bool
	errText      string
	submitted    bool

	width  int
	styles Styles
}

// NewLoginPageModel creates the login form with the username field focused.
func NewLoginPageModel(styles Styles) LoginPageModel {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 120
	user.Width = 32
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 120
	pass.Width = 32
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return LoginPageModel{
		username: user,
		password: pass,
		styles:   styles,
		width:    80,
	}
}

// Init starts the cursor blink.
func (m LoginPageModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key input for the form.
func (m LoginPageModel) Update(msg tea.Msg) (LoginPageModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && !m.busy {
		switch key.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % 2
			if m.focus == 0 {
				m.username.Focus()
				m.password.Blur()
			} else {
				m.username.Blur()
				m.password.Focus()
			}
			return m, nil
		case "ctrl+r":
			m.registerMode = !m.registerMode
			m.errText = ""
			return m, nil
		case "enter":
			if strings.TrimSpace(m.username.Value()) == "" || m.password.Value() == "" {
				m.errText = "username and password are required"
				return m, nil
			}
			m.errText = ""
			m.submitted = true
			return m, nil
		}
	}

	var cmds [2]tea.Cmd
	m.username, cmds[0] = m.username.Update(msg)
	m.password, cmds[1] = m.password.Update(msg)
	return m, tea.Batch(cmds[0], cmds[1])
}

// View renders the form.
func (m LoginPageModel) View() string {
	var sb strings.Builder

	sb.WriteString(Logo(m.styles))
	sb.WriteString("\n")

	title := "Sign in"
	if m.registerMode {
		title = "Create an account"
	}
	sb.WriteString(m.styles.Title.Render(title))
	sb.WriteString("\n\n")

	sb.WriteString(m.styles.Body.Render("Username"))
	sb.WriteString("\n")
	sb.WriteString(m.username.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Body.Render("Password"))
	sb.WriteString("\n")
	sb.WriteString(m.password.View())
	sb.WriteString("\n")

	if m.errText != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Error.Render(m.errText))
		sb.WriteString("\n")
	}

	if m.busy {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Muted.Render("Signing in..."))
		sb.WriteString("\n")
	}

	hint := "enter submit · tab switch field · ctrl+r create account · esc browse as guest"
	if m.registerMode {
		hint = "enter submit · tab switch field · ctrl+r back to sign in · esc browse as guest"
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render(hint))

	return m.styles.Content.Render(sb.String())
}

// SetSize updates the layout width.
func (m *LoginPageModel) SetSize(w, _ int) {
	m.width = w
}

// SetBusy marks an authentication request in flight.
func (m *LoginPageModel) SetBusy(busy bool) {
	m.busy = busy
}

// SetError shows an inline form error.
func (m *LoginPageModel) SetError(text string) {
	m.errText = text
}

// ConsumeSubmit reports whether enter was pressed on a filled form, and
// resets the flag.
func (m *LoginPageModel) ConsumeSubmit() bool {
	s := m.submitted
	m.submitted = false
	return s
}

// Values returns the entered credentials.
func (m LoginPageModel) Values() (username, password string) {
	return strings.TrimSpace(m.username.Value()), m.password.Value()
}

// RegisterMode reports whether the form submits to the registration endpoint.
func (m LoginPageModel) RegisterMode() bool {
	return m.registerMode
}

// Reset clears both fields and any error.
func (m *LoginPageModel) Reset() {
	m.username.Reset()
	m.password.Reset()
	m.errText = ""
	m.busy = false
	m.submitted = false
	m.focus = 0
	m.username.Focus()
	m.password.Blur()
}
