package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"keita/cmd/keita/ui"
	"keita/internal/api"
	"keita/internal/config"
	"keita/internal/notify"
	"keita/internal/session"
	"keita/internal/storefront"
)

type page int

const (
	pageCatalog page = iota
	pageProduct
	pageCart
	pageOrders
	pageAdmin
	pageLogin
)

func (p page) title() string {
	switch p {
	case pageCatalog:
		return "Shop"
	case pageProduct:
		return "Details"
	case pageCart:
		return "Cart"
	case pageOrders:
		return "Orders"
	case pageAdmin:
		return "Admin"
	case pageLogin:
		return "Sign in"
	}
	return ""
}

// Messages emitted by background commands.
type (
	refreshMsg   struct{}
	toastTickMsg time.Time
	addResultMsg struct {
		result storefront.AddResult
	}
	authMsg struct {
		token string
		err   error
	}
	productMsg struct {
		product api.Product
		err     error
	}
)

// appModel is the root bubbletea model. It routes key input to the active
// page, runs view-model operations as background commands, and overlays the
// toast stack on every frame.
type appModel struct {
	styles ui.Styles
	client *api.Client
	store  *session.Store
	toasts *notify.Channel
	logger *zap.Logger

	catalog *storefront.Catalog
	cart    *storefront.Cart
	orders  *storefront.Orders
	admin   *storefront.Admin

	page page

	catalogPage ui.CatalogPageModel
	productPage ui.ProductPageModel
	cartPage    ui.CartPageModel
	ordersPage  ui.OrdersPageModel
	adminPage   ui.AdminPageModel
	loginPage   ui.LoginPageModel

	spinner  spinner.Model
	busy     int
	width    int
	height   int
	quitting bool
}

func newAppModel(cfg config.Config, client *api.Client, store *session.Store, logger *zap.Logger) appModel {
	styles := ui.NewStyles(ui.ThemeByName(cfg.Theme))

	toasts := notify.NewChannel()
	env := storefront.Env{
		Notify:   toasts,
		Identity: store,
		Logger:   logger.Named("storefront"),
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return appModel{
		styles:      styles,
		client:      client,
		store:       store,
		toasts:      toasts,
		logger:      logger,
		catalog:     storefront.NewCatalog(client, env),
		cart:        storefront.NewCart(client, env),
		orders:      storefront.NewOrders(client, env),
		admin:       storefront.NewAdmin(client, env),
		page:        pageCatalog,
		catalogPage: ui.NewCatalogPageModel(styles),
		productPage: ui.NewProductPageModel(styles),
		cartPage:    ui.NewCartPageModel(styles),
		ordersPage:  ui.NewOrdersPageModel(styles),
		adminPage:   ui.NewAdminPageModel(styles),
		loginPage:   ui.NewLoginPageModel(styles),
		spinner:     sp,
		busy:        1, // catalog load issued from Init
	}
}

// Init kicks off the first catalog load and the recurring ticks.
func (m appModel) Init() tea.Cmd {
	return tea.Batch(
		vmCmd(m.catalog.Load),
		m.spinner.Tick,
		toastTick(),
		m.loginPage.Init(),
	)
}

// vmCmd runs a view-model operation off the UI goroutine. Outcomes surface
// through the notification channel, so the message only triggers a resync.
func vmCmd(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_ = fn(ctx)
		return refreshMsg{}
	}
}

func toastTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := msg.Height - 4 // header, footer, toast row
		m.catalogPage.SetSize(msg.Width, contentHeight)
		m.productPage.SetSize(msg.Width, contentHeight)
		m.cartPage.SetSize(msg.Width, contentHeight)
		m.ordersPage.SetSize(msg.Width, contentHeight)
		m.adminPage.SetSize(msg.Width, contentHeight)
		m.loginPage.SetSize(msg.Width, contentHeight)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case toastTickMsg:
		// Expired toasts fall out of Active() on the next View.
		return m, toastTick()

	case refreshMsg:
		if m.busy > 0 {
			m.busy--
		}
		m.syncPages()
		return m, nil

	case addResultMsg:
		if m.busy > 0 {
			m.busy--
		}
		m.syncPages()
		if msg.result == storefront.AddGoToCart {
			return m.switchTo(pageCart)
		}
		m.refreshProductPage()
		return m, nil

	case productMsg:
		if m.busy > 0 {
			m.busy--
		}
		if msg.err != nil {
			m.toasts.Error("Could not load the product")
			return m, nil
		}
		m.productPage.UpdateContent(msg.product, m.catalog.InCart(msg.product.ID))
		m.page = pageProduct
		return m, nil

	case authMsg:
		return m.handleAuth(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m appModel) handleAuth(msg authMsg) (tea.Model, tea.Cmd) {
	if m.busy > 0 {
		m.busy--
	}
	m.loginPage.SetBusy(false)

	if msg.err != nil {
		m.logger.Warn("authentication failed", zap.Error(msg.err))
		if errors.Is(msg.err, api.ErrUnauthorized) {
			m.loginPage.SetError("invalid username or password")
		} else {
			m.loginPage.SetError("could not reach the server")
		}
		return m, nil
	}

	if err := m.store.SetToken(msg.token); err != nil {
		m.logger.Error("persisting token", zap.Error(err))
	}
	m.loginPage.Reset()
	m.toasts.Success("Signed in as " + m.store.Identity().Subject)

	m.page = pageCatalog
	m.busy++
	return m, vmCmd(m.catalog.Load)
}

func (m appModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.page == pageLogin {
		return m.handleLoginKey(key)
	}

	// Text entry owns the keyboard while the admin form is open.
	if m.page == pageAdmin && m.adminPage.FormOpen() {
		return m.handleAdminFormKey(key)
	}

	switch key.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "1":
		return m.switchTo(pageCatalog)
	case "2":
		return m.switchTo(pageCart)
	case "3":
		return m.switchTo(pageOrders)
	case "4":
		return m.switchTo(pageAdmin)
	case "s":
		return m.toggleSession()
	case "r":
		return m.reload()
	}

	switch m.page {
	case pageCatalog:
		return m.handleCatalogKey(key)
	case pageProduct:
		return m.handleProductKey(key)
	case pageCart:
		return m.handleCartKey(key)
	case pageAdmin:
		return m.handleAdminListKey(key)
	}

	return m, nil
}

func (m appModel) handleLoginKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.String() == "esc" {
		m.page = pageCatalog
		return m, nil
	}

	var cmd tea.Cmd
	m.loginPage, cmd = m.loginPage.Update(key)

	if m.loginPage.ConsumeSubmit() {
		username, password := m.loginPage.Values()
		register := m.loginPage.RegisterMode()
		m.loginPage.SetBusy(true)
		m.busy++
		return m, tea.Batch(cmd, m.authenticate(username, password, register))
	}
	return m, cmd
}

func (m appModel) authenticate(username, password string, register bool) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		var token string
		var err error
		if register {
			token, err = client.Register(ctx, username, password)
		} else {
			token, err = client.Login(ctx, username, password)
		}
		return authMsg{token: token, err: err}
	}
}

func (m appModel) handleCatalogKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "enter":
		if p, ok := m.catalogPage.Current(); ok {
			client := m.client
			m.busy++
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				full, err := client.Product(ctx, p.ID)
				return productMsg{product: full, err: err}
			}
		}
		return m, nil
	case "a":
		p, ok := m.catalogPage.Current()
		return m.addToCart(p, ok)
	}

	var cmd tea.Cmd
	m.catalogPage, cmd = m.catalogPage.Update(key)
	return m, cmd
}

func (m appModel) handleProductKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.page = pageCatalog
		return m, nil
	case "a":
		p, ok := m.productPage.Product()
		return m.addToCart(p, ok)
	}

	var cmd tea.Cmd
	m.productPage, cmd = m.productPage.Update(key)
	return m, cmd
}

func (m appModel) addToCart(p api.Product, ok bool) (tea.Model, tea.Cmd) {
	if !ok {
		return m, nil
	}
	catalog := m.catalog
	m.busy++
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return addResultMsg{result: catalog.AddOrGo(ctx, p.ID)}
	}
}

func (m appModel) handleCartKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.cart.Confirming() {
		switch key.String() {
		case "y", "enter":
			m.busy++
			return m, vmCmd(m.cart.PlaceOrder)
		case "esc":
			m.cart.CloseConfirmation()
			m.syncPages()
		}
		return m, nil
	}

	switch key.String() {
	case " ":
		if item, ok := m.cartPage.Current(); ok {
			m.cart.ToggleSelect(item.ID)
			m.syncPages()
		}
		return m, nil
	case "a":
		m.cart.SelectAll()
		m.syncPages()
		return m, nil
	case "n":
		m.cart.ClearSelection()
		m.syncPages()
		return m, nil
	case "+", "=":
		if item, ok := m.cartPage.Current(); ok {
			cart, id := m.cart, item.Product.ID
			m.busy++
			return m, vmCmd(func(ctx context.Context) error {
				return cart.Increment(ctx, id)
			})
		}
		return m, nil
	case "-":
		if item, ok := m.cartPage.Current(); ok {
			cart, id, qty := m.cart, item.Product.ID, item.Quantity-1
			m.busy++
			return m, vmCmd(func(ctx context.Context) error {
				return cart.SetQuantity(ctx, id, qty)
			})
		}
		return m, nil
	case "x", "delete":
		if item, ok := m.cartPage.Current(); ok {
			cart, id := m.cart, item.Product.ID
			m.busy++
			return m, vmCmd(func(ctx context.Context) error {
				return cart.Remove(ctx, id)
			})
		}
		return m, nil
	case "o":
		m.cart.OpenConfirmation()
		m.syncPages()
		return m, nil
	}

	var cmd tea.Cmd
	m.cartPage, cmd = m.cartPage.Update(key)
	return m, cmd
}

func (m appModel) handleAdminListKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.admin.DeleteCandidate() != nil {
		switch key.String() {
		case "y", "enter":
			m.busy++
			return m, vmCmd(m.admin.Delete)
		case "esc":
			m.admin.CancelDelete()
			m.syncPages()
		}
		return m, nil
	}

	switch key.String() {
	case "n":
		m.admin.StartCreate()
		if d := m.admin.Draft(); d != nil {
			m.adminPage.OpenForm(*d)
		}
		return m, nil
	case "e":
		if p, ok := m.adminPage.Current(); ok {
			m.admin.StartEdit(p)
			if d := m.admin.Draft(); d != nil {
				m.adminPage.OpenForm(*d)
			}
		}
		return m, nil
	case "x":
		if p, ok := m.adminPage.Current(); ok {
			m.admin.ConfirmDelete(p)
			m.syncPages()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.adminPage, cmd = m.adminPage.Update(key)
	return m, cmd
}

func (m appModel) handleAdminFormKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.admin.CancelEdit()
		if m.admin.Draft() == nil {
			m.adminPage.CloseForm()
		}
		m.syncPages()
		return m, nil
	case "enter":
		name, desc, price, stock, _ := m.adminPage.FormValues()
		m.admin.SetName(name)
		m.admin.SetDescription(desc)
		m.admin.SetPrice(price)
		m.admin.SetStock(stock)
		m.busy++
		return m, vmCmd(m.admin.Save)
	case "ctrl+u":
		_, _, _, _, imagePath := m.adminPage.FormValues()
		if imagePath == "" {
			m.toasts.Info("Enter an image file path first")
			return m, nil
		}
		admin, toasts := m.admin, m.toasts
		m.busy++
		return m, vmCmd(func(ctx context.Context) error {
			f, err := os.Open(imagePath)
			if err != nil {
				toasts.Error("Could not read the image file")
				return err
			}
			defer f.Close()
			return admin.UploadImage(ctx, filepath.Base(imagePath), f)
		})
	}

	var cmd tea.Cmd
	m.adminPage, cmd = m.adminPage.Update(key)
	return m, cmd
}

// switchTo routes to a page, enforcing the auth gates the server would
// enforce anyway.
func (m appModel) switchTo(target page) (tea.Model, tea.Cmd) {
	id := m.store.Identity()

	switch target {
	case pageCart, pageOrders:
		if !id.Authenticated {
			m.toasts.Info("Sign in first")
			m.page = pageLogin
			return m, nil
		}
	case pageAdmin:
		if !id.IsAdmin() {
			m.toasts.Error("You are not allowed to manage products")
			return m, nil
		}
	}

	m.page = target
	return m.reload()
}

// reload refreshes the data behind the active page.
func (m appModel) reload() (tea.Model, tea.Cmd) {
	switch m.page {
	case pageCatalog, pageProduct:
		m.busy++
		return m, vmCmd(m.catalog.Load)
	case pageCart:
		m.busy++
		return m, vmCmd(m.cart.Load)
	case pageOrders:
		m.busy++
		return m, vmCmd(m.orders.Load)
	case pageAdmin:
		m.busy++
		return m, vmCmd(m.admin.Load)
	}
	return m, nil
}

func (m appModel) toggleSession() (tea.Model, tea.Cmd) {
	if m.store.Identity().Authenticated {
		if err := m.store.Clear(); err != nil {
			m.logger.Error("clearing credentials", zap.Error(err))
		}
		m.toasts.Info("Signed out")
		m.page = pageCatalog
		m.busy++
		return m, vmCmd(m.catalog.Load)
	}
	m.page = pageLogin
	return m, nil
}

// syncPages pushes fresh view-model snapshots into the page components.
func (m *appModel) syncPages() {
	products := m.catalog.Products()
	inCart := make(map[int]bool, len(products))
	adding := make(map[int]bool)
	for _, p := range products {
		if m.catalog.InCart(p.ID) {
			inCart[p.ID] = true
		}
		if m.catalog.Adding(p.ID) {
			adding[p.ID] = true
		}
	}
	m.catalogPage.UpdateContent(products, inCart, adding, m.catalog.Loading(), m.catalog.Err())

	items := m.cart.Items()
	selected := make(map[int]bool, len(items))
	for _, item := range items {
		if m.cart.IsSelected(item.ID) {
			selected[item.ID] = true
		}
	}
	m.cartPage.UpdateContent(items, selected, m.cart.Total(), m.cart.SelectedCount(),
		m.cart.Confirming(), m.cart.Placing(), m.cart.Loading(), m.cart.Err())

	m.ordersPage.UpdateContent(m.orders.List(), m.orders.Loading(), m.orders.Err())

	m.adminPage.UpdateContent(m.admin.Products(), m.admin.Loading(), m.admin.Err(),
		m.admin.DeleteCandidate(), m.admin.Deleting(), m.admin.FormError(), m.admin.Saving())
	if d := m.admin.Draft(); d != nil && m.adminPage.FormOpen() {
		m.adminPage.SetImageURL(d.ImageURL)
	}
	if m.admin.Draft() == nil && m.adminPage.FormOpen() {
		m.adminPage.CloseForm()
	}
}

// refreshProductPage re-renders the details page with current cart
// membership.
func (m *appModel) refreshProductPage() {
	if p, ok := m.productPage.Product(); ok {
		m.productPage.UpdateContent(p, m.catalog.InCart(p.ID))
	}
}

func (m appModel) View() string {
	if m.quitting {
		return ""
	}

	parts := []string{m.renderHeader(), m.currentPageView()}
	if toasts := ui.RenderToasts(m.styles, m.toasts.Active()); toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m appModel) currentPageView() string {
	switch m.page {
	case pageCatalog:
		return m.catalogPage.View()
	case pageProduct:
		return m.productPage.View()
	case pageCart:
		return m.cartPage.View()
	case pageOrders:
		return m.ordersPage.View()
	case pageAdmin:
		return m.adminPage.View()
	case pageLogin:
		return m.loginPage.View()
	}
	return ""
}

func (m appModel) renderHeader() string {
	id := m.store.Identity()
	who := "guest"
	if id.Authenticated {
		who = id.Subject
		if who == "" {
			who = "signed in"
		}
		if id.IsAdmin() {
			who += " (admin)"
		}
	}
	return m.styles.Header.Render(fmt.Sprintf("Keita · %s · %s", m.page.title(), who))
}

func (m appModel) renderFooter() string {
	hints := "1 shop · 2 cart · 3 orders"
	if m.store.Identity().IsAdmin() {
		hints += " · 4 admin"
	}
	if m.store.Identity().Authenticated {
		hints += " · s sign out"
	} else {
		hints += " · s sign in"
	}
	hints += " · r reload · q quit"

	if m.busy > 0 {
		return m.styles.Footer.Render(m.spinner.View() + " " + hints)
	}
	return m.styles.Footer.Render(hints)
}
