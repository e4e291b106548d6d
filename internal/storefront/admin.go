package storefront

import (
	"context"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"keita/internal/api"
)

// Form limits. Name and description are cut at the point of input, not just
// at validation.
const (
	MaxNameLen        = 63
	MaxDescriptionLen = 2000
	MaxPrice          = 10_000_000_000
	MaxStock          = 10_000
)

// adminCooldown is the minimum gap between save/delete actions, shared across
// the whole panel rather than per item.
const adminCooldown = 1500 * time.Millisecond

// Admin is the admin product panel view-model: the product table, a draft
// form with local validation, image upload, and a delete confirmation flow.
type Admin struct {
	mu  sync.Mutex
	svc AdminService
	env Env

	products   []api.Product
	draft      *api.Product
	formErr    string
	deleting   *api.Product // delete candidate awaiting confirmation
	saving     bool
	deleteBusy bool
	lastAction time.Time
	loading    bool
	loadErr    error
	gen        uint64
}

// NewAdmin creates the admin panel view-model.
func NewAdmin(svc AdminService, env Env) *Admin {
	return &Admin{svc: svc, env: env.normalize()}
}

// Load fetches the product list through the admin endpoint.
func (a *Admin) Load(ctx context.Context) error {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.loading = true
	a.loadErr = nil
	a.mu.Unlock()

	products, err := a.svc.AdminProducts(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return nil
	}
	a.loading = false
	if err != nil {
		a.loadErr = err
		a.env.Logger.Warn("admin product load failed", zap.Error(err))
		return err
	}
	a.products = products
	return nil
}

// StartCreate opens the form with an empty draft (zero id = not persisted).
func (a *Admin) StartCreate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = &api.Product{}
	a.formErr = ""
}

// StartEdit opens the form with a copy of an existing product.
func (a *Admin) StartEdit(p api.Product) {
	a.mu.Lock()
	defer a.mu.Unlock()
	draft := p
	a.draft = &draft
	a.formErr = ""
}

// CancelEdit closes the form. Ignored while a save is in flight.
func (a *Admin) CancelEdit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saving {
		return
	}
	a.draft = nil
	a.formErr = ""
}

// SetName updates the draft name, truncated to MaxNameLen.
func (a *Admin) SetName(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return
	}
	a.draft.Name = truncateRunes(name, MaxNameLen)
}

// SetDescription updates the draft description, truncated to MaxDescriptionLen.
func (a *Admin) SetDescription(desc string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return
	}
	a.draft.Description = truncateRunes(desc, MaxDescriptionLen)
}

// SetPrice updates the draft price, clamped to [0, MaxPrice]. Non-finite
// input resets to zero.
func (a *Admin) SetPrice(price float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		price = 0
	}
	a.draft.Price = math.Min(math.Max(price, 0), MaxPrice)
}

// SetStock updates the draft stock, clamped to [0, MaxStock].
func (a *Admin) SetStock(stock int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return
	}
	if stock < 0 {
		stock = 0
	}
	if stock > MaxStock {
		stock = MaxStock
	}
	a.draft.Stock = stock
}

// UploadImage uploads the image payload and merges the returned URL into the
// draft. A failure surfaces a toast but leaves the rest of the form usable.
func (a *Admin) UploadImage(ctx context.Context, filename string, r io.Reader) error {
	url, err := a.svc.UploadImage(ctx, filename, r)
	if err != nil {
		a.env.Logger.Warn("image upload failed", zap.String("file", filename), zap.Error(err))
		a.env.Notify.Error("Could not upload the image")
		return err
	}

	a.mu.Lock()
	if a.draft != nil {
		a.draft.ImageURL = url
		a.formErr = ""
	}
	a.mu.Unlock()
	a.env.Notify.Success("Image uploaded")
	return nil
}

// Validate checks a product draft. It returns an empty string when valid,
// otherwise the form-level rejection reason.
func Validate(p api.Product) string {
	if isBlank(p.Name) {
		return "name is required"
	}
	if isBlank(p.Description) {
		return "description is required"
	}
	if p.Price <= 0 {
		return "price must be greater than 0"
	}
	if p.Price > MaxPrice {
		return "price cannot exceed 10,000,000,000"
	}
	if p.Stock < 0 {
		return "stock cannot be negative"
	}
	if p.Stock > MaxStock {
		return "stock cannot exceed 10,000"
	}
	if isBlank(p.ImageURL) {
		return "an image is required"
	}
	return ""
}

// Save validates the draft and routes it to create (id 0) or update. The
// save/delete cooldown and validation both reject locally via the form error.
// Every successful save reloads the list from the server.
func (a *Admin) Save(ctx context.Context) error {
	a.mu.Lock()
	if a.draft == nil {
		a.mu.Unlock()
		return nil
	}
	now := a.env.Now()
	if !a.lastAction.IsZero() && now.Sub(a.lastAction) < adminCooldown {
		a.formErr = "too many requests, wait a moment"
		a.mu.Unlock()
		return nil
	}
	a.lastAction = now
	if msg := Validate(*a.draft); msg != "" {
		a.formErr = msg
		a.mu.Unlock()
		return nil
	}
	a.formErr = ""
	a.saving = true
	draft := *a.draft
	a.mu.Unlock()

	var err error
	if draft.ID == 0 {
		err = a.svc.CreateProduct(ctx, draft)
	} else {
		err = a.svc.UpdateProduct(ctx, draft.ID, draft)
	}

	a.mu.Lock()
	a.saving = false
	if err != nil {
		a.mu.Unlock()
		a.env.Logger.Warn("product save failed", zap.Int("id", draft.ID), zap.Error(err))
		a.env.Notify.Error("Could not save the product")
		return err
	}
	a.draft = nil
	a.mu.Unlock()

	if draft.ID == 0 {
		a.env.Notify.Success("Product created")
	} else {
		a.env.Notify.Success("Product updated")
	}
	return a.Load(ctx)
}

// ConfirmDelete stores the delete candidate and opens the confirmation.
func (a *Admin) ConfirmDelete(p api.Product) {
	a.mu.Lock()
	defer a.mu.Unlock()
	candidate := p
	a.deleting = &candidate
}

// CancelDelete dismisses the confirmation. Ignored while the delete request
// is in flight.
func (a *Admin) CancelDelete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleteBusy {
		return
	}
	a.deleting = nil
}

// Delete performs the confirmed deletion, honoring the shared cooldown, and
// reloads the list on success.
func (a *Admin) Delete(ctx context.Context) error {
	a.mu.Lock()
	if a.deleting == nil {
		a.mu.Unlock()
		return nil
	}
	now := a.env.Now()
	if !a.lastAction.IsZero() && now.Sub(a.lastAction) < adminCooldown {
		a.mu.Unlock()
		a.env.Notify.Error("Too many requests, wait a moment")
		return nil
	}
	a.lastAction = now
	a.deleteBusy = true
	id := a.deleting.ID
	a.mu.Unlock()

	err := a.svc.DeleteProduct(ctx, id)

	a.mu.Lock()
	a.deleteBusy = false
	if err != nil {
		a.mu.Unlock()
		a.env.Logger.Warn("product delete failed", zap.Int("id", id), zap.Error(err))
		a.env.Notify.Error("Could not delete the product")
		return err
	}
	a.deleting = nil
	a.mu.Unlock()

	a.env.Notify.Success("Product deleted")
	return a.Load(ctx)
}

// Products returns the loaded product list.
func (a *Admin) Products() []api.Product {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]api.Product, len(a.products))
	copy(out, a.products)
	return out
}

// Draft returns a copy of the open draft, or nil when the form is closed.
func (a *Admin) Draft() *api.Product {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return nil
	}
	draft := *a.draft
	return &draft
}

// FormError returns the current form-level rejection reason, if any.
func (a *Admin) FormError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.formErr
}

// DeleteCandidate returns a copy of the product awaiting delete confirmation.
func (a *Admin) DeleteCandidate() *api.Product {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleting == nil {
		return nil
	}
	candidate := *a.deleting
	return &candidate
}

// Saving reports whether a save request is in flight.
func (a *Admin) Saving() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saving
}

// Deleting reports whether the delete request is in flight.
func (a *Admin) Deleting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deleteBusy
}

// Loading reports whether a load is in progress.
func (a *Admin) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Err returns the error from the last load, if any.
func (a *Admin) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadErr
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
