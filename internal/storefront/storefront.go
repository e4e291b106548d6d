// Package storefront contains the view-models behind the client screens:
// catalog, cart, order history, and the admin product panel. Each view-model
// owns its remote fetches and local state; after every mutation it re-fetches
// authoritative state from the server instead of merging speculatively.
package storefront

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"keita/internal/api"
	"keita/internal/session"
)

// Notifier is the outcome-surfacing side of the notification channel.
// Implemented by *notify.Channel.
type Notifier interface {
	Success(message string) string
	Error(message string) string
	Info(message string) string
}

// IdentitySource exposes the current session identity. Implemented by
// *session.Store.
type IdentitySource interface {
	Identity() session.Identity
}

// CatalogService is the slice of the API the catalog view-model consumes.
type CatalogService interface {
	Products(ctx context.Context) ([]api.Product, error)
	Cart(ctx context.Context) ([]api.CartItem, error)
	AddToCart(ctx context.Context, productID, quantity int) error
}

// CartService is the slice of the API the cart view-model consumes.
type CartService interface {
	Cart(ctx context.Context) ([]api.CartItem, error)
	SetQuantity(ctx context.Context, productID, quantity int) error
	RemoveFromCart(ctx context.Context, productID int) error
	PlaceOrder(ctx context.Context, cartItemIDs []int) error
}

// OrderService is the slice of the API the order history view-model consumes.
type OrderService interface {
	Orders(ctx context.Context) ([]api.Order, error)
}

// AdminService is the slice of the API the admin view-model consumes.
type AdminService interface {
	AdminProducts(ctx context.Context) ([]api.Product, error)
	CreateProduct(ctx context.Context, p api.Product) error
	UpdateProduct(ctx context.Context, id int, p api.Product) error
	DeleteProduct(ctx context.Context, id int) error
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Env bundles the cross-component dependencies every view-model receives at
// construction. There is no implicit global state: the session store and the
// notification channel are injected here.
type Env struct {
	Notify   Notifier
	Identity IdentitySource
	Logger   *zap.Logger
	Now      func() time.Time
}

// normalize fills in safe defaults for optional fields.
func (e Env) normalize() Env {
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}
