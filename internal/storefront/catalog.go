package storefront

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"keita/internal/api"
)

// addCooldown is the minimum gap between add-to-cart actions.
const addCooldown = 1500 * time.Millisecond

// AddResult tells the caller what an AddOrGo call decided.
type AddResult int

const (
	// AddNone means nothing further happens: the action was gated locally
	// or the request failed (the outcome was already surfaced as a toast).
	AddNone AddResult = iota
	// AddGoToCart means the product is already in the cart and the UI
	// should navigate there instead of mutating anything.
	AddGoToCart
	// AddAdded means the add request succeeded.
	AddAdded
)

// Catalog is the product list view-model. It tracks which products are
// already in the cart and throttles add-to-cart actions.
type Catalog struct {
	mu  sync.Mutex
	svc CatalogService
	env Env

	products []api.Product
	inCart   map[int]bool
	adding   map[int]bool // per-product in-flight add
	lastAdd  time.Time
	loading  bool
	loadErr  error
	gen      uint64
}

// NewCatalog creates the catalog view-model.
func NewCatalog(svc CatalogService, env Env) *Catalog {
	return &Catalog{
		svc:    svc,
		env:    env.normalize(),
		inCart: make(map[int]bool),
		adding: make(map[int]bool),
	}
}

// Load fetches the product list and, for authenticated users, the cart to
// derive in-cart membership. A cart fetch failure only clears membership;
// it is not surfaced.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.loading = true
	c.loadErr = nil
	c.mu.Unlock()

	products, err := c.svc.Products(ctx)

	c.mu.Lock()
	if gen != c.gen {
		// A newer load superseded this one; drop the response.
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	if err != nil {
		c.loadErr = err
		c.mu.Unlock()
		c.env.Logger.Warn("catalog load failed", zap.Error(err))
		c.env.Notify.Error("Could not load products")
		return err
	}
	c.products = products
	c.mu.Unlock()

	membership := make(map[int]bool)
	if c.env.Identity.Identity().Authenticated {
		if items, err := c.svc.Cart(ctx); err == nil {
			for _, it := range items {
				membership[it.Product.ID] = true
			}
		}
		// A cart error (expired session, 403) leaves membership empty.
	}

	c.mu.Lock()
	if gen == c.gen {
		c.inCart = membership
	}
	c.mu.Unlock()
	return nil
}

// AddOrGo either signals navigation to the cart (product already there) or
// adds one unit of the product. Unauthenticated users and rapid repeats are
// rejected locally without touching the server.
func (c *Catalog) AddOrGo(ctx context.Context, productID int) AddResult {
	c.mu.Lock()
	if c.inCart[productID] {
		c.mu.Unlock()
		return AddGoToCart
	}
	if !c.env.Identity.Identity().Authenticated {
		c.mu.Unlock()
		c.env.Notify.Info("Sign in to add items to your cart")
		return AddNone
	}
	now := c.env.Now()
	if !c.lastAdd.IsZero() && now.Sub(c.lastAdd) < addCooldown {
		c.mu.Unlock()
		c.env.Notify.Info("You're adding items too quickly, give it a second")
		return AddNone
	}
	if c.adding[productID] {
		// A request for this product is already on the wire.
		c.mu.Unlock()
		return AddNone
	}
	c.lastAdd = now
	c.adding[productID] = true
	c.mu.Unlock()

	err := c.svc.AddToCart(ctx, productID, 1)

	c.mu.Lock()
	delete(c.adding, productID)
	if err != nil {
		c.mu.Unlock()
		c.env.Logger.Warn("add to cart failed", zap.Int("product", productID), zap.Error(err))
		c.env.Notify.Error("Could not add the item to your cart")
		return AddNone
	}
	c.inCart[productID] = true
	c.mu.Unlock()
	c.env.Notify.Success("Item added to your cart")
	return AddAdded
}

// Products returns the loaded product list.
func (c *Catalog) Products() []api.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.Product, len(c.products))
	copy(out, c.products)
	return out
}

// InCart reports whether the product is known to be in the cart.
func (c *Catalog) InCart(productID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inCart[productID]
}

// Adding reports whether an add request for the product is in flight.
func (c *Catalog) Adding(productID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adding[productID]
}

// Loading reports whether a load is in progress.
func (c *Catalog) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error from the last load, if any.
func (c *Catalog) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}
