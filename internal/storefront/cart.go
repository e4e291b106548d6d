package storefront

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"keita/internal/api"
)

// incrementCooldown is the minimum gap between quantity increments.
const incrementCooldown = 1000 * time.Millisecond

// Cart is the shopping cart view-model: cart lines, the checkout selection
// set, derived totals, quantity edits, and order placement. Totals are always
// recomputed from current state, never stored.
type Cart struct {
	mu  sync.Mutex
	svc CartService
	env Env

	items         []api.CartItem
	selected      map[int]bool // cart line id -> selected
	lastIncrement time.Time
	confirming    bool
	placing       bool
	loading       bool
	loadErr       error
	gen           uint64
}

// NewCart creates the cart view-model.
func NewCart(svc CartService, env Env) *Cart {
	return &Cart{
		svc:      svc,
		env:      env.normalize(),
		selected: make(map[int]bool),
	}
}

// Load fetches the cart lines and purges selection entries whose lines are
// gone. A response belonging to a superseded load is dropped.
func (c *Cart) Load(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.loading = true
	c.loadErr = nil
	c.mu.Unlock()

	items, err := c.svc.Cart(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.loading = false
	if err != nil {
		c.loadErr = err
		c.env.Logger.Warn("cart load failed", zap.Error(err))
		c.env.Notify.Error("Could not load your cart")
		return err
	}
	c.items = items

	// Selection must only reference lines that still exist.
	next := make(map[int]bool)
	for _, it := range items {
		if c.selected[it.ID] {
			next[it.ID] = true
		}
	}
	c.selected = next
	return nil
}

// ToggleSelect flips the selection state of a cart line. Ids that do not
// correspond to a loaded line are ignored.
func (c *Cart) ToggleSelect(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lineByID(id) == nil {
		return
	}
	if c.selected[id] {
		delete(c.selected, id)
	} else {
		c.selected[id] = true
	}
}

// SelectAll marks every loaded line as selected.
func (c *Cart) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		c.selected[it.ID] = true
	}
}

// ClearSelection empties the selection set.
func (c *Cart) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = make(map[int]bool)
}

// IsSelected reports whether a line is in the selection set.
func (c *Cart) IsSelected(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected[id]
}

// SelectedIDs returns the selected line ids in ascending order.
func (c *Cart) SelectedIDs() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Total is the sum of unit price times quantity over the selected lines.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, it := range c.items {
		if c.selected[it.ID] {
			total += it.Product.Price * float64(it.Quantity)
		}
	}
	return total
}

// SelectedCount is the sum of quantities over the selected lines.
func (c *Cart) SelectedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for _, it := range c.items {
		if c.selected[it.ID] {
			n += it.Quantity
		}
	}
	return n
}

// SetQuantity clamps the requested quantity to [0, stock] for the product's
// line, sends it, and reloads the cart. The server list is the source of
// truth; there is no optimistic merge.
func (c *Cart) SetQuantity(ctx context.Context, productID, quantity int) error {
	c.mu.Lock()
	line := c.lineByProduct(productID)
	if line == nil {
		c.mu.Unlock()
		return nil
	}
	if quantity < 0 {
		quantity = 0
	}
	if quantity > line.Product.Stock {
		quantity = line.Product.Stock
	}
	c.mu.Unlock()

	if err := c.svc.SetQuantity(ctx, productID, quantity); err != nil {
		c.env.Logger.Warn("set quantity failed",
			zap.Int("product", productID),
			zap.Int("quantity", quantity),
			zap.Error(err))
		c.env.Notify.Error("Could not update the quantity")
		return err
	}
	return c.Load(ctx)
}

// Increment raises the line's quantity by one, rejecting repeats inside the
// cooldown window and increments past the available stock.
func (c *Cart) Increment(ctx context.Context, productID int) error {
	c.mu.Lock()
	line := c.lineByProduct(productID)
	if line == nil {
		c.mu.Unlock()
		return nil
	}
	now := c.env.Now()
	if !c.lastIncrement.IsZero() && now.Sub(c.lastIncrement) < incrementCooldown {
		c.mu.Unlock()
		c.env.Notify.Info("You're changing the quantity too quickly, wait a second")
		return nil
	}
	if line.Quantity >= line.Product.Stock {
		c.mu.Unlock()
		c.env.Notify.Info("No more stock available for this item")
		return nil
	}
	c.lastIncrement = now
	quantity := line.Quantity + 1
	c.mu.Unlock()

	return c.SetQuantity(ctx, productID, quantity)
}

// Remove deletes the product's line from the cart and reloads.
func (c *Cart) Remove(ctx context.Context, productID int) error {
	if err := c.svc.RemoveFromCart(ctx, productID); err != nil {
		c.env.Logger.Warn("remove from cart failed", zap.Int("product", productID), zap.Error(err))
		c.env.Notify.Error("Could not remove the item")
		return err
	}
	return c.Load(ctx)
}

// OpenConfirmation starts the two-step checkout. It refuses to open on an
// empty selection.
func (c *Cart) OpenConfirmation() bool {
	c.mu.Lock()
	empty := len(c.selected) == 0
	if !empty {
		c.confirming = true
	}
	c.mu.Unlock()
	if empty {
		c.env.Notify.Info("Select at least one item to place an order")
		return false
	}
	return true
}

// CloseConfirmation dismisses the checkout confirmation. It cannot be closed
// while a placement request is in flight.
func (c *Cart) CloseConfirmation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.placing {
		return false
	}
	c.confirming = false
	return true
}

// PlaceOrder submits the selected line ids. An empty selection is rejected
// locally with no request. On success the selection is cleared and the cart
// reloaded; on failure both are left untouched.
func (c *Cart) PlaceOrder(ctx context.Context) error {
	c.mu.Lock()
	if len(c.selected) == 0 {
		c.mu.Unlock()
		c.env.Notify.Info("Select items to order first")
		return nil
	}
	ids := make([]int, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	c.placing = true
	c.mu.Unlock()

	err := c.svc.PlaceOrder(ctx, ids)

	c.mu.Lock()
	c.placing = false
	if err != nil {
		c.mu.Unlock()
		c.env.Logger.Warn("order placement failed", zap.Ints("cartItemIds", ids), zap.Error(err))
		c.env.Notify.Error("Could not place the order")
		return err
	}
	c.confirming = false
	c.selected = make(map[int]bool)
	c.mu.Unlock()

	c.env.Notify.Success("Order placed")
	return c.Load(ctx)
}

// Items returns the loaded cart lines.
func (c *Cart) Items() []api.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Confirming reports whether the checkout confirmation is open.
func (c *Cart) Confirming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirming
}

// Placing reports whether an order placement is in flight.
func (c *Cart) Placing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placing
}

// Loading reports whether a load is in progress.
func (c *Cart) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error from the last load, if any.
func (c *Cart) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// lineByID finds a cart line by its line id. Caller holds the lock.
func (c *Cart) lineByID(id int) *api.CartItem {
	for i := range c.items {
		if c.items[i].ID == id {
			return &c.items[i]
		}
	}
	return nil
}

// lineByProduct finds a cart line by product id. Caller holds the lock.
func (c *Cart) lineByProduct(productID int) *api.CartItem {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return &c.items[i]
		}
	}
	return nil
}
