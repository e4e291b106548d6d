package storefront

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"keita/internal/api"
)

// Orders is the read-only order history view-model.
type Orders struct {
	mu  sync.Mutex
	svc OrderService
	env Env

	orders  []api.Order
	loading bool
	loadErr error
	gen     uint64
}

// NewOrders creates the order history view-model.
func NewOrders(svc OrderService, env Env) *Orders {
	return &Orders{svc: svc, env: env.normalize()}
}

// Load fetches the order list for the current session.
func (o *Orders) Load(ctx context.Context) error {
	o.mu.Lock()
	o.gen++
	gen := o.gen
	o.loading = true
	o.loadErr = nil
	o.mu.Unlock()

	orders, err := o.svc.Orders(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		return nil
	}
	o.loading = false
	if err != nil {
		o.loadErr = err
		o.env.Logger.Warn("orders load failed", zap.Error(err))
		o.env.Notify.Error("Could not load your orders")
		return err
	}
	o.orders = orders
	return nil
}

// List returns the loaded orders.
func (o *Orders) List() []api.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]api.Order, len(o.orders))
	copy(out, o.orders)
	return out
}

// Loading reports whether a load is in progress.
func (o *Orders) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

// Err returns the error from the last load, if any.
func (o *Orders) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loadErr
}
