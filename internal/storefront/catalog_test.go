package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keita/internal/api"
)

func testProducts() []api.Product {
	return []api.Product{
		{ID: 10, Name: "Mug", Price: 12.50, Stock: 5},
		{ID: 20, Name: "Magnet", Price: 3.00, Stock: 10},
	}
}

func TestCatalogLoadMembership(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	t.Run("authenticated derives membership from the cart", func(t *testing.T) {
		svc := &fakeService{
			productsFn: func() ([]api.Product, error) { return testProducts(), nil },
			cartFn: fixedCart([]api.CartItem{
				{ID: 1, Product: api.Product{ID: 10}, Quantity: 1},
			}),
		}
		env, _ := testEnv(authenticated(), clock)
		cat := NewCatalog(svc, env)
		require.NoError(t, cat.Load(ctx))

		assert.Len(t, cat.Products(), 2)
		assert.True(t, cat.InCart(10))
		assert.False(t, cat.InCart(20))
	})

	t.Run("anonymous never fetches the cart", func(t *testing.T) {
		svc := &fakeService{
			productsFn: func() ([]api.Product, error) { return testProducts(), nil },
		}
		env, _ := testEnv(anonymous(), clock)
		cat := NewCatalog(svc, env)
		require.NoError(t, cat.Load(ctx))
		assert.Zero(t, svc.cartCalls)
		assert.False(t, cat.InCart(10))
	})

	t.Run("cart failure clears membership silently", func(t *testing.T) {
		svc := &fakeService{
			productsFn: func() ([]api.Product, error) { return testProducts(), nil },
			cartFn:     func() ([]api.CartItem, error) { return nil, assert.AnError },
		}
		env, rec := testEnv(authenticated(), clock)
		cat := NewCatalog(svc, env)
		require.NoError(t, cat.Load(ctx))
		assert.False(t, cat.InCart(10))
		assert.Empty(t, rec.errors, "cart failures are not surfaced on the catalog")
	})

	t.Run("product failure is surfaced", func(t *testing.T) {
		svc := &fakeService{
			productsFn: func() ([]api.Product, error) { return nil, assert.AnError },
		}
		env, rec := testEnv(authenticated(), clock)
		cat := NewCatalog(svc, env)
		require.Error(t, cat.Load(ctx))
		assert.Error(t, cat.Err())
		assert.NotEmpty(t, rec.errors)
	})
}

func TestCatalogAddOrGo(t *testing.T) {
	ctx := context.Background()

	newCatalog := func(id IdentitySource) (*Catalog, *fakeService, *recorder, *fakeClock) {
		clock := newFakeClock()
		svc := &fakeService{
			productsFn: func() ([]api.Product, error) { return testProducts(), nil },
			cartFn:     fixedCart(nil),
		}
		env, rec := testEnv(id, clock)
		cat := NewCatalog(svc, env)
		require.NoError(t, cat.Load(ctx))
		return cat, svc, rec, clock
	}

	t.Run("already in cart navigates without a request", func(t *testing.T) {
		clock := newFakeClock()
		svc := &fakeService{
			productsFn: func() ([]api.Product, error) { return testProducts(), nil },
			cartFn: fixedCart([]api.CartItem{
				{ID: 1, Product: api.Product{ID: 10}, Quantity: 1},
			}),
		}
		env, _ := testEnv(authenticated(), clock)
		cat := NewCatalog(svc, env)
		require.NoError(t, cat.Load(ctx))

		assert.Equal(t, AddGoToCart, cat.AddOrGo(ctx, 10))
		assert.Empty(t, svc.addCalls)
	})

	t.Run("unauthenticated is gated with an info toast", func(t *testing.T) {
		cat, svc, rec, _ := newCatalog(anonymous())
		assert.Equal(t, AddNone, cat.AddOrGo(ctx, 10))
		assert.Empty(t, svc.addCalls)
		assert.NotEmpty(t, rec.infos)
	})

	t.Run("successful add marks membership", func(t *testing.T) {
		cat, svc, rec, _ := newCatalog(authenticated())
		assert.Equal(t, AddAdded, cat.AddOrGo(ctx, 10))
		assert.Equal(t, []int{10}, svc.addCalls)
		assert.True(t, cat.InCart(10))
		assert.NotEmpty(t, rec.success)
	})

	t.Run("rapid repeat is rejected locally", func(t *testing.T) {
		cat, svc, rec, clock := newCatalog(authenticated())
		assert.Equal(t, AddAdded, cat.AddOrGo(ctx, 10))
		clock.Advance(500 * time.Millisecond)
		assert.Equal(t, AddNone, cat.AddOrGo(ctx, 20))
		assert.Len(t, svc.addCalls, 1)
		assert.NotEmpty(t, rec.infos)

		clock.Advance(addCooldown)
		assert.Equal(t, AddAdded, cat.AddOrGo(ctx, 20))
		assert.Len(t, svc.addCalls, 2)
	})

	t.Run("failure leaves membership unchanged", func(t *testing.T) {
		cat, svc, rec, _ := newCatalog(authenticated())
		svc.addErr = assert.AnError
		assert.Equal(t, AddNone, cat.AddOrGo(ctx, 10))
		assert.False(t, cat.InCart(10))
		assert.NotEmpty(t, rec.errors)
	})

	t.Run("duplicate submission suppressed while in flight", func(t *testing.T) {
		cat, svc, _, clock := newCatalog(authenticated())

		// The hook fires from inside AddToCart, i.e. while the first
		// request is still outstanding.
		var second AddResult
		wrapped := &midFlightAdd{fakeService: svc, onAdd: func() {
			clock.Advance(addCooldown * 2) // past the rate limit
			second = cat.AddOrGo(ctx, 10)
		}}
		cat2 := NewCatalog(wrapped, cat.env)
		require.NoError(t, cat2.Load(ctx))
		cat = cat2
		assert.Equal(t, AddAdded, cat.AddOrGo(ctx, 10))
		assert.Equal(t, AddNone, second)
		assert.Len(t, svc.addCalls, 1)
	})
}

// midFlightAdd invokes a hook from inside AddToCart.
type midFlightAdd struct {
	*fakeService
	onAdd func()
}

func (m *midFlightAdd) AddToCart(ctx context.Context, productID, quantity int) error {
	if m.onAdd != nil {
		fn := m.onAdd
		m.onAdd = nil
		fn()
	}
	return m.fakeService.AddToCart(ctx, productID, quantity)
}
