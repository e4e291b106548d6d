package storefront

import (
	"context"
	"io"
	"sync"
	"time"

	"keita/internal/api"
	"keita/internal/session"
)

// fakeClock is a manually advanced clock for cooldown tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder captures toasts by severity.
type recorder struct {
	mu       sync.Mutex
	success  []string
	errors   []string
	infos    []string
}

func (r *recorder) Success(msg string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success = append(r.success, msg)
	return msg
}

func (r *recorder) Error(msg string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
	return msg
}

func (r *recorder) Info(msg string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, msg)
	return msg
}

// identity is a fixed IdentitySource.
type identity struct {
	id session.Identity
}

func (i identity) Identity() session.Identity { return i.id }

func authenticated() identity {
	return identity{id: session.Identity{Subject: "user@example.com", Authenticated: true}}
}

func anonymous() identity { return identity{} }

// fakeService implements every storefront service with function hooks and
// call recording.
type fakeService struct {
	mu sync.Mutex

	productsFn func() ([]api.Product, error)
	cartFn     func() ([]api.CartItem, error)
	ordersFn   func() ([]api.Order, error)
	adminFn    func() ([]api.Product, error)

	addErr    error
	setErr    error
	removeErr error
	placeErr  error
	createErr error
	updateErr error
	deleteErr error
	uploadURL string
	uploadErr error

	cartCalls   int
	adminCalls  int
	addCalls    []int
	setCalls    [][2]int // productID, quantity
	removeCalls []int
	placeCalls  [][]int
	created     []api.Product
	updated     []api.Product
	deleted     []int
}

func (f *fakeService) Products(ctx context.Context) ([]api.Product, error) {
	if f.productsFn != nil {
		return f.productsFn()
	}
	return nil, nil
}

func (f *fakeService) Cart(ctx context.Context) ([]api.CartItem, error) {
	f.mu.Lock()
	f.cartCalls++
	f.mu.Unlock()
	if f.cartFn != nil {
		return f.cartFn()
	}
	return nil, nil
}

func (f *fakeService) AddToCart(ctx context.Context, productID, quantity int) error {
	f.mu.Lock()
	f.addCalls = append(f.addCalls, productID)
	f.mu.Unlock()
	return f.addErr
}

func (f *fakeService) SetQuantity(ctx context.Context, productID, quantity int) error {
	f.mu.Lock()
	f.setCalls = append(f.setCalls, [2]int{productID, quantity})
	f.mu.Unlock()
	return f.setErr
}

func (f *fakeService) RemoveFromCart(ctx context.Context, productID int) error {
	f.mu.Lock()
	f.removeCalls = append(f.removeCalls, productID)
	f.mu.Unlock()
	return f.removeErr
}

func (f *fakeService) PlaceOrder(ctx context.Context, cartItemIDs []int) error {
	f.mu.Lock()
	ids := make([]int, len(cartItemIDs))
	copy(ids, cartItemIDs)
	f.placeCalls = append(f.placeCalls, ids)
	f.mu.Unlock()
	return f.placeErr
}

func (f *fakeService) Orders(ctx context.Context) ([]api.Order, error) {
	if f.ordersFn != nil {
		return f.ordersFn()
	}
	return nil, nil
}

func (f *fakeService) AdminProducts(ctx context.Context) ([]api.Product, error) {
	f.mu.Lock()
	f.adminCalls++
	f.mu.Unlock()
	if f.adminFn != nil {
		return f.adminFn()
	}
	return nil, nil
}

func (f *fakeService) CreateProduct(ctx context.Context, p api.Product) error {
	f.mu.Lock()
	f.created = append(f.created, p)
	f.mu.Unlock()
	return f.createErr
}

func (f *fakeService) UpdateProduct(ctx context.Context, id int, p api.Product) error {
	f.mu.Lock()
	f.updated = append(f.updated, p)
	f.mu.Unlock()
	return f.updateErr
}

func (f *fakeService) DeleteProduct(ctx context.Context, id int) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeService) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	return f.uploadURL, f.uploadErr
}

// testEnv builds an Env with a recorder, fake clock, and the given identity.
func testEnv(id IdentitySource, clock *fakeClock) (Env, *recorder) {
	rec := &recorder{}
	return Env{
		Notify:   rec,
		Identity: id,
		Now:      clock.Now,
	}, rec
}

func fixedCart(items []api.CartItem) func() ([]api.CartItem, error) {
	return func() ([]api.CartItem, error) {
		out := make([]api.CartItem, len(items))
		copy(out, items)
		return out, nil
	}
}
