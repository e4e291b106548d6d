package storefront

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keita/internal/api"
)

func validDraft() api.Product {
	return api.Product{
		Name:        "Mug",
		Description: "A souvenir mug",
		Price:       12.50,
		ImageURL:    "/img/mug.png",
		Stock:       5,
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*api.Product)
		want   string
	}{
		{"valid", func(p *api.Product) {}, ""},
		{"name missing", func(p *api.Product) { p.Name = "" }, "name is required"},
		{"name whitespace only", func(p *api.Product) { p.Name = "   " }, "name is required"},
		{"description missing", func(p *api.Product) { p.Description = "" }, "description is required"},
		{"price zero", func(p *api.Product) { p.Price = 0 }, "price must be greater than 0"},
		{"price negative", func(p *api.Product) { p.Price = -1 }, "price must be greater than 0"},
		{"price too large", func(p *api.Product) { p.Price = MaxPrice + 1 }, "price cannot exceed 10,000,000,000"},
		{"stock too large", func(p *api.Product) { p.Stock = MaxStock + 1 }, "stock cannot exceed 10,000"},
		{"image missing", func(p *api.Product) { p.ImageURL = "" }, "an image is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validDraft()
			tc.mutate(&p)
			assert.Equal(t, tc.want, Validate(p))
		})
	}
}

func TestAdminDraftEditing(t *testing.T) {
	clock := newFakeClock()
	svc := &fakeService{}
	env, _ := testEnv(authenticated(), clock)
	admin := NewAdmin(svc, env)

	t.Run("name truncated at input", func(t *testing.T) {
		admin.StartCreate()
		admin.SetName(strings.Repeat("x", 100))
		require.NotNil(t, admin.Draft())
		assert.Len(t, admin.Draft().Name, MaxNameLen)
	})

	t.Run("description truncated at input", func(t *testing.T) {
		admin.SetDescription(strings.Repeat("y", 3000))
		assert.Len(t, admin.Draft().Description, MaxDescriptionLen)
	})

	t.Run("price and stock clamped", func(t *testing.T) {
		admin.SetPrice(-5)
		assert.Zero(t, admin.Draft().Price)
		admin.SetPrice(2 * MaxPrice)
		assert.EqualValues(t, MaxPrice, admin.Draft().Price)
		admin.SetStock(-1)
		assert.Zero(t, admin.Draft().Stock)
		admin.SetStock(99999)
		assert.Equal(t, MaxStock, admin.Draft().Stock)
	})

	t.Run("edit copies the product", func(t *testing.T) {
		p := validDraft()
		p.ID = 7
		admin.StartEdit(p)
		draft := admin.Draft()
		require.NotNil(t, draft)
		assert.Equal(t, 7, draft.ID)
		assert.Equal(t, "Mug", draft.Name)
	})
}

func TestAdminSaveRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("zero id creates", func(t *testing.T) {
		clock := newFakeClock()
		svc := &fakeService{}
		env, rec := testEnv(authenticated(), clock)
		admin := NewAdmin(svc, env)

		admin.StartCreate()
		admin.SetName("Mug")
		admin.SetDescription("A souvenir mug")
		admin.SetPrice(12.50)
		admin.SetStock(5)
		adminDraftSetImage(admin, "/img/mug.png")

		require.NoError(t, admin.Save(ctx))
		assert.Len(t, svc.created, 1)
		assert.Empty(t, svc.updated)
		assert.Nil(t, admin.Draft(), "form closes after save")
		assert.Equal(t, 1, svc.adminCalls, "list reloaded after save")
		assert.NotEmpty(t, rec.success)
	})

	t.Run("nonzero id updates", func(t *testing.T) {
		clock := newFakeClock()
		svc := &fakeService{}
		env, _ := testEnv(authenticated(), clock)
		admin := NewAdmin(svc, env)

		p := validDraft()
		p.ID = 7
		admin.StartEdit(p)
		require.NoError(t, admin.Save(ctx))
		assert.Empty(t, svc.created)
		assert.Len(t, svc.updated, 1)
	})

	t.Run("validation failure blocks the request", func(t *testing.T) {
		clock := newFakeClock()
		svc := &fakeService{}
		env, _ := testEnv(authenticated(), clock)
		admin := NewAdmin(svc, env)

		admin.StartCreate()
		admin.SetPrice(100)
		admin.SetStock(1)
		adminDraftSetImage(admin, "x")
		require.NoError(t, admin.Save(ctx))
		assert.Equal(t, "name is required", admin.FormError())
		assert.Empty(t, svc.created)
	})

	t.Run("save failure keeps the form open", func(t *testing.T) {
		clock := newFakeClock()
		svc := &fakeService{createErr: assert.AnError}
		env, rec := testEnv(authenticated(), clock)
		admin := NewAdmin(svc, env)

		p := validDraft()
		admin.StartEdit(p)
		require.Error(t, admin.Save(ctx))
		assert.NotNil(t, admin.Draft())
		assert.Zero(t, svc.adminCalls, "no reload after failure")
		assert.NotEmpty(t, rec.errors)
	})
}

// adminDraftSetImage merges an image URL into the draft the way a completed
// upload would.
func adminDraftSetImage(a *Admin, url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft != nil {
		a.draft.ImageURL = url
	}
}

func TestAdminRateLimitSharedAcrossActions(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := &fakeService{}
	env, rec := testEnv(authenticated(), clock)
	admin := NewAdmin(svc, env)

	admin.StartEdit(validDraftWithID(7))
	require.NoError(t, admin.Save(ctx))
	require.Len(t, svc.updated, 1)

	// A delete right after the save hits the shared cooldown.
	admin.ConfirmDelete(validDraftWithID(8))
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, admin.Delete(ctx))
	assert.Empty(t, svc.deleted)
	assert.NotEmpty(t, rec.errors)

	clock.Advance(adminCooldown)
	require.NoError(t, admin.Delete(ctx))
	assert.Equal(t, []int{8}, svc.deleted)
}

func validDraftWithID(id int) api.Product {
	p := validDraft()
	p.ID = id
	return p
}

func TestAdminSaveCooldownSetsFormError(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := &fakeService{}
	env, _ := testEnv(authenticated(), clock)
	admin := NewAdmin(svc, env)

	admin.StartEdit(validDraftWithID(7))
	require.NoError(t, admin.Save(ctx))

	admin.StartEdit(validDraftWithID(7))
	clock.Advance(200 * time.Millisecond)
	require.NoError(t, admin.Save(ctx))
	assert.Equal(t, "too many requests, wait a moment", admin.FormError())
	assert.Len(t, svc.updated, 1, "second save suppressed")
}

func TestAdminDeleteConfirmation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := &fakeService{}
	env, rec := testEnv(authenticated(), clock)
	admin := NewAdmin(svc, env)

	t.Run("delete without a candidate is a no-op", func(t *testing.T) {
		require.NoError(t, admin.Delete(ctx))
		assert.Empty(t, svc.deleted)
	})

	t.Run("cancel clears the candidate", func(t *testing.T) {
		admin.ConfirmDelete(validDraftWithID(7))
		require.NotNil(t, admin.DeleteCandidate())
		admin.CancelDelete()
		assert.Nil(t, admin.DeleteCandidate())
	})

	t.Run("not dismissible while in flight", func(t *testing.T) {
		cancelled := false
		wrapped := &midFlightDelete{fakeService: svc}
		admin2 := NewAdmin(wrapped, env)
		admin2.ConfirmDelete(validDraftWithID(9))
		wrapped.onDelete = func() {
			admin2.CancelDelete()
			cancelled = admin2.DeleteCandidate() == nil
		}
		require.NoError(t, admin2.Delete(ctx))
		assert.False(t, cancelled, "cancel must be ignored while the request is in flight")
		assert.Equal(t, []int{9}, svc.deleted)
		assert.NotEmpty(t, rec.success)
	})
}

// midFlightDelete invokes a hook from inside DeleteProduct.
type midFlightDelete struct {
	*fakeService
	onDelete func()
}

func (m *midFlightDelete) DeleteProduct(ctx context.Context, id int) error {
	if m.onDelete != nil {
		m.onDelete()
	}
	return m.fakeService.DeleteProduct(ctx, id)
}

func TestAdminUploadImage(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	t.Run("merges url into draft", func(t *testing.T) {
		svc := &fakeService{uploadURL: "/img/new.png"}
		env, rec := testEnv(authenticated(), clock)
		admin := NewAdmin(svc, env)
		admin.StartCreate()

		require.NoError(t, admin.UploadImage(ctx, "new.png", strings.NewReader("data")))
		assert.Equal(t, "/img/new.png", admin.Draft().ImageURL)
		assert.NotEmpty(t, rec.success)
	})

	t.Run("failure does not block the form", func(t *testing.T) {
		svc := &fakeService{uploadErr: assert.AnError}
		env, rec := testEnv(authenticated(), clock)
		admin := NewAdmin(svc, env)
		admin.StartEdit(validDraftWithID(7))

		require.Error(t, admin.UploadImage(ctx, "new.png", strings.NewReader("data")))
		assert.NotEmpty(t, rec.errors)
		assert.Equal(t, "/img/mug.png", admin.Draft().ImageURL, "draft keeps its previous image")
		require.NoError(t, admin.Save(ctx))
		assert.Len(t, svc.updated, 1, "form remains submittable")
	})
}

func TestAdminLoad(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	t.Run("success", func(t *testing.T) {
		svc := &fakeService{adminFn: func() ([]api.Product, error) { return testProducts(), nil }}
		env, _ := testEnv(authenticated(), clock)
		admin := NewAdmin(svc, env)
		require.NoError(t, admin.Load(ctx))
		assert.Len(t, admin.Products(), 2)
	})

	t.Run("failure stays on the page, no toast", func(t *testing.T) {
		svc := &fakeService{adminFn: func() ([]api.Product, error) { return nil, assert.AnError }}
		env, rec := testEnv(authenticated(), clock)
		admin := NewAdmin(svc, env)
		require.Error(t, admin.Load(ctx))
		assert.Error(t, admin.Err())
		assert.Empty(t, rec.errors)
	})
}
