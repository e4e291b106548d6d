package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestClientAuthorization(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	t.Run("bearer token attached", func(t *testing.T) {
		c := NewClient(srv.URL, staticToken("tok-123"), nil)
		_, err := c.Products(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok-123", gotAuth)
	})

	t.Run("anonymous sends no header", func(t *testing.T) {
		c := NewClient(srv.URL, staticToken(""), nil)
		_, err := c.Products(context.Background())
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})
}

func TestClientEndpoints(t *testing.T) {
	type seen struct {
		method string
		path   string
		query  string
		body   string
	}
	var last seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		last = seen{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(body)}
		switch {
		case r.URL.Path == "/auth/login" || r.URL.Path == "/auth/register":
			_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok"})
		case r.URL.Path == "/products/7":
			_ = json.NewEncoder(w).Encode(Product{ID: 7, Name: "Mug"})
		case strings.HasPrefix(r.URL.Path, "/products") ||
			r.URL.Path == "/cart" ||
			r.URL.Path == "/orders" && r.Method == http.MethodGet ||
			r.URL.Path == "/admin/products" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte("[]"))
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL+"/", staticToken("tok"), nil) // trailing slash is trimmed

	t.Run("login", func(t *testing.T) {
		token, err := c.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		assert.Equal(t, "tok", token)
		assert.Equal(t, http.MethodPost, last.method)
		assert.Equal(t, "/auth/login", last.path)
		assert.JSONEq(t, `{"username":"alice","password":"secret"}`, last.body)
	})

	t.Run("register", func(t *testing.T) {
		_, err := c.Register(ctx, "bob", "pw")
		require.NoError(t, err)
		assert.Equal(t, "/auth/register", last.path)
	})

	t.Run("product by id", func(t *testing.T) {
		p, err := c.Product(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "Mug", p.Name)
		assert.Equal(t, "/products/7", last.path)
	})

	t.Run("add to cart carries quantity", func(t *testing.T) {
		require.NoError(t, c.AddToCart(ctx, 42, 1))
		assert.Equal(t, http.MethodPost, last.method)
		assert.Equal(t, "/cart/add/42", last.path)
		assert.Equal(t, "quantity=1", last.query)
	})

	t.Run("set quantity", func(t *testing.T) {
		require.NoError(t, c.SetQuantity(ctx, 42, 5))
		assert.Equal(t, "/cart/set/42", last.path)
		assert.Equal(t, "quantity=5", last.query)
	})

	t.Run("remove from cart", func(t *testing.T) {
		require.NoError(t, c.RemoveFromCart(ctx, 42))
		assert.Equal(t, http.MethodDelete, last.method)
		assert.Equal(t, "/cart/remove/42", last.path)
	})

	t.Run("place order sends line ids", func(t *testing.T) {
		require.NoError(t, c.PlaceOrder(ctx, []int{3, 1, 2}))
		assert.Equal(t, http.MethodPost, last.method)
		assert.Equal(t, "/orders", last.path)
		assert.JSONEq(t, `{"cartItemIds":[3,1,2]}`, last.body)
	})

	t.Run("admin crud", func(t *testing.T) {
		require.NoError(t, c.CreateProduct(ctx, Product{Name: "New"}))
		assert.Equal(t, http.MethodPost, last.method)
		assert.Equal(t, "/admin/products", last.path)

		require.NoError(t, c.UpdateProduct(ctx, 7, Product{ID: 7, Name: "Upd"}))
		assert.Equal(t, http.MethodPut, last.method)
		assert.Equal(t, "/admin/products/7", last.path)

		require.NoError(t, c.DeleteProduct(ctx, 7))
		assert.Equal(t, http.MethodDelete, last.method)
	})
}

func TestClientUploadImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/upload-image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "mug.png", header.Filename)
		assert.Equal(t, "imagedata", string(data))
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "/img/mug.png"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	url, err := c.UploadImage(context.Background(), "mug.png", strings.NewReader("imagedata"))
	require.NoError(t, err)
	assert.Equal(t, "/img/mug.png", url)
}

func TestClientErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cart":
			w.WriteHeader(http.StatusUnauthorized)
		case "/orders":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL, nil, nil)

	t.Run("401 maps to ErrUnauthorized", func(t *testing.T) {
		_, err := c.Cart(ctx)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("403 maps to ErrUnauthorized", func(t *testing.T) {
		_, err := c.Orders(ctx)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("other statuses map to StatusError", func(t *testing.T) {
		_, err := c.Products(ctx)
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusInternalServerError, se.Code)
		assert.Contains(t, se.Error(), "boom")
	})
}
