// Package api implements the HTTP client for the Keita storefront API.
// Every call is a single attempt: failures are returned to the caller,
// which surfaces them as notifications. No retry, no backoff.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned for 401/403 responses: the credential is
// missing, expired, or lacks the required role.
var ErrUnauthorized = errors.New("api: unauthorized")

// StatusError reports a non-2xx response that is not an auth failure.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("api: unexpected status %d: %s", e.Code, e.Body)
}

// TokenSource supplies the current credential for outgoing requests.
// An empty string means anonymous.
type TokenSource interface {
	Token() string
}

// Client talks to the storefront API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// NewClient creates a client for the API at baseURL. tokens may be nil for
// a purely anonymous client.
func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		logger: logger,
	}
}

// SetTimeout overrides the default per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.http.Timeout = d
	}
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var res authResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// Register creates an account and returns its access token.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var res authResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &res); err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// Products lists the public catalog.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches a single catalog entry.
func (c *Client) Product(ctx context.Context, id int) (Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/products/"+strconv.Itoa(id), nil, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Cart returns the current user's cart lines.
func (c *Client) Cart(ctx context.Context) ([]CartItem, error) {
	var items []CartItem
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart adds quantity units of a product to the cart.
func (c *Client) AddToCart(ctx context.Context, productID, quantity int) error {
	path := fmt.Sprintf("/cart/add/%d?quantity=%d", productID, quantity)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// SetQuantity sets the absolute quantity of a product in the cart.
// Quantity 0 removes the line server-side.
func (c *Client) SetQuantity(ctx context.Context, productID, quantity int) error {
	path := fmt.Sprintf("/cart/set/%d?quantity=%d", productID, quantity)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// RemoveFromCart removes a product's line from the cart.
func (c *Client) RemoveFromCart(ctx context.Context, productID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/remove/%d", productID), nil, nil)
}

// PlaceOrder submits the given cart line ids as a new order.
func (c *Client) PlaceOrder(ctx context.Context, cartItemIDs []int) error {
	return c.do(ctx, http.MethodPost, "/orders", orderRequest{CartItemIDs: cartItemIDs}, nil)
}

// Orders lists the current user's orders.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// AdminProducts lists the catalog through the admin endpoint.
func (c *Client) AdminProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/admin/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct persists a new product.
func (c *Client) CreateProduct(ctx context.Context, p Product) error {
	return c.do(ctx, http.MethodPost, "/admin/products", p, nil)
}

// UpdateProduct replaces an existing product.
func (c *Client) UpdateProduct(ctx context.Context, id int, p Product) error {
	return c.do(ctx, http.MethodPut, "/admin/products/"+strconv.Itoa(id), p, nil)
}

// DeleteProduct removes a product from the catalog.
func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/admin/products/"+strconv.Itoa(id), nil, nil)
}

// UploadImage uploads an image as a multipart form and returns the URL the
// server stored it under.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("failed to copy image data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/upload-image", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var res uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return res.URL, nil
}

// do issues a JSON request and decodes the response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// authorize attaches the bearer token when one is available.
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// checkStatus maps non-2xx responses to typed errors.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrUnauthorized
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
}

// BaseURL reports the configured API root, mainly for diagnostics.
func (c *Client) BaseURL() string { return c.baseURL }
