package api

import "time"

// Product is a catalog entry as served by the storefront API.
// A zero ID marks a draft that has not been persisted yet.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Stock       int     `json:"stock,omitempty"`
}

// CartItem is one product-quantity pairing in the user's cart.
// The ID is assigned server-side and is the unit of order selection.
type CartItem struct {
	ID       int     `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Order is a placed order. Immutable from the client's perspective.
type Order struct {
	ID         int       `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status"`
}

// authResponse is the body returned by /auth/login and /auth/register.
type authResponse struct {
	AccessToken string `json:"accessToken"`
}

// orderRequest is the body sent to POST /orders.
type orderRequest struct {
	CartItemIDs []int `json:"cartItemIds"`
}

// uploadResponse is the body returned by POST /admin/upload-image.
type uploadResponse struct {
	URL string `json:"url"`
}
