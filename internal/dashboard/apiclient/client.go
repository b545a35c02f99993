// Package apiclient is the HTTP client the role dashboards (customer, vendor, rider, admin) use
// to talk to the bakery store.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/go-querystring/query"

	"BakeryStore/internal/auth"
	"BakeryStore/internal/domain/cart"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/domain/user"
	"BakeryStore/pkg/correlation"
	"BakeryStore/pkg/pointers"
)

// ListOrdersParams mirrors the GET /orders query string.
type ListOrdersParams struct {
	View           string               `url:"view,omitempty"`
	Statuses       []order.Status       `url:"status,comma,omitempty"`
	DeliveryMethod order.DeliveryMethod `url:"delivery_method,omitempty"`
	Limit          int                  `url:"limit,omitempty"`
	Page           int                  `url:"page,omitempty"`
	SortBy         string               `url:"sort_by,omitempty"`
	SortOrder      string               `url:"sort_order,omitempty"`
}

// ListProductsParams mirrors the GET /products query string.
type ListProductsParams struct {
	Category catalog.Category `url:"category,omitempty"`
	Vendor   string           `url:"vendor,omitempty"`
	Search   string           `url:"q,omitempty"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   RetryConfig
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   RetryConfig

	mu    sync.RWMutex
	token string
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retryCfg:   cfg.Retry,
	}
}

// Login opens a session; later calls act as the logged-in user.
func (c *Client) Login(ctx context.Context, username, password string) (auth.Token, error) {
	var token auth.Token
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, body, &token); err != nil {
		return auth.Token{}, err
	}
	c.SetToken(token.AccessToken)
	return token, nil
}

// Logout ends the session server side (the cart is cleared) and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, "/sessions", nil, nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) ListProducts(ctx context.Context, params ListProductsParams) ([]catalog.Product, error) {
	var products []catalog.Product
	err := c.get(ctx, "/products", params, &products)
	return products, err
}

func (c *Client) GetCart(ctx context.Context) (cart.View, error) {
	var view cart.View
	err := c.get(ctx, "/cart", nil, &view)
	return view, err
}

func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (cart.View, error) {
	var view cart.View
	err := c.do(ctx, http.MethodPost, "/cart/items", nil, cart.AddItemRequest{ProductID: productID, Quantity: quantity}, &view)
	return view, err
}

func (c *Client) Checkout(ctx context.Context, details order.DeliveryDetails) (order.Order, error) {
	var placed order.Order
	err := c.do(ctx, http.MethodPost, "/checkout", nil, details, &placed)
	return placed, err
}

func (c *Client) ListOrders(ctx context.Context, params ListOrdersParams) ([]order.Order, error) {
	var orders []order.Order
	err := c.get(ctx, "/orders", params, &orders)
	return orders, err
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (order.Order, error) {
	var o order.Order
	err := c.get(ctx, "/orders/"+url.PathEscape(orderID), nil, &o)
	return o, err
}

// UpdateOrder sends one all-or-nothing update. Rejections come back as *APIError with the outcome set.
func (c *Client) UpdateOrder(ctx context.Context, orderID string, req order.UpdateOrderRequest) (order.UpdateResult, error) {
	var res order.UpdateResult
	err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(orderID), nil, req, &res)
	return res, err
}

// AcceptDelivery claims a delivery task and moves it out for delivery in one update.
func (c *Client) AcceptDelivery(ctx context.Context, orderID, riderName string) (order.UpdateResult, error) {
	return c.UpdateOrder(ctx, orderID, order.UpdateOrderRequest{
		AssignedTo: pointers.Ptr(riderName),
		Status:     pointers.Ptr(string(order.StatusOutForDelivery)),
	})
}

// SubmitCode completes the handoff with the code the customer showed.
func (c *Client) SubmitCode(ctx context.Context, orderID, code string) (order.UpdateResult, error) {
	return c.UpdateOrder(ctx, orderID, order.UpdateOrderRequest{RiderProvidedOTP: &code})
}

func (c *Client) GetOrderEvents(ctx context.Context, orderID string, q order.OrderEventQuery) (order.OrderEventPage, error) {
	var page order.OrderEventPage
	err := c.get(ctx, "/orders/"+url.PathEscape(orderID)+"/events", q, &page)
	return page, err
}

// ListUsers returns the team directory. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	err := c.get(ctx, "/admin/users", nil, &users)
	return users, err
}

func (c *Client) CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	var u user.User
	err := c.do(ctx, http.MethodPost, "/admin/users", nil, req, &u)
	return u, err
}

func (c *Client) UpdateUser(ctx context.Context, username string, req user.UpdateUserRequest) (user.User, error) {
	var u user.User
	err := c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(username), nil, req, &u)
	return u, err
}

func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(username), nil, nil, nil)
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) get(ctx context.Context, path string, params any, out any) error {
	var values url.Values
	if params != nil {
		var err error
		if values, err = query.Values(params); err != nil {
			return fmt.Errorf("encode query: %w", err)
		}
	}
	return retryRead(ctx, c.retryCfg, func() error {
		return c.do(ctx, http.MethodGet, path, values, nil, out)
	})
}

func (c *Client) do(ctx context.Context, method, path string, values url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(values) > 0 {
		target += "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := correlation.FromContext(ctx); id != "" {
		req.Header.Set(correlation.HeaderName, id)
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, out)
}

func handleResponse(resp *http.Response, out any) error {
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
		apiErr.Message = string(raw)
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		apiErr.kind = ErrBadRequest
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr.kind = ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		apiErr.kind = ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		apiErr.kind = ErrRejected
	case resp.StatusCode == http.StatusUnprocessableEntity:
		apiErr.kind = ErrVerificationFailed
	case resp.StatusCode >= 500:
		apiErr.kind = ErrServiceUnavailable
	default:
		apiErr.kind = fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return apiErr
}
