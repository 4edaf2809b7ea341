// Package stock provides the HTTP client for the external product/stock
// collaborator.
package stock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

var _ ports.StockService = (*Client)(nil)

// Client speaks the product service wire format: GET /products/{id} for
// lookups and PUT /products/{id}/stock for adjustments.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient instantiates the stock client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("stock service base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

type productPayload struct {
	ProductID     int64 `json:"product_id"`
	Price         int64 `json:"price"`
	StockQuantity int32 `json:"stock_quantity"`
}

type adjustPayload struct {
	Action   string `json:"action"`
	Quantity int32  `json:"quantity"`
}

func (c *Client) GetStock(ctx context.Context, productID int64) (int32, error) {
	product, err := c.getProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return product.StockQuantity, nil
}

func (c *Client) GetPrice(ctx context.Context, productID int64) (int64, error) {
	product, err := c.getProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return product.Price, nil
}

func (c *Client) Decrement(ctx context.Context, productID int64, quantity int32) error {
	return c.adjust(ctx, productID, adjustPayload{Action: "decrement", Quantity: quantity})
}

func (c *Client) Increment(ctx context.Context, productID int64, quantity int32) error {
	return c.adjust(ctx, productID, adjustPayload{Action: "increment", Quantity: quantity})
}

func (c *Client) getProduct(ctx context.Context, productID int64) (*productPayload, error) {
	url := fmt.Sprintf("%s/products/%d", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build product request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call product service: %w", err)
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ports.ErrProductNotFound
	default:
		return nil, fmt.Errorf("product service returned %s", resp.Status)
	}
	var product productPayload
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}
	return &product, nil
}

func (c *Client) adjust(ctx context.Context, productID int64, payload adjustPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode stock adjustment: %w", err)
	}
	url := fmt.Sprintf("%s/products/%d/stock", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build stock adjustment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call product service: %w", err)
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ports.ErrProductNotFound
	case http.StatusBadRequest:
		return ports.ErrInsufficientStock
	default:
		return fmt.Errorf("product service returned %s", resp.Status)
	}
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
