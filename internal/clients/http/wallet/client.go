// Package wallet provides the HTTP client for the external wallet
// collaborator.
package wallet

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

var _ ports.WalletService = (*Client)(nil)

// Client speaks the wallet service wire format: GET /wallets/{id} for the
// balance and PUT /wallets/{id} with a credit or debit action.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient instantiates the wallet client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("wallet service base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

type walletPayload struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}

type actionPayload struct {
	Action string `json:"action"`
	Amount int64  `json:"amount"`
}

func (c *Client) GetBalance(ctx context.Context, userID int64) (int64, error) {
	url := fmt.Sprintf("%s/wallets/%d", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build wallet request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call wallet service: %w", err)
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// An unknown user has no funds; the debit contract stands in for
		// the account existence check.
		return 0, nil
	default:
		return 0, fmt.Errorf("wallet service returned %s", resp.Status)
	}
	var wallet walletPayload
	if err := json.NewDecoder(resp.Body).Decode(&wallet); err != nil {
		return 0, fmt.Errorf("decode wallet response: %w", err)
	}
	return wallet.Balance, nil
}

func (c *Client) Debit(ctx context.Context, userID int64, amount int64) error {
	return c.update(ctx, userID, actionPayload{Action: "debit", Amount: amount})
}

func (c *Client) Credit(ctx context.Context, userID int64, amount int64) error {
	return c.update(ctx, userID, actionPayload{Action: "credit", Amount: amount})
}

func (c *Client) update(ctx context.Context, userID int64, payload actionPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode wallet update: %w", err)
	}
	url := fmt.Sprintf("%s/wallets/%d", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build wallet update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call wallet service: %w", err)
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest, http.StatusNotFound:
		if payload.Action == "debit" {
			return ports.ErrInsufficientFunds
		}
		return fmt.Errorf("wallet service rejected %s: %s", payload.Action, resp.Status)
	default:
		return fmt.Errorf("wallet service returned %s", resp.Status)
	}
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
