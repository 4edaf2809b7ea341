package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderhttpmapper "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/http/mapper"
	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/memory"
	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/application"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.StockService, *memory.WalletService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stock := memory.NewStockService(memory.Product{ID: 101, Price: 130, Stock: 10})
	wallet := memory.NewWalletService()
	require.NoError(t, wallet.Credit(t.Context(), 1, 10000))

	svc := application.NewService(memory.NewRepository(), stock, wallet)
	router := NewRouter(ApiHandleFunctions{OrderAPI: NewOrderAPI(svc, nil)})
	return router, stock, wallet
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder_Created(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/orders", orderhttpmapper.CreateOrderRequest{
		UserID: 1,
		Items:  []orderhttpmapper.OrderItem{{ProductID: 101, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var order orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Positive(t, order.OrderID)
	assert.Equal(t, "PLACED", order.Status)
	assert.Equal(t, int64(260), order.TotalCost)
}

func TestCreateOrder_RejectsBadQuantities(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, qty := range []int32{0, -5} {
		rec := doJSON(t, router, http.MethodPost, "/orders", orderhttpmapper.CreateOrderRequest{
			UserID: 1,
			Items:  []orderhttpmapper.OrderItem{{ProductID: 101, Quantity: qty}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "quantity %d", qty)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	}
}

func TestCreateOrder_OutOfStock(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/orders", orderhttpmapper.CreateOrderRequest{
		UserID: 1,
		Items:  []orderhttpmapper.OrderItem{{ProductID: 101, Quantity: 11}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_InsufficientFunds(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/orders", orderhttpmapper.CreateOrderRequest{
		UserID: 2, // no wallet balance
		Items:  []orderhttpmapper.OrderItem{{ProductID: 101, Quantity: 1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder(t *testing.T) {
	router, _, _ := newTestRouter(t)

	created := doJSON(t, router, http.MethodPost, "/orders", orderhttpmapper.CreateOrderRequest{
		UserID: 1,
		Items:  []orderhttpmapper.OrderItem{{ProductID: 101, Quantity: 1}},
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var order orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &order))

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/orders/%d", order.OrderID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, order.OrderID, got.OrderID)
	assert.Equal(t, "PLACED", got.Status)
}

func TestGetOrder_Unknown(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/orders/99999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrder_NonPositiveIDIsNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// Reads treat ids that can never name an order like any unknown id.
	for _, path := range []string{"/orders/0", "/orders/-3"} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "path %s", path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	}

	// Cancels keep their boundary contract: a bad id is a client error.
	rec := doJSON(t, router, http.MethodDelete, "/orders/0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelOrder_FullLifecycle(t *testing.T) {
	router, stock, wallet := newTestRouter(t)

	created := doJSON(t, router, http.MethodPost, "/orders", orderhttpmapper.CreateOrderRequest{
		UserID: 1,
		Items:  []orderhttpmapper.OrderItem{{ProductID: 101, Quantity: 3}},
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var order orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &order))

	cancel := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/orders/%d", order.OrderID), nil)
	require.Equal(t, http.StatusOK, cancel.Code)

	remaining, err := stock.GetStock(t.Context(), 101)
	require.NoError(t, err)
	assert.Equal(t, int32(10), remaining)
	balance, err := wallet.GetBalance(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)

	// The record survives cancellation.
	got := doJSON(t, router, http.MethodGet, fmt.Sprintf("/orders/%d", order.OrderID), nil)
	require.Equal(t, http.StatusOK, got.Code)
	var cancelled orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &cancelled))
	assert.Equal(t, "CANCELLED", cancelled.Status)

	// Second cancel is rejected as a client error.
	again := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/orders/%d", order.OrderID), nil)
	require.Equal(t, http.StatusBadRequest, again.Code)
}

func TestCancelOrder_UnknownIsClientError(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodDelete, "/orders/99999", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrdersByUser(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodPost, "/orders", orderhttpmapper.CreateOrderRequest{
			UserID: 1,
			Items:  []orderhttpmapper.OrderItem{{ProductID: 101, Quantity: 1}},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/orders/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestCancelOrdersByUser_LeavesOtherUsersAlone(t *testing.T) {
	router, stock, wallet := newTestRouter(t)
	require.NoError(t, wallet.Credit(t.Context(), 2, 10000))

	for _, userID := range []int64{1, 1, 2} {
		rec := doJSON(t, router, http.MethodPost, "/orders", orderhttpmapper.CreateOrderRequest{
			UserID: userID,
			Items:  []orderhttpmapper.OrderItem{{ProductID: 101, Quantity: 1}},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodDelete, "/orders/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var mine []orderhttpmapper.Order
	list := doJSON(t, router, http.MethodGet, "/orders/users/1", nil)
	require.Equal(t, http.StatusOK, list.Code)
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &mine))
	require.Len(t, mine, 2)
	for _, order := range mine {
		assert.Equal(t, "CANCELLED", order.Status)
	}

	var theirs []orderhttpmapper.Order
	list = doJSON(t, router, http.MethodGet, "/orders/users/2", nil)
	require.Equal(t, http.StatusOK, list.Code)
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &theirs))
	require.Len(t, theirs, 1)
	assert.Equal(t, "PLACED", theirs[0].Status)

	remaining, err := stock.GetStock(t.Context(), 101)
	require.NoError(t, err)
	assert.Equal(t, int32(9), remaining)
	balance, err := wallet.GetBalance(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)
}

func TestCancelOrdersByUser_NoOrders(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodDelete, "/orders/users/42", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelAllOrders(t *testing.T) {
	router, stock, wallet := newTestRouter(t)
	require.NoError(t, wallet.Credit(t.Context(), 2, 10000))

	for _, userID := range []int64{1, 2} {
		rec := doJSON(t, router, http.MethodPost, "/orders", orderhttpmapper.CreateOrderRequest{
			UserID: userID,
			Items:  []orderhttpmapper.OrderItem{{ProductID: 101, Quantity: 2}},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	for range 2 { // a second sweep finds nothing left to cancel
		rec := doJSON(t, router, http.MethodDelete, "/orders", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	for _, userID := range []int64{1, 2} {
		var list []orderhttpmapper.Order
		rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/orders/users/%d", userID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "CANCELLED", list[0].Status)
	}

	remaining, err := stock.GetStock(t.Context(), 101)
	require.NoError(t, err)
	assert.Equal(t, int32(10), remaining)
	for _, userID := range []int64{1, 2} {
		balance, err := wallet.GetBalance(t.Context(), userID)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), balance)
	}
}
