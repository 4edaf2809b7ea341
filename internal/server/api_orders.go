package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/http/mapper"
	ordersdomain "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
	ordersports "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
	apierrors "github.com/onlinemarketplace/order-orchestrator/internal/shared/errors"
)

// OrderAPI wires HTTP transport with the orders bounded context service and
// workflows.
type OrderAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Post /orders
// Place a new order
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.placeOrder(c.Request.Context(), orderhttpmapper.ToPlaceOrderInput(payload))
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromDomainOrder(order))
}

func (api *OrderAPI) placeOrder(ctx context.Context, input ordersports.PlaceOrderInput) (*ordersdomain.Order, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, input)
	}
	return api.service.PlaceOrder(ctx, input)
}

// Get /orders/:orderId
// Find order by ID
func (api *OrderAPI) GetOrderById(c *gin.Context) {
	raw := c.Param("orderId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, errInvalidID("orderId", raw))
		return
	}
	if id <= 0 {
		// No order carries a non-positive id; reads treat it like any other
		// unknown id.
		orderResponder.Respond(c, apierrors.NewNotFoundProblem("order", id))
		return
	}
	order, err := api.service.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Get /orders/users/:userId
// List the orders of a user
func (api *OrderAPI) GetOrdersByUserId(c *gin.Context) {
	id, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	orders, err := api.service.ListOrdersByUser(c.Request.Context(), id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrderList(orders))
}

// Delete /orders/:orderId
// Cancel an order
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	if err := api.service.CancelOrder(c.Request.Context(), id); err != nil {
		respondCancelError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Delete /orders/users/:userId
// Cancel every placed order of a user
func (api *OrderAPI) CancelOrdersByUserId(c *gin.Context) {
	id, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	if err := api.service.CancelOrdersByUser(c.Request.Context(), id); err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Delete /orders
// Cancel every placed order
func (api *OrderAPI) CancelAllOrders(c *gin.Context) {
	if err := api.service.CancelAllOrders(c.Request.Context()); err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, errInvalidID(name, raw))
		return 0, false
	}
	return id, true
}
