package mapper

import (
	ordersdomain "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
	ordersports "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

// OrderItem is the transport-layer shape of a single order line.
type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

// CreateOrderRequest is the payload accepted by POST /orders.
type CreateOrderRequest struct {
	UserID int64       `json:"user_id"`
	Items  []OrderItem `json:"items"`
}

// Order is the transport-layer representation of an order.
type Order struct {
	OrderID   int64       `json:"order_id"`
	UserID    int64       `json:"user_id"`
	Items     []OrderItem `json:"items"`
	Status    string      `json:"status"`
	TotalCost int64       `json:"total_cost"`
}

// ToPlaceOrderInput converts a create request into the orchestrator input.
func ToPlaceOrderInput(req CreateOrderRequest) ordersports.PlaceOrderInput {
	input := ordersports.PlaceOrderInput{UserID: req.UserID}
	for _, item := range req.Items {
		input.Items = append(input.Items, ordersdomain.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return input
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *ordersdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		TotalCost: order.TotalCost,
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

// FromDomainOrderList converts a slice of domain orders.
func FromDomainOrderList(orders []*ordersdomain.Order) []Order {
	list := make([]Order, 0, len(orders))
	for _, order := range orders {
		list = append(list, FromDomainOrder(order))
	}
	return list
}
