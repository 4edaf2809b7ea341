package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApiHandleFunctions groups the handler bundles served by the router.
type ApiHandleFunctions struct {
	OrderAPI OrderAPI
}

// NewRouter builds a default gin engine with the order routes registered.
func NewRouter(handlers ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handlers)
}

// NewRouterWithGinEngine registers the order routes on an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handlers ApiHandleFunctions) *gin.Engine {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/orders", handlers.OrderAPI.CreateOrder)
	router.GET("/orders/users/:userId", handlers.OrderAPI.GetOrdersByUserId)
	router.GET("/orders/:orderId", handlers.OrderAPI.GetOrderById)
	router.DELETE("/orders", handlers.OrderAPI.CancelAllOrders)
	router.DELETE("/orders/users/:userId", handlers.OrderAPI.CancelOrdersByUserId)
	router.DELETE("/orders/:orderId", handlers.OrderAPI.CancelOrder)
	return router
}
