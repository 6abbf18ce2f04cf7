package httpserver

import (
	"net/http"

	"foodorder/internal/domain"
	"foodorder/internal/service/order"

	"github.com/gin-gonic/gin"
)

func (a *api) customerOrders(c *gin.Context) {
	orders, err := a.Orders.ListForCustomer(c.Request.Context(), uid(c))
	if err != nil {
		a.failure(c, err, "Error", "Failed to load orders.")
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (a *api) restaurantOrders(c *gin.Context) {
	orders, err := a.Orders.ListForRestaurant(c.Request.Context(), uid(c))
	if err != nil {
		a.failure(c, err, "Error", "Failed to load orders.")
		return
	}
	if orders == nil {
		orders = []order.RestaurantOrder{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *api) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		abortWith(c, http.StatusBadRequest, "Invalid Status", "Please choose a known order status.")
		return
	}
	o, err := a.Orders.UpdateStatus(c.Request.Context(), uid(c), c.Param("orderID"), status)
	if err != nil {
		a.failure(c, err, "Error", "Failed to update order status.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":   o,
		"title":   "Success",
		"message": "Order status updated to " + statusLabel(status),
	})
}

var statusLabels = map[domain.OrderStatus]string{
	domain.OrderPending:   "Pending",
	domain.OrderConfirmed: "Confirmed",
	domain.OrderPreparing: "Preparing",
	domain.OrderReady:     "Ready",
	domain.OrderDelivered: "Delivered",
	domain.OrderCancelled: "Cancelled",
}

func statusLabel(s domain.OrderStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s.String()
}
