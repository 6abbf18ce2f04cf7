package httpserver

import (
	"net/http"
	"strings"

	"foodorder/internal/domain"
	"foodorder/internal/service/checkout"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cartResponse struct {
	Items       []domain.LineItem `json:"items"`
	Total       decimal.Decimal   `json:"total"`
	Count       int               `json:"count"`
	CheckoutKey string            `json:"checkoutKey"`
}

func (a *api) cartView(c *gin.Context) cartResponse {
	snap := sessionFrom(c).Cart.Snapshot()
	items := snap.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	count := 0
	for _, li := range items {
		count += li.Quantity
	}
	return cartResponse{Items: items, Total: snap.Total, Count: count, CheckoutKey: snap.CheckoutKey}
}

func (a *api) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, a.cartView(c))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// addCartItem snapshots the current menu item into the cart, so prices come
// from the menu and not from the client.
func (a *api) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	item, err := a.Menu.Get(c.Request.Context(), strings.TrimSpace(req.ProductID))
	if err != nil {
		a.failure(c, err, "Error", "Could not add the item. Please try again.")
		return
	}
	if err := sessionFrom(c).Cart.Add(domain.LineItemFromMenu(*item, req.Quantity)); err != nil {
		a.failure(c, err, "Error", "Could not add the item. Please try again.")
		return
	}
	c.JSON(http.StatusOK, a.cartView(c))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (a *api) updateCartItem(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := sessionFrom(c).Cart.UpdateQuantity(c.Param("productID"), req.Quantity); err != nil {
		a.failure(c, err, "Error", "Could not update the item.")
		return
	}
	c.JSON(http.StatusOK, a.cartView(c))
}

func (a *api) incrementCartItem(c *gin.Context) {
	if err := sessionFrom(c).Cart.Increment(c.Param("productID")); err != nil {
		a.failure(c, err, "Error", "Could not update the item.")
		return
	}
	c.JSON(http.StatusOK, a.cartView(c))
}

func (a *api) decrementCartItem(c *gin.Context) {
	if _, err := sessionFrom(c).Cart.Decrement(c.Param("productID")); err != nil {
		a.failure(c, err, "Error", "Could not update the item.")
		return
	}
	c.JSON(http.StatusOK, a.cartView(c))
}

func (a *api) removeCartItem(c *gin.Context) {
	sessionFrom(c).Cart.Remove(c.Param("productID"))
	c.JSON(http.StatusOK, a.cartView(c))
}

func (a *api) clearCart(c *gin.Context) {
	sessionFrom(c).Cart.Clear()
	c.JSON(http.StatusOK, a.cartView(c))
}

func (a *api) quoteCart(c *gin.Context) {
	c.JSON(http.StatusOK, a.Checkout.Quote(sessionFrom(c).Cart.Items()))
}

type placeOrderResponse struct {
	Order    *domain.Order  `json:"order"`
	Quote    checkout.Quote `json:"quote"`
	Replayed bool           `json:"replayed"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
}

// placeOrder checks out the session cart. The Idempotency-Key header, when
// set, replaces the cart's own key so retries return the first order.
func (a *api) placeOrder(c *gin.Context) {
	s := sessionFrom(c)
	res, err := a.Checkout.PlaceOrder(c.Request.Context(), uid(c), s.Cart, c.GetHeader("Idempotency-Key"))
	if err != nil {
		a.failure(c, err, "Order Failed", "There was an error placing your order. Please try again.")
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, placeOrderResponse{
		Order:    res.Order,
		Quote:    a.Checkout.Quote(res.Order.Items),
		Replayed: res.Replayed,
		Title:    "Order Placed Successfully!",
		Message:  "Thank you for your order. We'll prepare it for you shortly.",
	})
}
