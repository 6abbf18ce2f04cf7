package httpserver

import (
	"context"
	"errors"
	"io"
	"time"

	"foodorder/internal/cart"
	"foodorder/internal/domain"
	"foodorder/internal/live"
	"foodorder/internal/service/auth"
	"foodorder/internal/service/checkout"
	"foodorder/internal/service/menu"
	"foodorder/internal/service/order"
	"foodorder/internal/service/profile"
	"foodorder/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type SessionStore interface {
	Create(ctx context.Context, restoreToken string) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Close(id string) error
}

type AuthService interface {
	SignUp(ctx context.Context, h *auth.Handle, in auth.SignUpInput) (*domain.Identity, error)
	SignIn(ctx context.Context, h *auth.Handle, email, password string) (*domain.Identity, error)
	SignOut(ctx context.Context, h *auth.Handle) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
	ChangePassword(ctx context.Context, h *auth.Handle, in auth.ChangePasswordInput) error
}

type MenuService interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.MenuItem, error)
	Get(ctx context.Context, id string) (*domain.MenuItem, error)
	Create(ctx context.Context, ownerID string, in menu.ItemInput) (*domain.MenuItem, error)
	Update(ctx context.Context, ownerID, id string, in menu.ItemInput) (*domain.MenuItem, error)
	Delete(ctx context.Context, ownerID, id string) error
	UploadImage(ctx context.Context, ownerID, id, contentType string, body io.Reader) (*domain.MenuItem, error)
}

type OrderService interface {
	ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListForRestaurant(ctx context.Context, ownerID string) ([]order.RestaurantOrder, error)
	UpdateStatus(ctx context.Context, ownerID, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, customerID string, c *cart.Store, key string) (*checkout.Result, error)
	Quote(items []domain.LineItem) checkout.Quote
}

type ProfileService interface {
	Restaurant(ctx context.Context, ownerID string) (*domain.Restaurant, error)
	SaveRestaurant(ctx context.Context, ownerID string, in profile.RestaurantInput) (*domain.Restaurant, error)
	Customer(ctx context.Context, uid string) (*domain.CustomerProfile, error)
	SaveCustomer(ctx context.Context, uid string, in profile.CustomerInput) (*domain.CustomerProfile, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Sessions    SessionStore
	Auth        AuthService
	Menu        MenuService
	Orders      OrderService
	Checkout    CheckoutService
	Profiles    ProfileService
	Live        live.Broker
	CORSOrigins []string
}

type api struct {
	Deps
	logger    zerolog.Logger
	heartbeat time.Duration
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, db Pinger, deps Deps) (*gin.Engine, error) {
	if deps.Sessions == nil || deps.Auth == nil {
		return nil, errors.New("httpserver: sessions and auth are required")
	}
	if deps.Menu == nil || deps.Orders == nil || deps.Checkout == nil || deps.Profiles == nil {
		return nil, errors.New("httpserver: menu, orders, checkout and profiles are required")
	}
	if deps.Live == nil {
		deps.Live = live.NopBroker{}
	}
	a := &api{Deps: deps, logger: logger, heartbeat: 15 * time.Second}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), corsMiddleware(deps.CORSOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	v1 := router.Group("/v1")
	v1.GET("/menu", a.listMenu)
	v1.GET("/menu/stream", a.streamMenu)
	v1.POST("/password-reset", a.requestPasswordReset)
	v1.POST("/password-reset/confirm", a.confirmPasswordReset)
	v1.POST("/sessions", a.createSession)

	s := v1.Group("/sessions/:sessionID", a.withSession)
	s.GET("", a.getSession)
	s.DELETE("", a.closeSession)
	s.GET("/stream", a.streamSession)
	s.POST("/signup", a.signUp)
	s.POST("/login", a.login)
	s.POST("/logout", a.logout)
	s.POST("/password", a.changePassword)

	cust := s.Group("", a.requireRole(domain.RoleCustomer))
	cust.GET("/cart", a.getCart)
	cust.DELETE("/cart", a.clearCart)
	cust.GET("/cart/quote", a.quoteCart)
	cust.POST("/cart/items", a.addCartItem)
	cust.PATCH("/cart/items/:productID", a.updateCartItem)
	cust.DELETE("/cart/items/:productID", a.removeCartItem)
	cust.POST("/cart/items/:productID/increment", a.incrementCartItem)
	cust.POST("/cart/items/:productID/decrement", a.decrementCartItem)
	cust.POST("/checkout", a.placeOrder)
	cust.GET("/orders", a.customerOrders)
	cust.GET("/profile", a.getCustomerProfile)
	cust.PUT("/profile", a.saveCustomerProfile)

	rest := s.Group("/restaurant", a.requireRole(domain.RoleRestaurant))
	rest.GET("/menu", a.ownerMenu)
	rest.POST("/menu", a.createMenuItem)
	rest.PUT("/menu/:itemID", a.updateMenuItem)
	rest.DELETE("/menu/:itemID", a.deleteMenuItem)
	rest.PUT("/menu/:itemID/image", a.uploadMenuImage)
	rest.GET("/orders", a.restaurantOrders)
	rest.GET("/orders/stream", a.streamRestaurantOrders)
	rest.PATCH("/orders/:orderID/status", a.updateOrderStatus)
	rest.GET("/profile", a.getRestaurantProfile)
	rest.PUT("/profile", a.saveRestaurantProfile)

	return router, nil
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logger.Debug()
		if status >= 500 {
			ev = logger.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
