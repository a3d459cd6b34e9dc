package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"shop-service/internal/domain"
	"shop-service/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	orders    *services.OrderService
	users     *services.UserService
	addresses *services.AddressService
	products  *services.ProductService
	log       *zap.Logger

	secureCookies bool
}

func NewHandler(o *services.OrderService, u *services.UserService, a *services.AddressService, p *services.ProductService, log *zap.Logger, secureCookies bool) *Handler {
	return &Handler{orders: o, users: u, addresses: a, products: p, log: log, secureCookies: secureCookies}
}

type RouterConfig struct {
	CORSOrigin    string
	AuthPerMinute int
	AuthBurst     int
}

func (h *Handler) RegisterRoutes(r *gin.Engine, cfg RouterConfig) {
	auth := AuthRequired(h.users, h.log)
	limiter := NewIPRateLimiter(cfg.AuthPerMinute, cfg.AuthBurst)

	v1 := r.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", limiter.Middleware(), h.Register)
	users.POST("/login", limiter.Middleware(), h.Login)
	users.POST("/refresh-token", h.RefreshToken)
	users.POST("/logout", auth, h.Logout)
	users.PUT("/me", auth, h.UpdateDetails)
	users.POST("/addresses", auth, h.SaveAddress)
	users.GET("/addresses", auth, h.ListAddresses)
	users.PUT("/addresses/:addressId", auth, h.UpdateAddress)

	products := v1.Group("/products")
	products.GET("", h.ListProducts)
	products.GET("/:id", h.GetProduct)
	products.POST("", auth, RequireCapability(domain.CapManageProducts), h.CreateProduct)
	products.PUT("/:id", auth, RequireCapability(domain.CapManageProducts), h.UpdateProduct)
	products.POST("/:id/reviews", auth, h.AddReview)
	v1.POST("/uploads/images", auth, RequireCapability(domain.CapManageProducts), h.UploadImages)

	orders := v1.Group("/orders", auth)
	orders.POST("", h.CreateOrder)
	orders.POST("/verify-payment", h.VerifyPayment)
	orders.GET("", h.ListOrders)
	orders.GET("/:orderId", h.GetOrder)
	orders.PUT("/:orderId/cancel", h.CancelOrder)

	admin := v1.Group("/admin", auth, RequireCapability(domain.CapManageOrders))
	admin.GET("/orders", h.AdminListOrders)
	admin.GET("/orders/:orderId", h.AdminGetOrder)
	admin.PUT("/orders/:orderId/status", h.AdminUpdateStatus)
	admin.GET("/order-stats", h.OrderStats)
}

// NewRouter builds the engine with the shared middleware chain and every route.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(h.log), gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", headerRequestID},
		ExposeHeaders:    []string{"Content-Length", headerRequestID},
		AllowCredentials: true,
	}
	if cfg.CORSOrigin == "" || cfg.CORSOrigin == "*" {
		// credentials cannot be combined with a literal wildcard
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = strings.Split(cfg.CORSOrigin, ",")
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.RegisterRoutes(r, cfg)
	return r
}

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respond(c, http.StatusBadRequest, nil, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// pageQuery reads page and limit; bad values fall back to the defaults.
func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}

func boolQuery(c *gin.Context, name string) *bool {
	v, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respond(c, http.StatusBadRequest, nil, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// bindOptional is bind for routes where an empty body is allowed. Chunked
// requests carry no Content-Length, so emptiness is decided by the decoder.
func (h *Handler) bindOptional(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	respond(c, http.StatusBadRequest, nil, "invalid request body: "+err.Error())
	return false
}
