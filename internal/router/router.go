package router

import (
	"fmt"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	portalhandlers "github.com/storefront-next/internal/http/handlers/portal"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	portalHandler := portalhandlers.New(c)
	orderRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order", cache.Prefix()),
		WindowSeconds: cfg.Security.OrderRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OrderRateLimit.MaxRequests,
		Message:       "下单过于频繁",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 商品浏览
		apiV1.GET("/products", portalHandler.ListProducts)
		apiV1.GET("/products/families", portalHandler.ListFamilies)

		// 购物车（会话头定位引擎）
		cartGroup := apiV1.Group("/cart")
		{
			cartGroup.GET("", portalHandler.GetCart)
			cartGroup.POST("/items", portalHandler.AddCartItem)
			cartGroup.DELETE("/items/:id", portalHandler.RemoveCartItem)
			cartGroup.POST("/invalidate", portalHandler.InvalidateCart)
		}

		// 结算
		checkoutGroup := apiV1.Group("/checkout")
		{
			checkoutGroup.GET("/cart", portalHandler.GetCheckout)
			checkoutGroup.PUT("/cart/items", portalHandler.UpdateCheckoutQty)
			checkoutGroup.DELETE("/cart/items/:id", portalHandler.RemoveCheckoutLine)
			checkoutGroup.POST("/orders",
				RateLimitMiddleware(cache.Client(), orderRule, KeyBySessionHeader(cfg.Session.Header)),
				portalHandler.PlaceOrder,
			)
		}

		// 订单与文档
		apiV1.GET("/orders", portalHandler.ListOrders)
		apiV1.POST("/orders/:id/documents", portalHandler.GenerateOrderDocument)

		// 账户与合同
		apiV1.GET("/accounts/:id", portalHandler.GetAccount)
		apiV1.GET("/accounts/:id/contracts", portalHandler.GetContracts)
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	return r
}
