package provider

import (
	"fmt"

	"github.com/storefront-next/internal/browse"
	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/cart"
	"github.com/storefront-next/internal/checkout"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/session"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	Gateway     gateway.OrderGateway
	Sessions    session.CartStore
	CartManager *cart.Manager
	Browser     *browse.Browser
	Checkout    *checkout.Flow
	QueueClient *queue.Client
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	gw, err := gateway.NewClient(cfg.Gateway)
	if err != nil {
		return nil, fmt.Errorf("init order gateway: %w", err)
	}

	// 会话存储：Redis 可用时优先，否则退回进程内存储
	var store session.CartStore
	if cfg.Redis.Enabled {
		redisStore, err := session.NewRedisStore(&cfg.Redis, cfg.Session.TTL())
		if err != nil {
			logger.Warnw("provider_init_session_store_failed", "error", err)
			store = session.NewMemoryStore()
		} else {
			store = redisStore
		}
	} else {
		store = session.NewMemoryStore()
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		Gateway:     gw,
		Sessions:    store,
		QueueClient: queueClient,
	}

	c.CartManager = cart.NewManager(gw, store, cfg.Session.TTL())
	c.Browser = browse.NewBrowser(gw,
		cfg.Browse.DefaultPageSize,
		cfg.Browse.MaxPageSize,
		cfg.Browse.FamilyCacheSeconds,
	)
	c.Checkout = checkout.NewFlow(gw, store, queueClient, cfg.Checkout.DocumentEnabled)

	return c, nil
}

// Close 释放容器持有的资源
func (c *Container) Close() {
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
