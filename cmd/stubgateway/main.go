package main

import (
	"flag"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/platform"

	"github.com/gin-gonic/gin"
)

// 本地订单平台模拟器：为开发环境提供网关 HTTP 契约的真实实现。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	var addr string
	flag.StringVar(&addr, "addr", "127.0.0.1:8090", "监听地址")
	flag.Parse()

	db, err := platform.OpenDB(cfg.Platform.Driver, cfg.Platform.DSN, platform.PoolConfig{
		MaxOpenConns:           cfg.Platform.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Platform.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Platform.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Platform.Pool.ConnMaxIdleTimeSeconds,
	})
	if err != nil {
		stdLog.Fatalf("平台数据库初始化失败: %v", err)
	}

	if cfg.Platform.Seed {
		if err := platform.Seed(db, cfg.Gateway.PricebookID); err != nil {
			stdLog.Fatalf("写入演示数据失败: %v", err)
		}
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	handler := platform.NewHandler(platform.NewStore(db), "http://"+addr, cfg.Gateway.PricebookID)
	handler.Register(r)

	logger.Infow("stubgateway_start", "addr", addr)
	if err := r.Run(addr); err != nil {
		stdLog.Fatalf("平台模拟器运行失败: %v", err)
	}
}
