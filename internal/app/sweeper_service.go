package app

import (
	"context"
	"errors"

	"github.com/storefront-next/internal/cart"
)

// SweeperService 周期回收闲置购物车引擎
type SweeperService struct {
	manager *cart.Manager
}

// NewSweeperService 创建引擎回收服务
func NewSweeperService(manager *cart.Manager) *SweeperService {
	return &SweeperService{manager: manager}
}

// Name 服务名称
func (s *SweeperService) Name() string {
	return "cart_sweeper"
}

// Start 启动回收循环，随 ctx 取消退出
func (s *SweeperService) Start(ctx context.Context) error {
	if s == nil || s.manager == nil {
		return errors.New("cart manager not initialized")
	}
	s.manager.RunSweeper(ctx)
	return nil
}

// Stop 停止服务（回收循环由 Start 的 ctx 终止）
func (s *SweeperService) Stop(ctx context.Context) error {
	return nil
}
