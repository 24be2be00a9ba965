package portal

import "github.com/storefront-next/internal/provider"

// Handler 店面门户接口处理器入口
// 说明：所有接口面向浏览器会话，通过会话头定位购物车状态。
type Handler struct {
	*provider.Container
}

// New 创建门户处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
