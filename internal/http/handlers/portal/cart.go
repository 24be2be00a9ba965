package portal

import (
	"errors"

	"github.com/storefront-next/internal/cart"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/models"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加购请求
type AddCartItemRequest struct {
	ProductID string       `json:"product_id" binding:"required"`
	SKU       string       `json:"sku"`
	Name      string       `json:"name"`
	Price     models.Money `json:"price"`
	Qty       int          `json:"qty"`
	Source    string       `json:"source"`
}

// CartView 购物车视图响应
type CartView struct {
	Lines []models.CartLine `json:"lines"`
	Total models.Money      `json:"total"`
	Stale bool              `json:"stale"`
}

func (h *Handler) engine(c *gin.Context) (*cart.Engine, bool) {
	sessionID, ok := shared.SessionID(c, h.Config.Session.Header)
	if !ok {
		return nil, false
	}
	return h.CartManager.GetOrCreate(sessionID, shared.AccountID(c)), true
}

func cartView(e *cart.Engine) CartView {
	lines := e.MergedView()
	return CartView{Lines: lines, Total: models.CartTotal(lines), Stale: e.Stale()}
}

// GetCart 获取合并后的购物车视图
// refresh=1 时先同步刷新草稿订单再返回
func (h *Handler) GetCart(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	if c.Query("refresh") == "1" {
		if err := engine.Refresh(c.Request.Context()); err != nil {
			shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
			return
		}
	}
	response.Success(c, cartView(engine))
}

// AddCartItem 加入购物车
// source=live 时仅更新本地实时行，不触发远程调用
func (h *Handler) AddCartItem(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondWarning(c, response.CodeBadRequest, "加购参数无效")
		return
	}
	if req.Qty <= 0 {
		req.Qty = 1
	}

	product := models.Product{
		ID:    req.ProductID,
		SKU:   req.SKU,
		Name:  req.Name,
		Price: req.Price,
	}

	var err error
	if req.Source == constants.CartSourceLive {
		err = engine.AddLiveItem(c.Request.Context(), product, req.Qty)
	} else {
		err = engine.AddItem(c.Request.Context(), product, req.Qty)
	}
	switch {
	case err == nil:
		response.SuccessWithMsg(c, "已加入购物车", cartView(engine))
	case errors.Is(err, cart.ErrAlreadyInCart):
		response.Notice(c, response.CodeConflict, "商品已在购物车中")
	case errors.Is(err, cart.ErrAddInProgress):
		response.Notice(c, response.CodeConflict, "上一个加购尚未完成，请稍候")
	case errors.Is(err, cart.ErrInvalidItem):
		shared.RespondWarning(c, response.CodeBadRequest, "商品缺少标识，无法加购")
	default:
		shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
	}
}

// RemoveCartItem 从购物车移除一行
// source 区分实时行与草稿行，移除不存在的行为 no-op
func (h *Handler) RemoveCartItem(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	id := c.Param("id")
	source := c.DefaultQuery("source", constants.CartSourceDraft)
	if err := engine.RemoveItem(c.Request.Context(), id, source); err != nil {
		shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
		return
	}
	response.SuccessWithMsg(c, "已从购物车移除", cartView(engine))
}

// InvalidateCart 标记购物车陈旧，下次读取时触发刷新
func (h *Handler) InvalidateCart(c *gin.Context) {
	engine, ok := h.engine(c)
	if !ok {
		return
	}
	engine.Invalidate()
	response.Success(c, cartView(engine))
}
