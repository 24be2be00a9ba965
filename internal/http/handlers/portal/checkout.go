package portal

import (
	"errors"

	"github.com/storefront-next/internal/checkout"
	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/models"

	"github.com/gin-gonic/gin"
)

// UpdateQtyRequest 结算页行数量调整请求
type UpdateQtyRequest struct {
	LineID string `json:"line_id" binding:"required"`
	Qty    int    `json:"qty" binding:"required"`
}

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	AccountID       string         `json:"account_id" binding:"required"`
	ContractID      string         `json:"contract_id"`
	BillingAddress  models.Address `json:"billing_address"`
	ShippingAddress models.Address `json:"shipping_address"`
}

// GetCheckout 获取结算页购物车
func (h *Handler) GetCheckout(c *gin.Context) {
	sessionID, ok := shared.SessionID(c, h.Config.Session.Header)
	if !ok {
		return
	}
	view, err := h.Checkout.LoadCart(c.Request.Context(), sessionID)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "读取结算购物车失败", err)
		return
	}
	response.Success(c, view)
}

// UpdateCheckoutQty 调整结算页某行数量
func (h *Handler) UpdateCheckoutQty(c *gin.Context) {
	sessionID, ok := shared.SessionID(c, h.Config.Session.Header)
	if !ok {
		return
	}
	var req UpdateQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondWarning(c, response.CodeBadRequest, "数量调整参数无效")
		return
	}
	view, err := h.Checkout.UpdateQty(c.Request.Context(), sessionID, req.LineID, req.Qty)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}
	response.Success(c, view)
}

// RemoveCheckoutLine 从结算页移除一行
func (h *Handler) RemoveCheckoutLine(c *gin.Context) {
	sessionID, ok := shared.SessionID(c, h.Config.Session.Header)
	if !ok {
		return
	}
	view, err := h.Checkout.RemoveLine(c.Request.Context(), sessionID, c.Param("id"))
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}
	response.Success(c, view)
}

// PlaceOrder 创建订单
// 成功后购物车会话被清空，账户上下文保留
func (h *Handler) PlaceOrder(c *gin.Context) {
	sessionID, ok := shared.SessionID(c, h.Config.Session.Header)
	if !ok {
		return
	}
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondWarning(c, response.CodeBadRequest, "下单参数无效")
		return
	}
	result, err := h.Checkout.PlaceOrder(c.Request.Context(), checkout.PlaceOrderInput{
		SessionID:       sessionID,
		AccountID:       req.AccountID,
		ContractID:      req.ContractID,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}
	// 本地购物车引擎状态与会话存储同步失效
	h.CartManager.Drop(sessionID)
	response.SuccessWithMsg(c, "订单创建成功", result)
}

func (h *Handler) respondCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		shared.RespondWarning(c, response.CodeBadRequest, "购物车为空，无法下单")
	case errors.Is(err, checkout.ErrAccountRequired):
		shared.RespondWarning(c, response.CodeBadRequest, "请选择下单账户")
	case errors.Is(err, checkout.ErrContractRequired):
		shared.RespondWarning(c, response.CodeBadRequest, "请选择合同")
	case errors.Is(err, checkout.ErrInvalidSKU):
		shared.RespondWarning(c, response.CodeBadRequest, "存在无效商品行，请移除后重试")
	case errors.Is(err, checkout.ErrInvalidQty):
		shared.RespondWarning(c, response.CodeBadRequest, "商品数量超出允许范围")
	case errors.Is(err, checkout.ErrLineNotFound):
		response.NotFound(c, "购物车行不存在")
	case errors.Is(err, gateway.ErrRemoteCall):
		shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
	default:
		shared.RespondError(c, response.CodeInternal, "结算操作失败", err)
	}
}
