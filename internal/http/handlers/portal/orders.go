package portal

import (
	"errors"
	"strings"

	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListOrders 获取账户订单列表（含草稿）
func (h *Handler) ListOrders(c *gin.Context) {
	accountID := shared.AccountID(c)
	if accountID == "" {
		shared.RespondWarning(c, response.CodeBadRequest, "缺少账户标识")
		return
	}
	orders, err := h.Gateway.GetOrdersForAccount(c.Request.Context(), accountID)
	if err != nil {
		shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
		return
	}
	response.Success(c, orders)
}

// GenerateOrderDocument 为订单即时生成下载文档
// 结算成功后的异步生成失败时，前端可通过该接口重试
func (h *Handler) GenerateOrderDocument(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("id"))
	if orderID == "" {
		shared.RespondWarning(c, response.CodeBadRequest, "缺少订单标识")
		return
	}
	doc, err := h.Gateway.GenerateOrderDocument(c.Request.Context(), orderID)
	switch {
	case err == nil:
		response.SuccessWithMsg(c, "文档已生成", doc)
	case errors.Is(err, gateway.ErrNotFound):
		response.NotFound(c, "订单不存在")
	default:
		shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
	}
}
