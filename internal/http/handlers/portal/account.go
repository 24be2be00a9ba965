package portal

import (
	"errors"

	"github.com/storefront-next/internal/checkout"
	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetAccount 获取账户信息（结算页地址预填）
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.Checkout.Accounts(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		response.Success(c, account)
	case errors.Is(err, checkout.ErrAccountRequired):
		shared.RespondWarning(c, response.CodeBadRequest, "缺少账户标识")
	case errors.Is(err, gateway.ErrNotFound):
		response.NotFound(c, "账户不存在")
	default:
		shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
	}
}

// GetContracts 获取账户合同列表（结算页合同选择）
func (h *Handler) GetContracts(c *gin.Context) {
	contracts, err := h.Checkout.Contracts(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		response.Success(c, contracts)
	case errors.Is(err, checkout.ErrAccountRequired):
		shared.RespondWarning(c, response.CodeBadRequest, "缺少账户标识")
	default:
		shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
	}
}
