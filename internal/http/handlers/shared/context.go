package shared

import (
	"strings"

	"github.com/storefront-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SessionID 从请求头读取浏览会话标识。缺失时返回 false 并已写出响应。
func SessionID(c *gin.Context, header string) (string, bool) {
	id := strings.TrimSpace(c.GetHeader(header))
	if id == "" {
		RespondError(c, response.CodeBadRequest, "缺少会话标识", nil)
		return "", false
	}
	return id, true
}

// AccountID 从查询参数或请求头读取账户标识，允许为空。
func AccountID(c *gin.Context) string {
	if id := strings.TrimSpace(c.Query("account_id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.GetHeader("X-Account-ID"))
}
