package portal

import (
	"strconv"
	"strings"

	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListProducts 分页获取商品列表
// 查询参数：page、page_size、search、families（逗号分隔）、sort_field、sort_dir
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	var families []string
	if raw := strings.TrimSpace(c.Query("families")); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				families = append(families, f)
			}
		}
	}

	result, err := h.Browser.ListProducts(c.Request.Context(), gateway.ProductQuery{
		PageNumber: page,
		PageSize:   pageSize,
		Search:     c.Query("search"),
		Families:   families,
		SortField:  c.Query("sort_field"),
		SortDir:    c.Query("sort_dir"),
	})
	if err != nil {
		shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
		return
	}

	total := int64(result.TotalSize)
	totalPage := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPage++
	}
	response.SuccessWithPage(c, result.Records, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// ListFamilies 获取商品系列列表（筛选面板数据源）
func (h *Handler) ListFamilies(c *gin.Context) {
	families, err := h.Browser.ListFamilies(c.Request.Context())
	if err != nil {
		shared.RespondError(c, response.CodeBadGateway, gateway.UserMessage(err), err)
		return
	}
	response.Success(c, families)
}
