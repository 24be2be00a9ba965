package models

import (
	"strings"

	"github.com/storefront-next/internal/constants"
)

// CartLine 购物车行。live 行的 ID 是商品 ID；draft 行的 ID 是
// 订单平台持久化后的订单项 ID，商品身份由 ProductID 单独携带。
// draft 行以平台为准，live 行仅存在于会话中。
type CartLine struct {
	ID        string `json:"id"`
	ProductID string `json:"productId,omitempty"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	Qty       int    `json:"qty"`
	Source    string `json:"source"`
	AccountID string `json:"accountId,omitempty"`
}

// IsDraft 判断是否为平台已确认的草稿行
func (l CartLine) IsDraft() bool {
	return l.Source == constants.CartSourceDraft
}

// LineTotal 行小计
func (l CartLine) LineTotal() Money {
	qty := l.Qty
	if qty < 1 {
		qty = 1
	}
	return l.Price.MulQty(qty)
}

// NormalizeCartLine 归一化购物车行：补齐来源与数量边界
func NormalizeCartLine(line CartLine) CartLine {
	line.ID = strings.TrimSpace(line.ID)
	line.ProductID = strings.TrimSpace(line.ProductID)
	line.SKU = strings.TrimSpace(line.SKU)
	if line.Source != constants.CartSourceDraft {
		line.Source = constants.CartSourceLive
	}
	if line.Qty < constants.CartQtyMin {
		line.Qty = constants.CartQtyMin
	}
	if line.Qty > constants.CartQtyMax {
		line.Qty = constants.CartQtyMax
	}
	return line
}

// CartTotal 购物车合计金额
func CartTotal(lines []CartLine) Money {
	total := Money{}
	for _, line := range lines {
		total = NewMoneyFromDecimal(total.Decimal.Add(line.LineTotal().Decimal))
	}
	return total
}
