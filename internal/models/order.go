package models

import "github.com/storefront-next/internal/constants"

// DraftOrderItem 草稿订单行（平台已持久化，ID 为订单项 ID）
type DraftOrderItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unit_price"`
	Qty       int    `json:"qty"`
}

// DraftOrder 平台侧未定稿的订单及其行
type DraftOrder struct {
	ID        string           `json:"id"`
	OrderNo   string           `json:"order_no,omitempty"`
	AccountID string           `json:"account_id"`
	Status    string           `json:"status"`
	Items     []DraftOrderItem `json:"items"`
}

// IsDraft 判断订单是否处于草稿状态
func (o DraftOrder) IsDraft() bool {
	return o.Status == constants.OrderStatusDraft
}

// CartLine 将草稿订单行转换为购物车行
func (it DraftOrderItem) CartLine(accountID string) CartLine {
	return CartLine{
		ID:        it.ID,
		ProductID: it.ProductID,
		SKU:       it.SKU,
		Name:      it.Name,
		Price:     it.UnitPrice,
		Qty:       it.Qty,
		Source:    constants.CartSourceDraft,
		AccountID: accountID,
	}
}

// OrderResult 下单结果
type OrderResult struct {
	OrderID       string   `json:"order_id"`
	OrderNo       string   `json:"order_no,omitempty"`
	LineItemCount int      `json:"line_item_count"`
	DocumentIDs   []string `json:"document_ids,omitempty"`
}

// OrderDocument 订单关联的可下载文档（如发票）
type OrderDocument struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	Kind        string `json:"kind"`
	DownloadURL string `json:"download_url,omitempty"`
}
