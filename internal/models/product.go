package models

// Product 订单平台侧的商品记录
type Product struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Family      string `json:"family,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Price       Money  `json:"price"`
	Currency    string `json:"currency,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// PriceBookEntry 价格手册条目：特定定价上下文中某 SKU 的实时价格
type PriceBookEntry struct {
	ID          string `json:"id"`
	PricebookID string `json:"pricebook_id,omitempty"`
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	UnitPrice   Money  `json:"unit_price"`
	IsActive    bool   `json:"is_active"`
}

// ProductPage 分页商品结果
type ProductPage struct {
	Records   []Product `json:"records"`
	TotalSize int       `json:"total_size"`
}
