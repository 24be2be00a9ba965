package gateway

import (
	"context"

	"github.com/storefront-next/internal/models"
)

// OrderGateway 订单平台远程过程集合。所有调用均为一次请求/响应，
// 平台不提供客户端取消语义，调用方通过乐观状态回滚补偿失败。
type OrderGateway interface {
	// CreateOrderFromCart 用购物车行创建正式订单
	CreateOrderFromCart(ctx context.Context, input CreateOrderInput) (*models.OrderResult, error)
	// AddToOrder 向账户草稿订单追加一行，返回平台生成的订单项 ID（可能为空）
	AddToOrder(ctx context.Context, input AddToOrderInput) (string, error)
	// RemoveOrderItem 删除草稿订单行
	RemoveOrderItem(ctx context.Context, orderItemID string) error
	// GetOrdersForAccount 获取账户订单及行（含 Draft 状态）
	GetOrdersForAccount(ctx context.Context, accountID string) ([]models.DraftOrder, error)
	// FetchProducts 分页获取商品
	FetchProducts(ctx context.Context, query ProductQuery) (*models.ProductPage, error)
	// FetchProductFamilies 获取商品系列名称列表
	FetchProductFamilies(ctx context.Context) ([]string, error)
	// FetchPriceBookEntries 按 SKU 实时获取价格手册条目
	FetchPriceBookEntries(ctx context.Context, skus []string) ([]models.PriceBookEntry, error)
	// GetAccountInfo 获取账户信息
	GetAccountInfo(ctx context.Context, accountID string) (*models.Account, error)
	// GetContractsForAccount 获取账户合同列表
	GetContractsForAccount(ctx context.Context, accountID string) ([]models.Contract, error)
	// GenerateOrderDocument 为订单生成可下载文档（发票等）
	GenerateOrderDocument(ctx context.Context, orderID string) (*models.OrderDocument, error)
}

// CreateOrderInput 下单请求
type CreateOrderInput struct {
	AccountID       string            `json:"account_id"`
	ContractID      string            `json:"contract_id,omitempty"`
	BillingAddress  models.Address    `json:"billing_address"`
	ShippingAddress models.Address    `json:"shipping_address"`
	Items           []CreateOrderItem `json:"items"`
}

// CreateOrderItem 下单请求行
type CreateOrderItem struct {
	ProductID string       `json:"product_id"`
	SKU       string       `json:"sku"`
	Qty       int          `json:"qty"`
	UnitPrice models.Money `json:"unit_price"`
}

// AddToOrderInput 草稿订单加行请求
type AddToOrderInput struct {
	AccountID string       `json:"account_id"`
	ProductID string       `json:"product_id"`
	UnitPrice models.Money `json:"unit_price"`
	Qty       int          `json:"qty"`
}

// ProductQuery 商品分页查询
type ProductQuery struct {
	PageNumber int      `json:"page_number"`
	PageSize   int      `json:"page_size"`
	Search     string   `json:"search,omitempty"`
	Families   []string `json:"families,omitempty"`
	SortField  string   `json:"sort_field,omitempty"`
	SortDir    string   `json:"sort_dir,omitempty"`
}
