// Package checkout 结算流程：读取会话购物车、校验账户/合同/行数据、
// 调用平台下单，并在成功后清空购物车但保留账户上下文。
package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/session"

	"github.com/hibiken/asynq"
)

var (
	// ErrEmptyCart 购物车为空
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAccountRequired 缺少账户
	ErrAccountRequired = errors.New("account id is required")
	// ErrContractRequired 缺少合同
	ErrContractRequired = errors.New("contract id is required")
	// ErrInvalidSKU 行缺少 SKU
	ErrInvalidSKU = errors.New("cart line has invalid sku")
	// ErrInvalidQty 行数量越界
	ErrInvalidQty = errors.New("cart line quantity out of range")
	// ErrLineNotFound 会话购物车中不存在该行
	ErrLineNotFound = errors.New("cart line not found")
)

// DocumentEnqueuer 文档任务入队接口
type DocumentEnqueuer interface {
	EnqueueOrderDocument(payload queue.OrderDocumentPayload, opts ...asynq.Option) error
}

// Flow 结算流程服务
type Flow struct {
	gw              gateway.OrderGateway
	store           session.CartStore
	docs            DocumentEnqueuer
	documentEnabled bool
}

// NewFlow 创建结算流程
func NewFlow(gw gateway.OrderGateway, store session.CartStore, docs DocumentEnqueuer, documentEnabled bool) *Flow {
	return &Flow{
		gw:              gw,
		store:           store,
		docs:            docs,
		documentEnabled: documentEnabled,
	}
}

// CheckoutView 结算页加载结果
type CheckoutView struct {
	Lines     []models.CartLine `json:"lines"`
	Total     models.Money      `json:"total"`
	AccountID string            `json:"account_id,omitempty"`
}

// LoadCart 结算页加载：读取会话购物车一次，并恢复账户上下文
// （优先会话存储，缺失时取第一行携带的 accountId）
func (f *Flow) LoadCart(ctx context.Context, sessionID string) (*CheckoutView, error) {
	lines, err := f.store.LoadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i] = models.NormalizeCartLine(lines[i])
	}
	accountID, err := f.store.LoadAccount(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if accountID == "" && len(lines) > 0 {
		accountID = lines[0].AccountID
	}
	return &CheckoutView{
		Lines:     lines,
		Total:     models.CartTotal(lines),
		AccountID: accountID,
	}, nil
}

// UpdateQty 修改会话购物车某行数量
func (f *Flow) UpdateQty(ctx context.Context, sessionID, lineID string, qty int) (*CheckoutView, error) {
	if qty < constants.CartQtyMin || qty > constants.CartQtyMax {
		return nil, ErrInvalidQty
	}
	lines, err := f.store.LoadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range lines {
		if lines[i].ID == lineID {
			lines[i].Qty = qty
			found = true
			break
		}
	}
	if !found {
		return nil, ErrLineNotFound
	}
	if err := f.store.SaveCart(ctx, sessionID, lines); err != nil {
		return nil, err
	}
	return &CheckoutView{Lines: lines, Total: models.CartTotal(lines)}, nil
}

// RemoveLine 从会话购物车删除某行；不存在时为空操作
func (f *Flow) RemoveLine(ctx context.Context, sessionID, lineID string) (*CheckoutView, error) {
	lines, err := f.store.LoadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	kept := lines[:0]
	for _, line := range lines {
		if line.ID == lineID {
			continue
		}
		kept = append(kept, line)
	}
	if err := f.store.SaveCart(ctx, sessionID, kept); err != nil {
		return nil, err
	}
	return &CheckoutView{Lines: kept, Total: models.CartTotal(kept)}, nil
}

// PlaceOrderInput 下单输入
type PlaceOrderInput struct {
	SessionID       string
	AccountID       string
	ContractID      string
	BillingAddress  models.Address
	ShippingAddress models.Address
}

// PlaceOrder 创建订单。校验失败返回 ValidationError 类哨兵；
// 成功后清空会话购物车、保留账户上下文，并异步生成订单文档。
func (f *Flow) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.OrderResult, error) {
	lines, err := f.store.LoadCart(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return nil, ErrAccountRequired
	}
	if strings.TrimSpace(input.ContractID) == "" {
		return nil, ErrContractRequired
	}

	items := make([]gateway.CreateOrderItem, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.SKU) == "" {
			return nil, ErrInvalidSKU
		}
		if line.Qty < constants.CartQtyMin || line.Qty > constants.CartQtyMax {
			return nil, ErrInvalidQty
		}
		// draft 行的 ID 是订单项 ID，商品身份在 ProductID 上；
		// live 行的 ID 即商品 ID，ProductID 缺省时回退
		productID := strings.TrimSpace(line.ProductID)
		if productID == "" {
			productID = line.ID
		}
		items = append(items, gateway.CreateOrderItem{
			ProductID: productID,
			SKU:       line.SKU,
			Qty:       line.Qty,
			UnitPrice: line.Price,
		})
	}

	billing, shipping := f.resolveAddresses(ctx, accountID, input.BillingAddress, input.ShippingAddress)
	result, err := f.gw.CreateOrderFromCart(ctx, gateway.CreateOrderInput{
		AccountID:       accountID,
		ContractID:      strings.TrimSpace(input.ContractID),
		BillingAddress:  billing,
		ShippingAddress: shipping,
		Items:           items,
	})
	if err != nil {
		return nil, err
	}

	// 购物车清空，账户上下文保留，刷新结算页后仍可继续下单
	if err := f.store.ClearCart(ctx, input.SessionID); err != nil {
		logger.Warnw("checkout_cart_clear_failed", "session_id", input.SessionID, "error", err)
	}
	if err := f.store.SaveAccount(ctx, input.SessionID, accountID); err != nil {
		logger.Warnw("checkout_account_retain_failed", "session_id", input.SessionID, "error", err)
	}

	if f.documentEnabled && f.docs != nil {
		payload := queue.OrderDocumentPayload{
			OrderID:   result.OrderID,
			AccountID: accountID,
			SessionID: input.SessionID,
		}
		// 用户等待发票下载，任务走高优先级队列
		if err := f.docs.EnqueueOrderDocument(payload, asynq.Queue(constants.QueueCritical)); err != nil {
			logger.Warnw("checkout_document_enqueue_failed", "order_id", result.OrderID, "error", err)
		}
	}

	logger.Infow("checkout_order_created",
		"order_id", result.OrderID,
		"account_id", accountID,
		"line_count", result.LineItemCount,
	)
	return result, nil
}

// resolveAddresses 地址缺省时用账户档案地址补齐；查询失败保留入参，不阻断下单
func (f *Flow) resolveAddresses(ctx context.Context, accountID string, billing, shipping models.Address) (models.Address, models.Address) {
	if !billing.Empty() && !shipping.Empty() {
		return billing, shipping
	}
	account, err := f.gw.GetAccountInfo(ctx, accountID)
	if err != nil {
		logger.Warnw("checkout_address_prefill_failed", "account_id", accountID, "error", err)
		return billing, shipping
	}
	if billing.Empty() {
		billing = account.BillingAddress
	}
	if shipping.Empty() {
		shipping = account.ShippingAddress
	}
	return billing, shipping
}

// Accounts 账户信息（结算页地址预填）
func (f *Flow) Accounts(ctx context.Context, accountID string) (*models.Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrAccountRequired
	}
	return f.gw.GetAccountInfo(ctx, accountID)
}

// Contracts 账户合同列表（结算页合同选择）
func (f *Flow) Contracts(ctx context.Context, accountID string) ([]models.Contract, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrAccountRequired
	}
	return f.gw.GetContractsForAccount(ctx, accountID)
}
