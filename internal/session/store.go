// Package session 保存浏览会话范围内的购物车状态。
//
// 序列化契约："cart" 键保存 models.CartLine 的 JSON 数组（字段 id、sku、
// name、price、qty、source、accountId），"account" 键保存账户 ID 字符串。
// 结算页在加载时读取 cart 一次；下单成功后 cart 被清空而 account 保留，
// 以便刷新后仍保持账户上下文。
package session

import (
	"context"
	"errors"

	"github.com/storefront-next/internal/models"
)

// ErrSessionRequired 会话标识为空
var ErrSessionRequired = errors.New("session id is required")

// CartStore 会话级购物车存储。实现必须按会话隔离，且不做跨会话持久化承诺。
type CartStore interface {
	SaveCart(ctx context.Context, sessionID string, lines []models.CartLine) error
	LoadCart(ctx context.Context, sessionID string) ([]models.CartLine, error)
	ClearCart(ctx context.Context, sessionID string) error
	SaveAccount(ctx context.Context, sessionID, accountID string) error
	LoadAccount(ctx context.Context, sessionID string) (string, error)
}
