// Package cart 实现购物车对账引擎：把尚未提交的 live 行与订单平台已确认的
// 草稿订单行合并成单一视图，加购/删行先乐观生效，失败时回滚。
package cart

import (
	"context"
	"strings"
	"sync"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/session"

	"github.com/google/uuid"
)

// optimisticEntry 等待平台确认的临时行。TempID 每次加购唯一生成、从不复用。
type optimisticEntry struct {
	TempID string
	Line   models.CartLine
}

// Subscriber 合并视图变更回调
type Subscriber func(view []models.CartLine)

// Engine 单个浏览会话的购物车状态容器。所有读写都经由互斥锁，
// 合并视图是纯函数推导结果，调用方不持有可变内部状态。
type Engine struct {
	gw        gateway.OrderGateway
	store     session.CartStore // 可为 nil；每次状态变更都把合并视图写回会话存储
	sessionID string
	accountID string

	mu            sync.Mutex
	draft         []models.CartLine   // 平台已确认的草稿行（保持服务端顺序）
	draftProducts map[string]struct{} // 草稿行对应的商品 ID，用于判定乐观行被取代
	optimistic    []optimisticEntry
	deletionMarks map[string]struct{}
	live          []models.CartLine
	addInFlight   bool
	stale         bool

	subs      map[int]Subscriber
	nextSubID int

	// spawn 执行 fire-and-forget 刷新；测试注入同步实现
	spawn func(func())
}

// NewEngine 创建购物车引擎
func NewEngine(gw gateway.OrderGateway, store session.CartStore, sessionID, accountID string) *Engine {
	return &Engine{
		gw:            gw,
		store:         store,
		sessionID:     sessionID,
		accountID:     accountID,
		draftProducts: make(map[string]struct{}),
		deletionMarks: make(map[string]struct{}),
		subs:          make(map[int]Subscriber),
		spawn:         func(f func()) { go f() },
	}
}

// AccountID 引擎绑定的账户
func (e *Engine) AccountID() string {
	return e.accountID
}

// Subscribe 订阅合并视图变更，返回取消函数
func (e *Engine) Subscribe(fn Subscriber) func() {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// MergedView 推导当前合并视图：草稿行（去掉删除标记和与 live 同标识的行）、
// 仍在途的乐观行、live 行，依次拼接。任意两行不共享标识，冲突时 live 胜出。
func (e *Engine) MergedView() []models.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mergedLocked()
}

// Stale 判断草稿行是否等待刷新
func (e *Engine) Stale() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stale
}

// AddItem 乐观加购到草稿订单。合并视图立即出现临时行，随后发起远程调用；
// 成功后触发一次草稿刷新（相对调用方 fire-and-forget），临时行保留到刷新
// 将其取代为止；失败则按 TempID 移除临时行并返回错误。
func (e *Engine) AddItem(ctx context.Context, product models.Product, qty int) error {
	id := strings.TrimSpace(product.ID)
	if id == "" || product.Price.IsNegative() {
		return ErrInvalidItem
	}
	if qty < constants.CartQtyMin {
		qty = constants.CartQtyMin
	}
	if qty > constants.CartQtyMax {
		qty = constants.CartQtyMax
	}

	e.mu.Lock()
	if e.addInFlight {
		e.mu.Unlock()
		return ErrAddInProgress
	}
	if e.containsLocked(id) {
		e.mu.Unlock()
		return ErrAlreadyInCart
	}
	tempID := uuid.NewString()
	e.optimistic = append(e.optimistic, optimisticEntry{
		TempID: tempID,
		Line: models.CartLine{
			ID:        id,
			ProductID: id,
			SKU:       product.SKU,
			Name:      product.Name,
			Price:     product.Price,
			Qty:       qty,
			Source:    constants.CartSourceDraft,
			AccountID: e.accountID,
		},
	})
	e.addInFlight = true
	e.mu.Unlock()
	e.notify()

	_, err := e.gw.AddToOrder(ctx, gateway.AddToOrderInput{
		AccountID: e.accountID,
		ProductID: id,
		UnitPrice: product.Price,
		Qty:       qty,
	})
	if err != nil {
		e.mu.Lock()
		e.removeOptimisticLocked(tempID)
		e.addInFlight = false
		e.mu.Unlock()
		e.notify()
		logger.Warnw("cart_add_rollback",
			"session_id", e.sessionID,
			"account_id", e.accountID,
			"product_id", id,
			"error", err,
		)
		return err
	}

	e.mu.Lock()
	e.addInFlight = false
	e.stale = true
	e.mu.Unlock()
	e.scheduleRefresh()
	return nil
}

// AddLiveItem 把商品加入仅存在于会话内存的 live 行，不发起远程调用
func (e *Engine) AddLiveItem(ctx context.Context, product models.Product, qty int) error {
	id := strings.TrimSpace(product.ID)
	if id == "" || product.Price.IsNegative() {
		return ErrInvalidItem
	}
	if qty < constants.CartQtyMin {
		qty = constants.CartQtyMin
	}
	if qty > constants.CartQtyMax {
		qty = constants.CartQtyMax
	}

	e.mu.Lock()
	if e.containsLocked(id) {
		e.mu.Unlock()
		return ErrAlreadyInCart
	}
	e.live = append(e.live, models.CartLine{
		ID:        id,
		ProductID: id,
		SKU:       product.SKU,
		Name:      product.Name,
		Price:     product.Price,
		Qty:       qty,
		Source:    constants.CartSourceLive,
		AccountID: e.accountID,
	})
	e.mu.Unlock()

	e.notify()
	return nil
}

// RemoveItem 按来源删行。draft 行先打删除标记再调用平台，失败时解除标记；
// live 行同步删除，不发起网络调用。对不存在的标识是无副作用的空操作。
func (e *Engine) RemoveItem(ctx context.Context, id, source string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if source == constants.CartSourceLive {
		return e.removeLive(ctx, id)
	}
	return e.removeDraft(ctx, id)
}

// Refresh 重新读取账户草稿订单并以其为准收敛本地状态：
// 被取代的乐观行退场，平台已确认删除的标记被清除。
func (e *Engine) Refresh(ctx context.Context) error {
	orders, err := e.gw.GetOrdersForAccount(ctx, e.accountID)
	if err != nil {
		logger.Warnw("cart_refresh_failed",
			"session_id", e.sessionID,
			"account_id", e.accountID,
			"error", err,
		)
		return err
	}

	var lines []models.CartLine
	products := make(map[string]struct{})
	itemIDs := make(map[string]struct{})
	for _, order := range orders {
		if !order.IsDraft() {
			continue
		}
		for _, item := range order.Items {
			lines = append(lines, item.CartLine(e.accountID))
			itemIDs[item.ID] = struct{}{}
			if item.ProductID != "" {
				products[item.ProductID] = struct{}{}
			}
		}
	}

	e.mu.Lock()
	e.draft = lines
	e.draftProducts = products
	// 平台结果里已消失的行，其删除标记完成使命
	for id := range e.deletionMarks {
		if _, ok := itemIDs[id]; !ok {
			delete(e.deletionMarks, id)
		}
	}
	// 权威行已覆盖的乐观行退场
	kept := e.optimistic[:0]
	for _, entry := range e.optimistic {
		if _, ok := products[entry.Line.ID]; ok {
			continue
		}
		kept = append(kept, entry)
	}
	e.optimistic = kept
	e.stale = false
	e.mu.Unlock()

	e.notify()
	return nil
}

// Invalidate 标记草稿行为过期，下一次 Refresh 前合并视图仍可读
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.stale = true
	e.mu.Unlock()
}

func (e *Engine) removeLive(ctx context.Context, id string) error {
	e.mu.Lock()
	kept := e.live[:0]
	removed := false
	for _, line := range e.live {
		if line.ID == id {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	e.live = kept
	e.mu.Unlock()

	if removed {
		e.notify()
	}
	return nil
}

func (e *Engine) removeDraft(ctx context.Context, id string) error {
	e.mu.Lock()
	present := false
	for _, line := range e.mergedLocked() {
		if line.ID == id && line.IsDraft() {
			present = true
			break
		}
	}
	if !present {
		e.mu.Unlock()
		return nil
	}
	e.deletionMarks[id] = struct{}{}
	e.mu.Unlock()
	e.notify()

	if err := e.gw.RemoveOrderItem(ctx, id); err != nil {
		e.mu.Lock()
		delete(e.deletionMarks, id)
		e.mu.Unlock()
		e.notify()
		logger.Warnw("cart_remove_rollback",
			"session_id", e.sessionID,
			"account_id", e.accountID,
			"order_item_id", id,
			"error", err,
		)
		return err
	}

	// 标记保留到刷新确认平台侧已不可见，陈旧读不会让该行复活
	e.mu.Lock()
	e.stale = true
	e.mu.Unlock()
	e.scheduleRefresh()
	return nil
}

func (e *Engine) mergedLocked() []models.CartLine {
	liveIDs := make(map[string]struct{}, len(e.live))
	for _, line := range e.live {
		liveIDs[line.ID] = struct{}{}
	}

	out := make([]models.CartLine, 0, len(e.draft)+len(e.optimistic)+len(e.live))
	for _, line := range e.draft {
		if _, marked := e.deletionMarks[line.ID]; marked {
			continue
		}
		if _, collides := liveIDs[line.ID]; collides {
			continue
		}
		out = append(out, line)
	}
	for _, entry := range e.optimistic {
		if _, marked := e.deletionMarks[entry.Line.ID]; marked {
			continue
		}
		if _, superseded := e.draftProducts[entry.Line.ID]; superseded {
			continue
		}
		if _, collides := liveIDs[entry.Line.ID]; collides {
			continue
		}
		out = append(out, entry.Line)
	}
	out = append(out, e.live...)
	return out
}

// containsLocked 按标识查合并视图；草稿行的标识是订单项 ID，
// 因此商品是否已入草稿还需对照 draftProducts。
func (e *Engine) containsLocked(id string) bool {
	if _, ok := e.draftProducts[id]; ok {
		return true
	}
	for _, line := range e.mergedLocked() {
		if line.ID == id {
			return true
		}
	}
	return false
}

func (e *Engine) removeOptimisticLocked(tempID string) {
	kept := e.optimistic[:0]
	for _, entry := range e.optimistic {
		if entry.TempID == tempID {
			continue
		}
		kept = append(kept, entry)
	}
	e.optimistic = kept
}

// mirror 把合并视图写回会话存储，结算页读取的即是这份快照
func (e *Engine) mirror(view []models.CartLine) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveCart(context.Background(), e.sessionID, view); err != nil {
		logger.Warnw("cart_session_mirror_failed",
			"session_id", e.sessionID,
			"error", err,
		)
	}
}

func (e *Engine) scheduleRefresh() {
	e.spawn(func() {
		_ = e.Refresh(context.Background())
	})
}

func (e *Engine) notify() {
	e.mu.Lock()
	view := e.mergedLocked()
	subs := make([]Subscriber, 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	e.mirror(view)
	for _, fn := range subs {
		fn(view)
	}
}
