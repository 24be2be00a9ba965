package cart

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/session"

	"github.com/shopspring/decimal"
)

type fakeGateway struct {
	mu          sync.Mutex
	orders      []models.DraftOrder
	addErr      error
	removeErr   error
	refreshErr  error
	addCalls    int
	removeCalls []string
	onAdd       func()
}

func (f *fakeGateway) AddToOrder(ctx context.Context, input gateway.AddToOrderInput) (string, error) {
	f.mu.Lock()
	f.addCalls++
	hook := f.onAdd
	err := f.addErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return "", err
	}
	return "item-" + input.ProductID, nil
}

func (f *fakeGateway) RemoveOrderItem(ctx context.Context, orderItemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, orderItemID)
	if f.removeErr != nil {
		return f.removeErr
	}
	for oi, order := range f.orders {
		kept := order.Items[:0]
		for _, item := range order.Items {
			if item.ID != orderItemID {
				kept = append(kept, item)
			}
		}
		f.orders[oi].Items = kept
	}
	return nil
}

func (f *fakeGateway) GetOrdersForAccount(ctx context.Context, accountID string) ([]models.DraftOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	out := make([]models.DraftOrder, len(f.orders))
	for i, order := range f.orders {
		out[i] = order
		out[i].Items = append([]models.DraftOrderItem(nil), order.Items...)
	}
	return out, nil
}

func (f *fakeGateway) CreateOrderFromCart(ctx context.Context, input gateway.CreateOrderInput) (*models.OrderResult, error) {
	return &models.OrderResult{OrderID: "order-1", LineItemCount: len(input.Items)}, nil
}

func (f *fakeGateway) FetchProducts(ctx context.Context, query gateway.ProductQuery) (*models.ProductPage, error) {
	return &models.ProductPage{}, nil
}

func (f *fakeGateway) FetchProductFamilies(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeGateway) FetchPriceBookEntries(ctx context.Context, skus []string) ([]models.PriceBookEntry, error) {
	return nil, nil
}

func (f *fakeGateway) GetAccountInfo(ctx context.Context, accountID string) (*models.Account, error) {
	return &models.Account{ID: accountID}, nil
}

func (f *fakeGateway) GetContractsForAccount(ctx context.Context, accountID string) ([]models.Contract, error) {
	return nil, nil
}

func (f *fakeGateway) GenerateOrderDocument(ctx context.Context, orderID string) (*models.OrderDocument, error) {
	return &models.OrderDocument{ID: "doc-1", OrderID: orderID}, nil
}

func (f *fakeGateway) setDraft(items ...models.DraftOrderItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = []models.DraftOrder{{
		ID:        "draft-1",
		AccountID: "acc-1",
		Status:    constants.OrderStatusDraft,
		Items:     items,
	}}
}

func price(amount string) models.Money {
	d, _ := decimal.NewFromString(amount)
	return models.NewMoneyFromDecimal(d)
}

// newTestEngine 返回同步刷新的引擎，避免测试依赖调度时机
func newTestEngine(gw gateway.OrderGateway) *Engine {
	e := NewEngine(gw, nil, "sess-1", "acc-1")
	e.spawn = func(f func()) { f() }
	return e
}

func viewIDs(view []models.CartLine) []string {
	ids := make([]string, 0, len(view))
	for _, line := range view {
		ids = append(ids, line.ID)
	}
	return ids
}

func TestAddItemInvalid(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	if err := e.AddItem(context.Background(), models.Product{ID: "  "}, 1); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("blank id want ErrInvalidItem got %v", err)
	}
	if err := e.AddItem(context.Background(), models.Product{ID: "p1", Price: price("-1.00")}, 1); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("negative price want ErrInvalidItem got %v", err)
	}
}

func TestAddItemConfirmedByRefresh(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)

	// 远程加行成功后，刷新用平台行取代乐观行
	gw.setDraft(models.DraftOrderItem{
		ID: "item-p1", ProductID: "p1", SKU: "SKU1", Name: "Keyboard",
		UnitPrice: price("89.00"), Qty: 2,
	})
	err := e.AddItem(context.Background(), models.Product{ID: "p1", SKU: "SKU1", Name: "Keyboard", Price: price("89.00")}, 2)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	view := e.MergedView()
	if len(view) != 1 {
		t.Fatalf("view len want 1 got %d: %v", len(view), viewIDs(view))
	}
	if view[0].ID != "item-p1" || view[0].Source != constants.CartSourceDraft {
		t.Fatalf("confirmed line want item-p1/draft got %s/%s", view[0].ID, view[0].Source)
	}
	if e.Stale() {
		t.Fatalf("engine should not be stale after synchronous refresh")
	}
}

func TestAddItemRollbackOnFailure(t *testing.T) {
	gw := &fakeGateway{addErr: errors.New("platform down")}
	e := newTestEngine(gw)

	before := e.MergedView()
	err := e.AddItem(context.Background(), models.Product{ID: "p1", Price: price("10.00")}, 1)
	if err == nil {
		t.Fatalf("expected add failure")
	}
	after := e.MergedView()
	if !reflect.DeepEqual(viewIDs(before), viewIDs(after)) {
		t.Fatalf("rollback should restore view, before %v after %v", viewIDs(before), viewIDs(after))
	}

	// 失败后同一商品可以重试
	gw.mu.Lock()
	gw.addErr = nil
	gw.mu.Unlock()
	gw.setDraft(models.DraftOrderItem{ID: "item-p1", ProductID: "p1", UnitPrice: price("10.00"), Qty: 1})
	if err := e.AddItem(context.Background(), models.Product{ID: "p1", Price: price("10.00")}, 1); err != nil {
		t.Fatalf("retry after rollback failed: %v", err)
	}
}

func TestAddItemDuplicateByProduct(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	gw.setDraft(models.DraftOrderItem{ID: "item-p1", ProductID: "p1", UnitPrice: price("5.00"), Qty: 1})
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// 草稿行的 ID 是订单项 ID，但按商品 ID 仍要判定重复
	err := e.AddItem(context.Background(), models.Product{ID: "p1", Price: price("5.00")}, 1)
	if !errors.Is(err, ErrAlreadyInCart) {
		t.Fatalf("want ErrAlreadyInCart got %v", err)
	}
	gw.mu.Lock()
	calls := gw.addCalls
	gw.mu.Unlock()
	if calls != 0 {
		t.Fatalf("duplicate add should not call platform, calls=%d", calls)
	}
}

func TestAddItemSingleFlight(t *testing.T) {
	gw := &fakeGateway{}
	entered := make(chan struct{})
	release := make(chan struct{})
	gw.onAdd = func() {
		close(entered)
		<-release
	}

	e := NewEngine(gw, nil, "sess-1", "acc-1")
	e.spawn = func(f func()) {} // 刷新不参与本测试

	done := make(chan error, 1)
	go func() {
		done <- e.AddItem(context.Background(), models.Product{ID: "p1", Price: price("1.00")}, 1)
	}()
	<-entered

	err := e.AddItem(context.Background(), models.Product{ID: "p2", Price: price("2.00")}, 1)
	if !errors.Is(err, ErrAddInProgress) {
		t.Fatalf("second add want ErrAddInProgress got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first add failed: %v", err)
	}
}

func TestAddItemMirrorsDraftToSession(t *testing.T) {
	store := session.NewMemoryStore()
	gw := &fakeGateway{}
	e := NewEngine(gw, store, "sess-1", "acc-1")
	e.spawn = func(f func()) { f() }

	// 结算从会话存储读购物车，草稿加购确认后镜像里必须能看到这一行
	gw.setDraft(models.DraftOrderItem{
		ID: "item-p1", ProductID: "p1", SKU: "SKU1", Name: "Keyboard",
		UnitPrice: price("89.00"), Qty: 2,
	})
	if err := e.AddItem(context.Background(), models.Product{ID: "p1", SKU: "SKU1", Name: "Keyboard", Price: price("89.00")}, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	saved, err := store.LoadCart(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("load session cart failed: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("session cart len want 1 got %d: %+v", len(saved), saved)
	}
	if saved[0].ID != "item-p1" || saved[0].ProductID != "p1" || saved[0].Source != constants.CartSourceDraft {
		t.Fatalf("session cart want confirmed draft line item-p1/p1, got %+v", saved[0])
	}
}

func TestRemoveOptimisticHidesImmediately(t *testing.T) {
	store := session.NewMemoryStore()
	gw := &fakeGateway{}
	e := NewEngine(gw, store, "sess-1", "acc-1")
	e.spawn = func(f func()) {} // 刷新被抑制，行停留在乐观态

	if err := e.AddItem(context.Background(), models.Product{ID: "p1", Price: price("4.00")}, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(e.MergedView()) != 1 {
		t.Fatalf("optimistic line should be visible, got %v", viewIDs(e.MergedView()))
	}

	// 删除标记也要遮蔽仍处乐观态的行，不能只挡草稿行
	if err := e.RemoveItem(context.Background(), "p1", constants.CartSourceDraft); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(e.MergedView()) != 0 {
		t.Fatalf("removed optimistic line should be hidden, got %v", viewIDs(e.MergedView()))
	}
	saved, _ := store.LoadCart(context.Background(), "sess-1")
	if len(saved) != 0 {
		t.Fatalf("session mirror should be empty after remove, got %+v", saved)
	}
}

func TestAddLiveItemMirrorsSession(t *testing.T) {
	store := session.NewMemoryStore()
	e := NewEngine(&fakeGateway{}, store, "sess-1", "acc-1")
	e.spawn = func(f func()) { f() }

	err := e.AddLiveItem(context.Background(), models.Product{ID: "p9", SKU: "SKU9", Price: price("3.30")}, 1)
	if err != nil {
		t.Fatalf("add live failed: %v", err)
	}
	if err := e.AddLiveItem(context.Background(), models.Product{ID: "p9", Price: price("3.30")}, 1); !errors.Is(err, ErrAlreadyInCart) {
		t.Fatalf("duplicate live add want ErrAlreadyInCart got %v", err)
	}

	saved, err := store.LoadCart(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("load session cart failed: %v", err)
	}
	if len(saved) != 1 || saved[0].ID != "p9" || saved[0].Source != constants.CartSourceLive {
		t.Fatalf("session mirror want single live p9, got %+v", saved)
	}
}

func TestLiveWinsOverDraftCollision(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	gw.setDraft(models.DraftOrderItem{ID: "shared", ProductID: "p1", UnitPrice: price("2.00"), Qty: 1})
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if err := e.AddLiveItem(context.Background(), models.Product{ID: "shared", Price: price("2.50")}, 1); err == nil {
		// 同标识加购被挡下时直接构造冲突
		t.Fatalf("expected duplicate rejection before forcing collision")
	}

	// 直接注入同标识 live 行验证合并规则
	e.mu.Lock()
	e.live = append(e.live, models.CartLine{ID: "shared", Price: price("2.50"), Qty: 1, Source: constants.CartSourceLive})
	e.mu.Unlock()

	view := e.MergedView()
	if len(view) != 1 {
		t.Fatalf("collision view len want 1 got %d", len(view))
	}
	if view[0].Source != constants.CartSourceLive {
		t.Fatalf("live should win collision, got source %s", view[0].Source)
	}
}

func TestRemoveDraftConfirmed(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	gw.setDraft(
		models.DraftOrderItem{ID: "item-1", ProductID: "p1", UnitPrice: price("1.00"), Qty: 1},
		models.DraftOrderItem{ID: "item-2", ProductID: "p2", UnitPrice: price("2.00"), Qty: 1},
	)
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if err := e.RemoveItem(context.Background(), "item-1", constants.CartSourceDraft); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	view := e.MergedView()
	if len(view) != 1 || view[0].ID != "item-2" {
		t.Fatalf("view after remove want [item-2] got %v", viewIDs(view))
	}
}

func TestRemoveDraftAbsentIsNoop(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	if err := e.RemoveItem(context.Background(), "ghost", constants.CartSourceDraft); err != nil {
		t.Fatalf("absent remove should be noop, got %v", err)
	}
	gw.mu.Lock()
	calls := len(gw.removeCalls)
	gw.mu.Unlock()
	if calls != 0 {
		t.Fatalf("absent remove should not call platform, calls=%d", calls)
	}
}

func TestRemoveDraftRollbackOnFailure(t *testing.T) {
	gw := &fakeGateway{removeErr: errors.New("platform down")}
	e := newTestEngine(gw)
	gw.setDraft(models.DraftOrderItem{ID: "item-1", ProductID: "p1", UnitPrice: price("1.00"), Qty: 1})
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if err := e.RemoveItem(context.Background(), "item-1", constants.CartSourceDraft); err == nil {
		t.Fatalf("expected remove failure")
	}
	view := e.MergedView()
	if len(view) != 1 || view[0].ID != "item-1" {
		t.Fatalf("failed remove should restore line, got %v", viewIDs(view))
	}
}

func TestRemoveMarkerSurvivesStaleRefresh(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	gw.setDraft(models.DraftOrderItem{ID: "item-1", ProductID: "p1", UnitPrice: price("1.00"), Qty: 1})
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// 平台删除成功但刷新仍返回陈旧行：删除标记继续隐藏它
	e.spawn = func(f func()) {}
	gw.mu.Lock()
	stale := gw.orders
	gw.mu.Unlock()
	if err := e.RemoveItem(context.Background(), "item-1", constants.CartSourceDraft); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	gw.mu.Lock()
	gw.orders = stale // 回放陈旧平台状态
	gw.orders[0].Items = []models.DraftOrderItem{{ID: "item-1", ProductID: "p1", UnitPrice: price("1.00"), Qty: 1}}
	gw.mu.Unlock()
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("stale refresh failed: %v", err)
	}
	if len(e.MergedView()) != 0 {
		t.Fatalf("marker should hide stale line, got %v", viewIDs(e.MergedView()))
	}

	// 平台最终收敛后标记清除，后续同名订单项不再被误杀
	gw.setDraft()
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("converged refresh failed: %v", err)
	}
	e.mu.Lock()
	_, marked := e.deletionMarks["item-1"]
	e.mu.Unlock()
	if marked {
		t.Fatalf("marker should be cleared once platform confirms absence")
	}
}

func TestRemoveLiveSynchronous(t *testing.T) {
	store := session.NewMemoryStore()
	e := NewEngine(&fakeGateway{}, store, "sess-1", "acc-1")
	e.spawn = func(f func()) { f() }

	if err := e.AddLiveItem(context.Background(), models.Product{ID: "p1", Price: price("1.00")}, 1); err != nil {
		t.Fatalf("add live failed: %v", err)
	}
	if err := e.RemoveItem(context.Background(), "p1", constants.CartSourceLive); err != nil {
		t.Fatalf("remove live failed: %v", err)
	}
	if len(e.MergedView()) != 0 {
		t.Fatalf("live line should be gone, got %v", viewIDs(e.MergedView()))
	}
	saved, _ := store.LoadCart(context.Background(), "sess-1")
	if len(saved) != 0 {
		t.Fatalf("session mirror should be empty, got %+v", saved)
	}
}

func TestSubscribeNotify(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)

	var mu sync.Mutex
	var notified int
	cancel := e.Subscribe(func(view []models.CartLine) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	gw.setDraft(models.DraftOrderItem{ID: "item-1", ProductID: "p1", UnitPrice: price("1.00"), Qty: 1})
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	mu.Lock()
	count := notified
	mu.Unlock()
	if count == 0 {
		t.Fatalf("subscriber should be notified on refresh")
	}

	cancel()
	if err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	mu.Lock()
	after := notified
	mu.Unlock()
	if after != count {
		t.Fatalf("cancelled subscriber should not be notified, before %d after %d", count, after)
	}
}

func TestQtyClamp(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	e.spawn = func(f func()) {}

	if err := e.AddLiveItem(context.Background(), models.Product{ID: "p1", Price: price("1.00")}, 0); err != nil {
		t.Fatalf("add live failed: %v", err)
	}
	view := e.MergedView()
	if view[0].Qty != constants.CartQtyMin {
		t.Fatalf("qty want clamped to %d got %d", constants.CartQtyMin, view[0].Qty)
	}
}
