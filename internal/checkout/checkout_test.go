package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/storefront-next/internal/cart"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/session"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

type fakeOrderGateway struct {
	createErr   error
	createInput *gateway.CreateOrderInput
	account     *models.Account
	orders      []models.DraftOrder
}

func (f *fakeOrderGateway) CreateOrderFromCart(ctx context.Context, input gateway.CreateOrderInput) (*models.OrderResult, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createInput = &input
	return &models.OrderResult{OrderID: "order-1", OrderNo: "SO-1", LineItemCount: len(input.Items)}, nil
}

func (f *fakeOrderGateway) AddToOrder(ctx context.Context, input gateway.AddToOrderInput) (string, error) {
	return "", nil
}

func (f *fakeOrderGateway) RemoveOrderItem(ctx context.Context, orderItemID string) error {
	return nil
}

func (f *fakeOrderGateway) GetOrdersForAccount(ctx context.Context, accountID string) ([]models.DraftOrder, error) {
	return f.orders, nil
}

func (f *fakeOrderGateway) FetchProducts(ctx context.Context, query gateway.ProductQuery) (*models.ProductPage, error) {
	return &models.ProductPage{}, nil
}

func (f *fakeOrderGateway) FetchProductFamilies(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeOrderGateway) FetchPriceBookEntries(ctx context.Context, skus []string) ([]models.PriceBookEntry, error) {
	return nil, nil
}

func (f *fakeOrderGateway) GetAccountInfo(ctx context.Context, accountID string) (*models.Account, error) {
	if f.account != nil {
		return f.account, nil
	}
	return &models.Account{ID: accountID, Name: "Acme"}, nil
}

func (f *fakeOrderGateway) GetContractsForAccount(ctx context.Context, accountID string) ([]models.Contract, error) {
	return []models.Contract{{ID: "ct-1", AccountID: accountID}}, nil
}

func (f *fakeOrderGateway) GenerateOrderDocument(ctx context.Context, orderID string) (*models.OrderDocument, error) {
	return &models.OrderDocument{ID: "doc-1", OrderID: orderID}, nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads []queue.OrderDocumentPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueOrderDocument(payload queue.OrderDocumentPayload, opts ...asynq.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func price(amount string) models.Money {
	d, _ := decimal.NewFromString(amount)
	return models.NewMoneyFromDecimal(d)
}

func seedCart(t *testing.T, store session.CartStore, sessionID string, lines ...models.CartLine) {
	t.Helper()
	if err := store.SaveCart(context.Background(), sessionID, lines); err != nil {
		t.Fatalf("seed cart failed: %v", err)
	}
}

func validOrderInput(sessionID string) PlaceOrderInput {
	return PlaceOrderInput{
		SessionID:  sessionID,
		AccountID:  "acc-1",
		ContractID: "ct-1",
		BillingAddress: models.Address{
			Street: "1 Main St", City: "Utrecht", PostalCode: "3500", Country: "NL",
		},
		ShippingAddress: models.Address{
			Street: "1 Main St", City: "Utrecht", PostalCode: "3500", Country: "NL",
		},
	}
}

func TestLoadCartRestoresAccountFromLines(t *testing.T) {
	store := session.NewMemoryStore()
	flow := NewFlow(&fakeOrderGateway{}, store, nil, false)
	seedCart(t, store, "sess-1",
		models.CartLine{ID: "p1", SKU: "SKU1", Price: price("10.00"), Qty: 2, AccountID: "acc-9"},
	)

	view, err := flow.LoadCart(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if view.AccountID != "acc-9" {
		t.Fatalf("account want acc-9 got %s", view.AccountID)
	}
	if view.Total.String() != "20.00" {
		t.Fatalf("total want 20.00 got %s", view.Total.String())
	}
}

func TestLoadCartSeesEngineDraftLines(t *testing.T) {
	store := session.NewMemoryStore()
	gw := &fakeOrderGateway{orders: []models.DraftOrder{{
		ID:        "draft-1",
		AccountID: "acc-1",
		Status:    constants.OrderStatusDraft,
		Items: []models.DraftOrderItem{{
			ID: "item-p1", ProductID: "p1", SKU: "SKU1", Name: "Keyboard",
			UnitPrice: price("89.00"), Qty: 2,
		}},
	}}}

	// 引擎和结算流程共享同一会话存储：引擎收敛后的草稿行必须能被结算页读到
	eng := cart.NewEngine(gw, store, "sess-1", "acc-1")
	if err := eng.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	flow := NewFlow(gw, store, nil, false)
	view, err := flow.LoadCart(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("checkout cart len want 1 got %d: %+v", len(view.Lines), view.Lines)
	}
	if view.Lines[0].ID != "item-p1" || view.Lines[0].ProductID != "p1" || view.Lines[0].Source != constants.CartSourceDraft {
		t.Fatalf("checkout should see the draft line, got %+v", view.Lines[0])
	}
	if view.Total.String() != "178.00" {
		t.Fatalf("total want 178.00 got %s", view.Total.String())
	}
}

func TestUpdateQty(t *testing.T) {
	store := session.NewMemoryStore()
	flow := NewFlow(&fakeOrderGateway{}, store, nil, false)
	seedCart(t, store, "sess-1",
		models.CartLine{ID: "p1", SKU: "SKU1", Price: price("5.00"), Qty: 1},
	)

	view, err := flow.UpdateQty(context.Background(), "sess-1", "p1", 3)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if view.Lines[0].Qty != 3 {
		t.Fatalf("qty want 3 got %d", view.Lines[0].Qty)
	}

	if _, err := flow.UpdateQty(context.Background(), "sess-1", "ghost", 2); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("want ErrLineNotFound got %v", err)
	}
	if _, err := flow.UpdateQty(context.Background(), "sess-1", "p1", 0); !errors.Is(err, ErrInvalidQty) {
		t.Fatalf("want ErrInvalidQty got %v", err)
	}
	if _, err := flow.UpdateQty(context.Background(), "sess-1", "p1", constants.CartQtyMax+1); !errors.Is(err, ErrInvalidQty) {
		t.Fatalf("over max want ErrInvalidQty got %v", err)
	}
}

func TestRemoveLineAbsentIsNoop(t *testing.T) {
	store := session.NewMemoryStore()
	flow := NewFlow(&fakeOrderGateway{}, store, nil, false)
	seedCart(t, store, "sess-1",
		models.CartLine{ID: "p1", Price: price("5.00"), Qty: 1},
	)

	view, err := flow.RemoveLine(context.Background(), "sess-1", "ghost")
	if err != nil {
		t.Fatalf("absent remove should be noop, got %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("view should keep existing line, got %d lines", len(view.Lines))
	}

	view, err = flow.RemoveLine(context.Background(), "sess-1", "p1")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("line should be removed, got %d lines", len(view.Lines))
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	store := session.NewMemoryStore()
	flow := NewFlow(&fakeOrderGateway{}, store, nil, false)
	ctx := context.Background()

	if _, err := flow.PlaceOrder(ctx, validOrderInput("sess-1")); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty cart want ErrEmptyCart got %v", err)
	}

	seedCart(t, store, "sess-1", models.CartLine{ID: "p1", SKU: "SKU1", Price: price("5.00"), Qty: 1})

	input := validOrderInput("sess-1")
	input.AccountID = "  "
	if _, err := flow.PlaceOrder(ctx, input); !errors.Is(err, ErrAccountRequired) {
		t.Fatalf("want ErrAccountRequired got %v", err)
	}

	input = validOrderInput("sess-1")
	input.ContractID = ""
	if _, err := flow.PlaceOrder(ctx, input); !errors.Is(err, ErrContractRequired) {
		t.Fatalf("want ErrContractRequired got %v", err)
	}

	seedCart(t, store, "sess-1", models.CartLine{ID: "p1", SKU: "  ", Price: price("5.00"), Qty: 1})
	if _, err := flow.PlaceOrder(ctx, validOrderInput("sess-1")); !errors.Is(err, ErrInvalidSKU) {
		t.Fatalf("want ErrInvalidSKU got %v", err)
	}

	seedCart(t, store, "sess-1", models.CartLine{ID: "p1", SKU: "SKU1", Price: price("5.00"), Qty: 0})
	if _, err := flow.PlaceOrder(ctx, validOrderInput("sess-1")); !errors.Is(err, ErrInvalidQty) {
		t.Fatalf("want ErrInvalidQty got %v", err)
	}
}

func TestPlaceOrderClearsCartKeepsAccount(t *testing.T) {
	store := session.NewMemoryStore()
	gw := &fakeOrderGateway{}
	docs := &fakeEnqueuer{}
	flow := NewFlow(gw, store, docs, true)
	ctx := context.Background()

	seedCart(t, store, "sess-1",
		models.CartLine{ID: "p1", SKU: "SKU1", Price: price("5.00"), Qty: 2},
		models.CartLine{ID: "p2", SKU: "SKU2", Price: price("7.50"), Qty: 1},
	)

	result, err := flow.PlaceOrder(ctx, validOrderInput("sess-1"))
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if result.OrderID != "order-1" || result.LineItemCount != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if gw.createInput == nil || len(gw.createInput.Items) != 2 {
		t.Fatalf("gateway should receive both items")
	}

	// 购物车清空，账户上下文保留
	lines, _ := store.LoadCart(ctx, "sess-1")
	if len(lines) != 0 {
		t.Fatalf("cart should be cleared, got %d lines", len(lines))
	}
	account, _ := store.LoadAccount(ctx, "sess-1")
	if account != "acc-1" {
		t.Fatalf("account context want acc-1 got %s", account)
	}

	docs.mu.Lock()
	defer docs.mu.Unlock()
	if len(docs.payloads) != 1 || docs.payloads[0].OrderID != "order-1" {
		t.Fatalf("document task should be enqueued, got %+v", docs.payloads)
	}
}

func TestPlaceOrderSendsProductIDs(t *testing.T) {
	store := session.NewMemoryStore()
	gw := &fakeOrderGateway{}
	flow := NewFlow(gw, store, nil, false)
	ctx := context.Background()

	// 草稿行的 ID 是订单项 ID，下单必须用 ProductID；live 行回退到行 ID
	seedCart(t, store, "sess-1",
		models.CartLine{ID: "item-77", ProductID: "p1", SKU: "SKU1", Price: price("5.00"), Qty: 1, Source: constants.CartSourceDraft},
		models.CartLine{ID: "p2", SKU: "SKU2", Price: price("7.50"), Qty: 1, Source: constants.CartSourceLive},
	)

	if _, err := flow.PlaceOrder(ctx, validOrderInput("sess-1")); err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if gw.createInput == nil || len(gw.createInput.Items) != 2 {
		t.Fatalf("gateway should receive both items, got %+v", gw.createInput)
	}
	if got := gw.createInput.Items[0].ProductID; got != "p1" {
		t.Fatalf("draft line product id want p1 got %s", got)
	}
	if got := gw.createInput.Items[1].ProductID; got != "p2" {
		t.Fatalf("live line product id want p2 got %s", got)
	}
}

func TestPlaceOrderPrefillsAddressesFromAccount(t *testing.T) {
	store := session.NewMemoryStore()
	gw := &fakeOrderGateway{account: &models.Account{
		ID:              "acc-1",
		Name:            "Acme",
		BillingAddress:  models.Address{Street: "2 Bill St", City: "Delft", PostalCode: "2600", Country: "NL"},
		ShippingAddress: models.Address{Street: "3 Ship St", City: "Leiden", PostalCode: "2300", Country: "NL"},
	}}
	flow := NewFlow(gw, store, nil, false)
	ctx := context.Background()

	seedCart(t, store, "sess-1", models.CartLine{ID: "p1", SKU: "SKU1", Price: price("5.00"), Qty: 1})

	input := validOrderInput("sess-1")
	input.BillingAddress = models.Address{}
	input.ShippingAddress = models.Address{}
	if _, err := flow.PlaceOrder(ctx, input); err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if gw.createInput.BillingAddress.City != "Delft" {
		t.Fatalf("billing address should come from account profile, got %+v", gw.createInput.BillingAddress)
	}
	if gw.createInput.ShippingAddress.City != "Leiden" {
		t.Fatalf("shipping address should come from account profile, got %+v", gw.createInput.ShippingAddress)
	}
}

func TestPlaceOrderRemoteFailureKeepsCart(t *testing.T) {
	store := session.NewMemoryStore()
	gw := &fakeOrderGateway{createErr: &gateway.RemoteError{Procedure: "createOrderFromCart", Message: "boom"}}
	flow := NewFlow(gw, store, nil, false)
	ctx := context.Background()

	seedCart(t, store, "sess-1", models.CartLine{ID: "p1", SKU: "SKU1", Price: price("5.00"), Qty: 1})
	if _, err := flow.PlaceOrder(ctx, validOrderInput("sess-1")); !errors.Is(err, gateway.ErrRemoteCall) {
		t.Fatalf("want remote call error got %v", err)
	}
	lines, _ := store.LoadCart(ctx, "sess-1")
	if len(lines) != 1 {
		t.Fatalf("cart should survive remote failure, got %d lines", len(lines))
	}
}
