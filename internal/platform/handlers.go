package platform

import (
	"errors"
	"strconv"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/models"

	"github.com/gin-gonic/gin"
)

// Handler 平台模拟器 HTTP 处理器
type Handler struct {
	store       *Store
	baseURL     string
	pricebookID string
}

// NewHandler 创建平台处理器
func NewHandler(store *Store, baseURL, pricebookID string) *Handler {
	return &Handler{store: store, baseURL: baseURL, pricebookID: pricebookID}
}

// Register 注册平台路由
func (h *Handler) Register(r *gin.Engine) {
	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/products", h.listProducts)
		apiV1.GET("/products/families", h.listFamilies)
		apiV1.POST("/pricebook/entries/lookup", h.lookupPriceEntries)
		apiV1.GET("/accounts/:id", h.getAccount)
		apiV1.GET("/accounts/:id/contracts", h.listContracts)
		apiV1.GET("/orders", h.listOrders)
		apiV1.POST("/orders", h.createOrder)
		apiV1.POST("/orders/draft/items", h.addDraftItem)
		apiV1.DELETE("/orders/draft/items/:id", h.removeDraftItem)
		apiV1.POST("/orders/:id/documents", h.generateDocument)
	}
}

func (h *Handler) listProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "12"))
	records, total, err := h.store.Products(ProductQuery{
		Page:      page,
		PageSize:  pageSize,
		Search:    c.Query("search"),
		Families:  c.QueryArray("family"),
		SortField: c.Query("sort_field"),
		SortDir:   c.Query("sort_dir"),
	})
	if err != nil {
		response.Error(c, response.CodeInternal, "查询商品失败")
		return
	}
	wire := make([]models.Product, 0, len(records))
	for _, p := range records {
		wire = append(wire, h.wireProduct(p))
	}
	response.Success(c, models.ProductPage{Records: wire, TotalSize: int(total)})
}

func (h *Handler) listFamilies(c *gin.Context) {
	families, err := h.store.Families()
	if err != nil {
		response.Error(c, response.CodeInternal, "查询商品系列失败")
		return
	}
	response.Success(c, families)
}

func (h *Handler) lookupPriceEntries(c *gin.Context) {
	var req struct {
		SKUs        []string `json:"skus"`
		PricebookID string   `json:"pricebook_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.CodeBadRequest, "价格查询参数无效")
		return
	}
	pricebookID := req.PricebookID
	if pricebookID == "" {
		pricebookID = h.pricebookID
	}
	entries, err := h.store.PriceEntries(req.SKUs, pricebookID)
	if err != nil {
		response.Error(c, response.CodeInternal, "查询价格失败")
		return
	}
	wire := make([]models.PriceBookEntry, 0, len(entries))
	for _, e := range entries {
		wire = append(wire, models.PriceBookEntry{
			ID:          e.ID,
			PricebookID: e.PricebookID,
			ProductID:   e.ProductID,
			SKU:         e.SKU,
			UnitPrice:   e.UnitPrice,
			IsActive:    e.IsActive,
		})
	}
	response.Success(c, wire)
}

func (h *Handler) getAccount(c *gin.Context) {
	account, err := h.store.AccountByID(c.Param("id"))
	if errors.Is(err, ErrRecordNotFound) {
		response.NotFound(c, "账户不存在")
		return
	}
	if err != nil {
		response.Error(c, response.CodeInternal, "查询账户失败")
		return
	}
	response.Success(c, wireAccount(*account))
}

func (h *Handler) listContracts(c *gin.Context) {
	contracts, err := h.store.ContractsForAccount(c.Param("id"))
	if err != nil {
		response.Error(c, response.CodeInternal, "查询合同失败")
		return
	}
	wire := make([]models.Contract, 0, len(contracts))
	for _, ct := range contracts {
		wire = append(wire, models.Contract{
			ID:             ct.ID,
			AccountID:      ct.AccountID,
			ContractNumber: ct.ContractNumber,
			Status:         ct.Status,
			StartDate:      ct.StartDate,
		})
	}
	response.Success(c, wire)
}

func (h *Handler) listOrders(c *gin.Context) {
	accountID := c.Query("account_id")
	if accountID == "" {
		response.Error(c, response.CodeBadRequest, "缺少账户标识")
		return
	}
	orders, err := h.store.OrdersForAccount(accountID)
	if err != nil {
		response.Error(c, response.CodeInternal, "查询订单失败")
		return
	}
	wire := make([]models.DraftOrder, 0, len(orders))
	for _, o := range orders {
		wire = append(wire, wireOrder(o))
	}
	response.Success(c, wire)
}

func (h *Handler) createOrder(c *gin.Context) {
	var req struct {
		AccountID       string         `json:"account_id"`
		ContractID      string         `json:"contract_id"`
		BillingAddress  models.Address `json:"billing_address"`
		ShippingAddress models.Address `json:"shipping_address"`
		Items           []struct {
			ProductID string       `json:"product_id"`
			SKU       string       `json:"sku"`
			Qty       int          `json:"qty"`
			UnitPrice models.Money `json:"unit_price"`
		} `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.CodeBadRequest, "下单参数无效")
		return
	}

	input := CreateOrderInput{
		AccountID:       req.AccountID,
		ContractID:      req.ContractID,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, CreateOrderItemInput{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := h.store.CreateOrder(input)
	switch {
	case errors.Is(err, ErrEmptyOrder):
		response.Error(c, response.CodeBadRequest, "订单没有任何行")
	case errors.Is(err, ErrRecordNotFound):
		response.NotFound(c, "账户不存在")
	case err != nil:
		response.Error(c, response.CodeInternal, "创建订单失败")
	default:
		response.Success(c, models.OrderResult{
			OrderID:       order.ID,
			OrderNo:       order.OrderNo,
			LineItemCount: len(order.Items),
		})
	}
}

func (h *Handler) addDraftItem(c *gin.Context) {
	var req struct {
		AccountID string       `json:"account_id"`
		ProductID string       `json:"product_id"`
		UnitPrice models.Money `json:"unit_price"`
		Qty       int          `json:"qty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.CodeBadRequest, "加行参数无效")
		return
	}
	if req.AccountID == "" || req.ProductID == "" {
		response.Error(c, response.CodeBadRequest, "缺少账户或商品标识")
		return
	}
	itemID, err := h.store.AddDraftItem(req.AccountID, req.ProductID, req.UnitPrice, req.Qty)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		response.NotFound(c, "商品不存在")
	case err != nil:
		response.Error(c, response.CodeInternal, "草稿订单加行失败")
	default:
		response.Success(c, gin.H{"item_id": itemID})
	}
}

func (h *Handler) removeDraftItem(c *gin.Context) {
	err := h.store.RemoveDraftItem(c.Param("id"))
	switch {
	case errors.Is(err, ErrRecordNotFound):
		response.NotFound(c, "订单项不存在")
	case err != nil:
		response.Error(c, response.CodeInternal, "删除订单项失败")
	default:
		response.Success(c, nil)
	}
}

func (h *Handler) generateDocument(c *gin.Context) {
	doc, err := h.store.GenerateDocument(c.Param("id"))
	switch {
	case errors.Is(err, ErrRecordNotFound):
		response.NotFound(c, "订单不存在")
	case err != nil:
		response.Error(c, response.CodeInternal, "生成文档失败")
	default:
		response.Success(c, models.OrderDocument{
			ID:          doc.ID,
			OrderID:     doc.OrderID,
			Kind:        doc.Kind,
			DownloadURL: h.baseURL + "/api/v1/documents/" + doc.ID,
		})
	}
}

func (h *Handler) wireProduct(p Product) models.Product {
	return models.Product{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Family:      p.Family,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Currency:    p.Currency,
		IsActive:    p.IsActive,
	}
}

func wireAccount(a Account) models.Account {
	return models.Account{
		ID:            a.ID,
		Name:          a.Name,
		AccountNumber: a.AccountNumber,
		BillingAddress: models.Address{
			Street:     a.BillingStreet,
			City:       a.BillingCity,
			State:      a.BillingState,
			PostalCode: a.BillingPostalCode,
			Country:    a.BillingCountry,
		},
		ShippingAddress: models.Address{
			Street:     a.ShippingStreet,
			City:       a.ShippingCity,
			State:      a.ShippingState,
			PostalCode: a.ShippingPostalCode,
			Country:    a.ShippingCountry,
		},
	}
}

func wireOrder(o Order) models.DraftOrder {
	items := make([]models.DraftOrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, models.DraftOrderItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
		})
	}
	return models.DraftOrder{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		AccountID: o.AccountID,
		Status:    o.Status,
		Items:     items,
	}
}
