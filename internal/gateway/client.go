package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
)

// Client 订单平台 HTTP 客户端
type Client struct {
	baseURL     string
	pricebookID string
	httpClient  *http.Client
	auth        *tokenSource
}

// envelope 平台统一响应包裹
type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

// NewClient 创建平台客户端
func NewClient(cfg config.GatewayConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("gateway base_url is empty")
	}
	httpClient := &http.Client{Timeout: cfg.Timeout()}
	c := &Client{
		baseURL:     base,
		pricebookID: strings.TrimSpace(cfg.PricebookID),
		httpClient:  httpClient,
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Auth.Mode), "jwt_bearer") {
		auth, err := newTokenSource(cfg.Auth, httpClient)
		if err != nil {
			return nil, err
		}
		c.auth = auth
	}
	return c, nil
}

// CreateOrderFromCart 用购物车行创建正式订单
func (c *Client) CreateOrderFromCart(ctx context.Context, input CreateOrderInput) (*models.OrderResult, error) {
	var result models.OrderResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/orders", input, &result, "createOrderFromCart"); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddToOrder 向账户草稿订单追加一行
func (c *Client) AddToOrder(ctx context.Context, input AddToOrderInput) (string, error) {
	var result struct {
		ItemID string `json:"item_id"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/orders/draft/items", input, &result, "addToOrder"); err != nil {
		return "", err
	}
	return result.ItemID, nil
}

// RemoveOrderItem 删除草稿订单行
func (c *Client) RemoveOrderItem(ctx context.Context, orderItemID string) error {
	path := "/api/v1/orders/draft/items/" + url.PathEscape(orderItemID)
	return c.call(ctx, http.MethodDelete, path, nil, nil, "removeOrderItem")
}

// GetOrdersForAccount 获取账户订单及行
func (c *Client) GetOrdersForAccount(ctx context.Context, accountID string) ([]models.DraftOrder, error) {
	path := "/api/v1/orders?account_id=" + url.QueryEscape(accountID)
	var orders []models.DraftOrder
	if err := c.call(ctx, http.MethodGet, path, nil, &orders, "getOrdersForAccount"); err != nil {
		return nil, err
	}
	return orders, nil
}

// FetchProducts 分页获取商品
func (c *Client) FetchProducts(ctx context.Context, query ProductQuery) (*models.ProductPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(query.PageNumber))
	params.Set("page_size", strconv.Itoa(query.PageSize))
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	for _, family := range query.Families {
		params.Add("family", family)
	}
	if query.SortField != "" {
		params.Set("sort_field", query.SortField)
	}
	if query.SortDir != "" {
		params.Set("sort_dir", query.SortDir)
	}
	var page models.ProductPage
	if err := c.call(ctx, http.MethodGet, "/api/v1/products?"+params.Encode(), nil, &page, "fetchProducts"); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchProductFamilies 获取商品系列名称列表
func (c *Client) FetchProductFamilies(ctx context.Context) ([]string, error) {
	var families []string
	if err := c.call(ctx, http.MethodGet, "/api/v1/products/families", nil, &families, "fetchProductFamilies"); err != nil {
		return nil, err
	}
	return families, nil
}

// FetchPriceBookEntries 按 SKU 实时获取价格手册条目
func (c *Client) FetchPriceBookEntries(ctx context.Context, skus []string) ([]models.PriceBookEntry, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	body := struct {
		SKUs        []string `json:"skus"`
		PricebookID string   `json:"pricebook_id,omitempty"`
	}{SKUs: skus, PricebookID: c.pricebookID}
	var entries []models.PriceBookEntry
	if err := c.call(ctx, http.MethodPost, "/api/v1/pricebook/entries/lookup", body, &entries, "fetchPriceBookEntries"); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetAccountInfo 获取账户信息
func (c *Client) GetAccountInfo(ctx context.Context, accountID string) (*models.Account, error) {
	path := "/api/v1/accounts/" + url.PathEscape(accountID)
	var account models.Account
	if err := c.call(ctx, http.MethodGet, path, nil, &account, "getAccountInfo"); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetContractsForAccount 获取账户合同列表
func (c *Client) GetContractsForAccount(ctx context.Context, accountID string) ([]models.Contract, error) {
	path := "/api/v1/accounts/" + url.PathEscape(accountID) + "/contracts"
	var contracts []models.Contract
	if err := c.call(ctx, http.MethodGet, path, nil, &contracts, "getContractsForAccount"); err != nil {
		return nil, err
	}
	return contracts, nil
}

// GenerateOrderDocument 为订单生成可下载文档
func (c *Client) GenerateOrderDocument(ctx context.Context, orderID string) (*models.OrderDocument, error) {
	path := "/api/v1/orders/" + url.PathEscape(orderID) + "/documents"
	var doc models.OrderDocument
	if err := c.call(ctx, http.MethodPost, path, nil, &doc, "generateOrderDocument"); err != nil {
		return nil, err
	}
	return &doc, nil
}

// call 发起一次平台调用并解析统一响应包裹
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}, procedure string) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Procedure: procedure, Err: err}
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RemoteError{Procedure: procedure, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		token, err := c.auth.Token(ctx)
		if err != nil {
			return &RemoteError{Procedure: procedure, Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Procedure: procedure, Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &RemoteError{Procedure: procedure, StatusCode: resp.StatusCode, Err: err}
	}
	if env.StatusCode != 0 {
		logger.Debugw("gateway_call_rejected",
			"procedure", procedure,
			"status_code", env.StatusCode,
			"msg", env.Msg,
		)
		remote := &RemoteError{Procedure: procedure, StatusCode: env.StatusCode, Message: env.Msg}
		if env.StatusCode == http.StatusNotFound {
			remote.Err = ErrNotFound
		}
		return remote
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &RemoteError{Procedure: procedure, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}
