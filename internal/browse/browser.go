// Package browse 商品浏览：分页、搜索、系列过滤，以及价格手册实时价覆盖。
package browse

import (
	"context"
	"strings"
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
)

const familyCacheKey = "browse:families"

// Browser 商品浏览服务
type Browser struct {
	gw              gateway.OrderGateway
	defaultPageSize int
	maxPageSize     int
	familyCacheTTL  time.Duration
}

// NewBrowser 创建商品浏览服务
func NewBrowser(gw gateway.OrderGateway, defaultPageSize, maxPageSize, familyCacheSeconds int) *Browser {
	if defaultPageSize <= 0 {
		defaultPageSize = 12
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	ttl := 60 * time.Second
	if familyCacheSeconds > 0 {
		ttl = time.Duration(familyCacheSeconds) * time.Second
	}
	return &Browser{
		gw:              gw,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		familyCacheTTL:  ttl,
	}
}

// ListProducts 分页获取商品并用价格手册实时价覆盖标价。
// 同页内按商品 ID 去重，保证视图无重复行。
func (b *Browser) ListProducts(ctx context.Context, query gateway.ProductQuery) (*models.ProductPage, error) {
	query = b.normalizeQuery(query)
	page, err := b.gw.FetchProducts(ctx, query)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(page.Records))
	records := make([]models.Product, 0, len(page.Records))
	for _, record := range page.Records {
		if _, dup := seen[record.ID]; dup {
			continue
		}
		seen[record.ID] = struct{}{}
		records = append(records, record)
	}
	page.Records = records

	b.overlayPrices(ctx, page.Records)
	return page, nil
}

// ListFamilies 获取商品系列名称，短 TTL 缓存
func (b *Browser) ListFamilies(ctx context.Context) ([]string, error) {
	var cached []string
	hit, err := cache.GetJSON(ctx, familyCacheKey, &cached)
	if err == nil && hit {
		return cached, nil
	}
	if err != nil {
		// 缓存条目损坏：丢弃后回源重建
		logger.Warnw("browse_family_cache_read_failed", "error", err)
		if derr := cache.Del(ctx, familyCacheKey); derr != nil {
			logger.Warnw("browse_family_cache_drop_failed", "error", derr)
		}
	}
	families, err := b.gw.FetchProductFamilies(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, familyCacheKey, families, b.familyCacheTTL); err != nil {
		logger.Warnw("browse_family_cache_write_failed", "error", err)
	}
	return families, nil
}

// overlayPrices 用价格手册条目覆盖列表价；查价失败保留标价，不阻断浏览
func (b *Browser) overlayPrices(ctx context.Context, records []models.Product) {
	if len(records) == 0 {
		return
	}
	skus := make([]string, 0, len(records))
	for _, record := range records {
		if record.SKU != "" {
			skus = append(skus, record.SKU)
		}
	}
	if len(skus) == 0 {
		return
	}
	entries, err := b.gw.FetchPriceBookEntries(ctx, skus)
	if err != nil {
		logger.Warnw("browse_pbe_lookup_failed", "sku_count", len(skus), "error", err)
		return
	}
	bySKU := make(map[string]models.Money, len(entries))
	for _, entry := range entries {
		if entry.IsActive {
			bySKU[entry.SKU] = entry.UnitPrice
		}
	}
	for i := range records {
		if price, ok := bySKU[records[i].SKU]; ok {
			records[i].Price = price
		}
	}
}

func (b *Browser) normalizeQuery(query gateway.ProductQuery) gateway.ProductQuery {
	if query.PageNumber < 1 {
		query.PageNumber = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = b.defaultPageSize
	}
	if query.PageSize > b.maxPageSize {
		query.PageSize = b.maxPageSize
	}
	query.Search = strings.TrimSpace(query.Search)

	families := make([]string, 0, len(query.Families))
	seen := make(map[string]struct{}, len(query.Families))
	for _, family := range query.Families {
		family = strings.TrimSpace(family)
		if family == "" {
			continue
		}
		if _, dup := seen[family]; dup {
			continue
		}
		seen[family] = struct{}{}
		families = append(families, family)
	}
	query.Families = families

	if query.SortField == "" {
		query.SortField = constants.ProductSortFieldName
	}
	if !strings.EqualFold(query.SortDir, constants.SortDirectionDesc) {
		query.SortDir = constants.SortDirectionAsc
	} else {
		query.SortDir = constants.SortDirectionDesc
	}
	return query
}
