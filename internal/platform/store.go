package platform

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound 记录不存在
	ErrRecordNotFound = errors.New("platform record not found")
	// ErrEmptyOrder 订单没有任何行
	ErrEmptyOrder = errors.New("order has no items")
)

// Store 平台数据访问层
type Store struct {
	db *gorm.DB
}

// NewStore 创建数据访问层
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ProductQuery 商品查询条件
type ProductQuery struct {
	Page      int
	PageSize  int
	Search    string
	Families  []string
	SortField string
	SortDir   string
}

// Products 分页查询在售商品
func (s *Store) Products(query ProductQuery) ([]Product, int64, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = 12
	}

	tx := s.db.Model(&Product{}).Where("is_active = ?", true)
	if search := strings.TrimSpace(query.Search); search != "" {
		like := "%" + search + "%"
		tx = tx.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if len(query.Families) > 0 {
		tx = tx.Where("family IN ?", query.Families)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tx = tx.Order(productOrderClause(query.SortField, query.SortDir))
	var records []Product
	offset := (query.Page - 1) * query.PageSize
	if err := tx.Offset(offset).Limit(query.PageSize).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func productOrderClause(field, dir string) string {
	column := "name"
	if field == constants.ProductSortFieldPrice {
		column = "price"
	}
	direction := "ASC"
	if strings.EqualFold(dir, constants.SortDirectionDesc) {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}

// Families 在售商品的系列名称列表
func (s *Store) Families() ([]string, error) {
	var families []string
	err := s.db.Model(&Product{}).
		Where("is_active = ? AND family <> ''", true).
		Distinct("family").
		Order("family ASC").
		Pluck("family", &families).Error
	if err != nil {
		return nil, err
	}
	return families, nil
}

// PriceEntries 按 SKU 查询价格手册条目
func (s *Store) PriceEntries(skus []string, pricebookID string) ([]PriceBookEntry, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	tx := s.db.Where("sku IN ? AND is_active = ?", skus, true)
	if strings.TrimSpace(pricebookID) != "" {
		tx = tx.Where("pricebook_id = ?", pricebookID)
	}
	var entries []PriceBookEntry
	if err := tx.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// AccountByID 按 ID 获取账户
func (s *Store) AccountByID(id string) (*Account, error) {
	var account Account
	err := s.db.Where("id = ?", id).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ContractsForAccount 获取账户合同
func (s *Store) ContractsForAccount(accountID string) ([]Contract, error) {
	var contracts []Contract
	err := s.db.Where("account_id = ?", accountID).
		Order("contract_number ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// OrdersForAccount 获取账户订单及行
func (s *Store) OrdersForAccount(accountID string) ([]Order, error) {
	var orders []Order
	err := s.db.Preload("Items").
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// draftForAccount 获取或创建账户草稿订单
func (s *Store) draftForAccount(tx *gorm.DB, accountID string) (*Order, error) {
	var draft Order
	err := tx.Where("account_id = ? AND status = ?", accountID, constants.OrderStatusDraft).
		First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		draft = Order{AccountID: accountID, Status: constants.OrderStatusDraft}
		if err := tx.Create(&draft).Error; err != nil {
			return nil, err
		}
		return &draft, nil
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// AddDraftItem 向账户草稿订单追加一行，返回订单项 ID
func (s *Store) AddDraftItem(accountID, productID string, unitPrice models.Money, qty int) (string, error) {
	if qty < constants.CartQtyMin {
		qty = constants.CartQtyMin
	}
	var itemID string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Where("id = ?", productID).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}
		draft, err := s.draftForAccount(tx, accountID)
		if err != nil {
			return err
		}
		item := OrderItem{
			OrderID:   draft.ID,
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			UnitPrice: unitPrice,
			Qty:       qty,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		itemID = item.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return itemID, nil
}

// RemoveDraftItem 删除草稿订单行
func (s *Store) RemoveDraftItem(itemID string) error {
	result := s.db.Where("id = ?", itemID).Delete(&OrderItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	AccountID       string
	ContractID      string
	BillingAddress  models.Address
	ShippingAddress models.Address
	Items           []CreateOrderItemInput
}

// CreateOrderItemInput 下单行输入
type CreateOrderItemInput struct {
	ProductID string
	SKU       string
	Qty       int
	UnitPrice models.Money
}

// CreateOrder 创建并激活订单，同时消费账户草稿
func (s *Store) CreateOrder(input CreateOrderInput) (*Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	var created Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.accountExists(tx, input.AccountID); err != nil {
			return err
		}

		now := time.Now()
		created = Order{
			AccountID:          input.AccountID,
			ContractID:         input.ContractID,
			Status:             constants.OrderStatusActivated,
			BillingStreet:      input.BillingAddress.Street,
			BillingCity:        input.BillingAddress.City,
			BillingState:       input.BillingAddress.State,
			BillingPostalCode:  input.BillingAddress.PostalCode,
			BillingCountry:     input.BillingAddress.Country,
			ShippingStreet:     input.ShippingAddress.Street,
			ShippingCity:       input.ShippingAddress.City,
			ShippingState:      input.ShippingAddress.State,
			ShippingPostalCode: input.ShippingAddress.PostalCode,
			ShippingCountry:    input.ShippingAddress.Country,
			ActivatedAt:        &now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		for _, in := range input.Items {
			item := OrderItem{
				OrderID:   created.ID,
				ProductID: in.ProductID,
				SKU:       in.SKU,
				Name:      in.SKU,
				UnitPrice: in.UnitPrice,
				Qty:       in.Qty,
			}
			var product Product
			if err := tx.Where("id = ?", in.ProductID).First(&product).Error; err == nil {
				item.Name = product.Name
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			created.Items = append(created.Items, item)
		}

		// 下单消费草稿：删除草稿订单及其行
		var draft Order
		err := tx.Where("account_id = ? AND status = ?", input.AccountID, constants.OrderStatusDraft).
			First(&draft).Error
		if err == nil {
			if err := tx.Where("order_id = ?", draft.ID).Delete(&OrderItem{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&draft).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) accountExists(tx *gorm.DB, accountID string) (bool, error) {
	var count int64
	if err := tx.Model(&Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrRecordNotFound
	}
	return true, nil
}

// GenerateDocument 为订单生成文档记录
func (s *Store) GenerateDocument(orderID string) (*OrderDocument, error) {
	var order Order
	err := s.db.Where("id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	doc := OrderDocument{OrderID: order.ID, Kind: "invoice"}
	if err := s.db.Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}
