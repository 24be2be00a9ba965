package platform

import (
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	SKU         string       `gorm:"uniqueIndex;not null" json:"sku"`
	Name        string       `gorm:"index;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	Family      string       `gorm:"index" json:"family,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
	Price       models.Money `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
	Currency    string       `gorm:"size:8" json:"currency,omitempty"`
	IsActive    bool         `gorm:"index;not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// PriceBookEntry 价格手册条目表
type PriceBookEntry struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	PricebookID string       `gorm:"index;size:36" json:"pricebook_id"`
	ProductID   string       `gorm:"index;size:36;not null" json:"product_id"`
	SKU         string       `gorm:"index;not null" json:"sku"`
	UnitPrice   models.Money `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Account 账户表
type Account struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	Name               string    `gorm:"not null" json:"name"`
	AccountNumber      string    `gorm:"uniqueIndex" json:"account_number"`
	BillingStreet      string    `json:"billing_street,omitempty"`
	BillingCity        string    `json:"billing_city,omitempty"`
	BillingState       string    `json:"billing_state,omitempty"`
	BillingPostalCode  string    `json:"billing_postal_code,omitempty"`
	BillingCountry     string    `json:"billing_country,omitempty"`
	ShippingStreet     string    `json:"shipping_street,omitempty"`
	ShippingCity       string    `json:"shipping_city,omitempty"`
	ShippingState      string    `json:"shipping_state,omitempty"`
	ShippingPostalCode string    `json:"shipping_postal_code,omitempty"`
	ShippingCountry    string    `json:"shipping_country,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Contract 合同表
type Contract struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	AccountID      string    `gorm:"index;size:36;not null" json:"account_id"`
	ContractNumber string    `gorm:"uniqueIndex" json:"contract_number"`
	Status         string    `gorm:"index;not null" json:"status"`
	StartDate      string    `gorm:"size:10" json:"start_date,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Order 订单表（Draft 为每账户至多一张的草稿）
type Order struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	OrderNo            string    `gorm:"uniqueIndex" json:"order_no"`
	AccountID          string    `gorm:"index;size:36;not null" json:"account_id"`
	ContractID         string    `gorm:"index;size:36" json:"contract_id,omitempty"`
	Status             string    `gorm:"index;not null" json:"status"`
	BillingStreet      string    `json:"billing_street,omitempty"`
	BillingCity        string    `json:"billing_city,omitempty"`
	BillingState       string    `json:"billing_state,omitempty"`
	BillingPostalCode  string    `json:"billing_postal_code,omitempty"`
	BillingCountry     string    `json:"billing_country,omitempty"`
	ShippingStreet     string    `json:"shipping_street,omitempty"`
	ShippingCity       string    `json:"shipping_city,omitempty"`
	ShippingState      string    `json:"shipping_state,omitempty"`
	ShippingPostalCode string    `json:"shipping_postal_code,omitempty"`
	ShippingCountry    string    `json:"shipping_country,omitempty"`
	ActivatedAt        *time.Time `json:"activated_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem 订单项表
type OrderItem struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	OrderID   string       `gorm:"index;size:36;not null" json:"order_id"`
	ProductID string       `gorm:"index;size:36;not null" json:"product_id"`
	SKU       string       `gorm:"index;not null" json:"sku"`
	Name      string       `json:"name"`
	UnitPrice models.Money `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	Qty       int          `gorm:"not null;default:1" json:"qty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// OrderDocument 订单文档表
type OrderDocument struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID   string    `gorm:"index;size:36;not null" json:"order_id"`
	Kind      string    `gorm:"size:32;not null" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (e *PriceBookEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderNo == "" {
		o.OrderNo = newOrderNo()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (d *OrderDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// IsDraft 判断订单是否为草稿
func (o Order) IsDraft() bool {
	return o.Status == constants.OrderStatusDraft
}

func newOrderNo() string {
	return "SO-" + time.Now().UTC().Format("20060102") + "-" + uuid.NewString()[:8]
}
