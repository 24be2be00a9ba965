package platform

import (
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// Seed 写入演示数据（仅当商品表为空时）
func Seed(db *gorm.DB, pricebookID string) error {
	var count int64
	if err := db.Model(&Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []Product{
		{SKU: "KB-0001", Name: "Mechanical Keyboard", Description: "87-key hot-swappable board", Family: "Peripherals", Price: money("89.00"), Currency: "USD", IsActive: true},
		{SKU: "MS-0002", Name: "Wireless Mouse", Description: "Low-latency 2.4G mouse", Family: "Peripherals", Price: money("39.50"), Currency: "USD", IsActive: true},
		{SKU: "MN-0003", Name: "27in Monitor", Description: "QHD IPS panel", Family: "Displays", Price: money("249.00"), Currency: "USD", IsActive: true},
		{SKU: "DK-0004", Name: "USB-C Dock", Description: "Dual display dock", Family: "Accessories", Price: money("129.00"), Currency: "USD", IsActive: true},
		{SKU: "HS-0005", Name: "Noise Cancelling Headset", Description: "Over-ear headset with mic", Family: "Audio", Price: money("159.00"), Currency: "USD", IsActive: true},
		{SKU: "CB-0006", Name: "Braided USB-C Cable", Description: "2m 100W cable", Family: "Accessories", Price: money("12.90"), Currency: "USD", IsActive: true},
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}

	entries := make([]PriceBookEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, PriceBookEntry{
			PricebookID: pricebookID,
			ProductID:   p.ID,
			SKU:         p.SKU,
			UnitPrice:   p.Price,
			IsActive:    true,
		})
	}
	if err := db.Create(&entries).Error; err != nil {
		return err
	}

	account := Account{
		Name:              "Acme Industrial",
		AccountNumber:     "ACC-1001",
		BillingStreet:     "1 Factory Road",
		BillingCity:       "Rotterdam",
		BillingPostalCode: "3011",
		BillingCountry:    "NL",
		ShippingStreet:    "1 Factory Road",
		ShippingCity:      "Rotterdam",
		ShippingPostalCode: "3011",
		ShippingCountry:   "NL",
	}
	if err := db.Create(&account).Error; err != nil {
		return err
	}
	contracts := []Contract{
		{AccountID: account.ID, ContractNumber: "CTR-2026-001", Status: "Activated", StartDate: "2026-01-01"},
		{AccountID: account.ID, ContractNumber: "CTR-2026-002", Status: "Draft", StartDate: "2026-06-01"},
	}
	if err := db.Create(&contracts).Error; err != nil {
		return err
	}

	logger.Infow("platform_seeded",
		"products", len(products),
		"accounts", 1,
		"contracts", len(contracts),
	)
	return nil
}

func money(amount string) models.Money {
	m, _ := models.NewMoneyFromString(amount)
	return m
}
