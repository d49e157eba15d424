package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultMinLevel      int64 = 100
	DefaultCriticalLevel int64 = 50
)

// Product is a warehouse catalog item. CurrentStock caches the ledger-derived quantity.
type Product struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name          string          `gorm:"column:name;type:text;not null;uniqueIndex"`
	Unit          string          `gorm:"column:unit;type:text;not null"`
	BasePrice     decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	CurrentStock  int64           `gorm:"column:current_stock;not null;default:0;check:chk_products_current_stock,current_stock >= 0"`
	MinLevel      int64           `gorm:"column:min_level;not null;default:100"`
	CriticalLevel int64           `gorm:"column:critical_level;not null;default:50"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
