package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// Order is a franchise purchase order against warehouse stock.
type Order struct {
	ID                int64             `gorm:"column:id;primaryKey;autoIncrement:false"`
	FranchiseID       string            `gorm:"column:franchise_id;type:text;not null;index"`
	OutletName        string            `gorm:"column:outlet_name;type:text;not null"`
	PlacedBy          uuid.UUID         `gorm:"column:placed_by;type:uuid;not null"`
	Status            enums.OrderStatus `gorm:"column:status;type:text;not null"`
	TotalAmount       decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,2);not null"`
	ItemsCount        int               `gorm:"column:items_count;not null"`
	ItemsSummary      string            `gorm:"column:items_summary;type:text;not null"`
	ChallanUploaded   bool              `gorm:"column:challan_uploaded;not null;default:false"`
	ChallanUploadedAt *time.Time        `gorm:"column:challan_uploaded_at"`
	CreatedAt         time.Time         `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is one order line with its price locked at creation.
type OrderItem struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     int64           `gorm:"column:order_id;not null;index"`
	ProductID   int64           `gorm:"column:product_id;not null"`
	ProductName string          `gorm:"column:product_name;type:text;not null"`
	Unit        string          `gorm:"column:unit;type:text;not null"`
	Quantity    int64           `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(14,2);not null"`
}

func (OrderItem) TableName() string { return "order_items" }
