package models

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// ErrLedgerImmutable is returned by the hooks guarding ledger rows against mutation.
var ErrLedgerImmutable = errors.New("ledger entries are immutable")

// LedgerEntry is one immutable stock movement.
type LedgerEntry struct {
	ID          int64              `gorm:"column:id;primaryKey;autoIncrement:false"`
	Type        enums.MovementType `gorm:"column:type;type:text;not null"`
	Quantity    int64              `gorm:"column:quantity;not null"`
	ProductID   int64              `gorm:"column:product_id;not null;index"`
	ProductName string             `gorm:"column:product_name;type:text;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;not null"`
	PerformedBy string             `gorm:"column:performed_by;type:text;not null"`
	Reference   string             `gorm:"column:reference;type:text;not null"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (LedgerEntry) BeforeUpdate(*gorm.DB) error { return ErrLedgerImmutable }

func (LedgerEntry) BeforeDelete(*gorm.DB) error { return ErrLedgerImmutable }
