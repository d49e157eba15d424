package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// Account is a login identity. Franchise owners carry their outlet and agreement window.
type Account struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Email              string            `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash       string            `gorm:"column:password_hash;not null"`
	Name               string            `gorm:"column:name;type:text;not null"`
	Role               enums.AccountRole `gorm:"column:role;type:text;not null"`
	FranchiseID        *string           `gorm:"column:franchise_id;type:text;uniqueIndex"`
	OutletName         *string           `gorm:"column:outlet_name;type:text"`
	AgreementStartDate *time.Time        `gorm:"column:agreement_start_date"`
	AgreementEndDate   *time.Time        `gorm:"column:agreement_end_date"`
	LastLoginAt        *time.Time        `gorm:"column:last_login_at"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// FranchiseCode returns the franchise id or an empty string for managers.
func (a Account) FranchiseCode() string {
	if a.FranchiseID == nil {
		return ""
	}
	return *a.FranchiseID
}

// Outlet returns the outlet display name or an empty string.
func (a Account) Outlet() string {
	if a.OutletName == nil {
		return ""
	}
	return *a.OutletName
}
