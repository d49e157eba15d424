package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// AccountDTO is the transport shape that omits sensitive credentials.
type AccountDTO struct {
	ID          uuid.UUID         `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Role        enums.AccountRole `json:"role"`
	FranchiseID *string           `json:"franchise_id,omitempty"`
	OutletName  *string           `json:"outlet_name,omitempty"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// FranchiseDTO lists a franchise outlet with its agreement window.
type FranchiseDTO struct {
	FranchiseID        string     `json:"franchise_id"`
	OutletName         string     `json:"outlet_name"`
	OwnerName          string     `json:"owner_name"`
	Email              string     `json:"email"`
	AgreementStartDate *time.Time `json:"agreement_start_date,omitempty"`
	AgreementEndDate   *time.Time `json:"agreement_end_date,omitempty"`
}

// CreateAccountDTO holds the data required by the repo to persist a new account.
type CreateAccountDTO struct {
	Email              string
	PasswordHash       string
	Name               string
	Role               enums.AccountRole
	FranchiseID        *string
	OutletName         *string
	AgreementStartDate *time.Time
	AgreementEndDate   *time.Time
}

func FromModel(a *models.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		Role:        a.Role,
		FranchiseID: a.FranchiseID,
		OutletName:  a.OutletName,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

func FranchiseFromModel(a models.Account) FranchiseDTO {
	return FranchiseDTO{
		FranchiseID:        a.FranchiseCode(),
		OutletName:         a.Outlet(),
		OwnerName:          a.Name,
		Email:              a.Email,
		AgreementStartDate: a.AgreementStartDate,
		AgreementEndDate:   a.AgreementEndDate,
	}
}

func (c CreateAccountDTO) ToModel() *models.Account {
	return &models.Account{
		Email:              strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash:       c.PasswordHash,
		Name:               strings.TrimSpace(c.Name),
		Role:               c.Role,
		FranchiseID:        c.FranchiseID,
		OutletName:         c.OutletName,
		AgreementStartDate: c.AgreementStartDate,
		AgreementEndDate:   c.AgreementEndDate,
	}
}
