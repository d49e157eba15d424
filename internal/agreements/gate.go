// Package agreements decides whether a franchise may trade on a given date.
package agreements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	StateActive  = "Active"
	StateExpired = "Expired"
)

// Status is the agreement window as shown to the franchise owner.
type Status struct {
	FranchiseID string     `json:"franchise_id"`
	OutletName  string     `json:"outlet_name"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Status      string     `json:"status"`
}

// IsValid is false when the end date is missing or already passed at the given instant.
func IsValid(account *models.Account, at time.Time) bool {
	if account == nil || account.AgreementEndDate == nil {
		return false
	}
	return !account.AgreementEndDate.Before(at)
}

// Require fails with AgreementExpired unless IsValid holds.
func Require(account *models.Account, at time.Time) error {
	if IsValid(account, at) {
		return nil
	}
	msg := "franchise agreement has expired"
	if account != nil && account.FranchiseID != nil {
		msg = fmt.Sprintf("franchise agreement for %s has expired", *account.FranchiseID)
	}
	return pkgerrors.New(pkgerrors.CodeAgreementExpired, msg)
}

// StatusOf reports the account's window and whether it is active at the instant.
func StatusOf(account *models.Account, at time.Time) Status {
	out := Status{Status: StateExpired}
	if account == nil {
		return out
	}
	out.FranchiseID = account.FranchiseCode()
	out.OutletName = account.Outlet()
	out.StartDate = account.AgreementStartDate
	out.EndDate = account.AgreementEndDate
	if IsValid(account, at) {
		out.Status = StateActive
	}
	return out
}

type accountLookup interface {
	FindByFranchiseID(ctx context.Context, franchiseID string) (*models.Account, error)
}

// Gate resolves franchise accounts and applies the agreement rules to them.
type Gate struct {
	accounts accountLookup
	now      func() time.Time
}

func NewGate(accounts accountLookup, now func() time.Time) (*Gate, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account lookup required")
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{accounts: accounts, now: now}, nil
}

// RequireFranchise loads the franchise and checks its agreement against the
// wall clock. A franchise without an account has no agreement.
func (g *Gate) RequireFranchise(ctx context.Context, franchiseID string) error {
	account, err := g.load(ctx, franchiseID)
	if err != nil {
		return err
	}
	if account == nil {
		return pkgerrors.Newf(pkgerrors.CodeAgreementExpired, "no agreement on file for franchise %s", franchiseID)
	}
	return Require(account, g.now())
}

// Status returns the agreement status of a franchise.
func (g *Gate) Status(ctx context.Context, franchiseID string) (Status, error) {
	account, err := g.load(ctx, franchiseID)
	if err != nil {
		return Status{}, err
	}
	if account == nil {
		return Status{}, pkgerrors.New(pkgerrors.CodeNotFound, "franchise not found")
	}
	return StatusOf(account, g.now()), nil
}

func (g *Gate) load(ctx context.Context, franchiseID string) (*models.Account, error) {
	if franchiseID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "franchise id is required")
	}
	account, err := g.accounts.FindByFranchiseID(ctx, franchiseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load franchise account")
	}
	return account, nil
}
