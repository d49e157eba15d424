package auth

import (
	"fmt"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the authenticated identity a domain operation runs on behalf of.
type Actor struct {
	AccountID   uuid.UUID
	Email       string
	Role        enums.AccountRole
	FranchiseID string
}

func (a Actor) IsManager() bool {
	return a.Role == enums.AccountRoleWarehouseManager
}

func (a Actor) IsFranchiseOwner() bool {
	return a.Role == enums.AccountRoleFranchiseOwner
}

// PerformedBy renders the actor the way ledger rows record it.
func (a Actor) PerformedBy() string {
	if a.IsManager() {
		return fmt.Sprintf("Manager (%s)", a.Email)
	}
	return fmt.Sprintf("Franchise %s (%s)", a.FranchiseID, a.Email)
}

// ActorFromClaims maps verified token claims onto an Actor.
func ActorFromClaims(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{
		AccountID:   claims.AccountID,
		Email:       claims.Email,
		Role:        claims.Role,
		FranchiseID: claims.FranchiseID,
	}
}
