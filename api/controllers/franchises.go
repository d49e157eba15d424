package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/internal/agreements"
	"github.com/angelmondragon/stockledger-backend/internal/users"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

type franchiseLister interface {
	ListFranchises(ctx context.Context) ([]models.Account, error)
}

type agreementReader interface {
	Status(ctx context.Context, franchiseID string) (agreements.Status, error)
}

// ListFranchises returns franchise accounts without credentials.
func ListFranchises(repo franchiseLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			serviceUnavailable(w, r, logg, "account store")
			return
		}
		accounts, err := repo.ListFranchises(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list franchises"))
			return
		}
		out := make([]users.FranchiseDTO, 0, len(accounts))
		for _, account := range accounts {
			out = append(out, users.FranchiseFromModel(account))
		}
		responses.WriteSuccess(w, out)
	}
}

// AgreementStatus reports the caller's agreement window and whether it is still active.
func AgreementStatus(gate agreementReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gate == nil {
			serviceUnavailable(w, r, logg, "agreement gate")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		if !actor.IsFranchiseOwner() || actor.FranchiseID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "franchise account required"))
			return
		}
		status, err := gate.Status(r.Context(), actor.FranchiseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
