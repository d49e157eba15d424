package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

type ledgerReader interface {
	Query(ctx context.Context, productID int64) ([]models.LedgerEntry, error)
	Recent(ctx context.Context, limit int) ([]models.LedgerEntry, error)
}

// RecentLedger returns the newest entries first, honoring ?limit=.
func RecentLedger(svc ledgerReader, defaultLimit, maxLimit int, logg *logger.Logger) http.HandlerFunc {
	if defaultLimit <= 0 {
		defaultLimit = ledger.DefaultRecentLimit
	}
	if maxLimit < defaultLimit {
		maxLimit = ledger.MaxRecentLimit
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "ledger service")
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 1, maxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.NewEntryDTOs(entries))
	}
}

// ProductLedger returns the history of one product in insertion order.
func ProductLedger(svc ledgerReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "ledger service")
			return
		}
		id, err := validators.ParsePathID(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.Query(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.NewEntryDTOs(entries))
	}
}
