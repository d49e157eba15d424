package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockledger-backend/internal/agreements"
	"github.com/angelmondragon/stockledger-backend/internal/auth"
	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/internal/users"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealth(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	logg := testLogger()

	rec := serve(t, HealthLive(cfg), http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Stockledger-Env"))

	rec = serve(t, HealthReady(cfg, stubPinger{}, stubPinger{}, logg), http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, HealthReady(cfg, stubPinger{}, stubPinger{err: errors.New("connection refused")}, logg), http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "redis", decodeError(t, rec).Error.Details["dependency"])
}

type stubLedgerReader struct {
	limit   int
	product int64
}

func (s *stubLedgerReader) Query(_ context.Context, productID int64) ([]models.LedgerEntry, error) {
	s.product = productID
	return []models.LedgerEntry{{ID: 1, ProductID: productID, Type: enums.MovementTypeCreate}}, nil
}

func (s *stubLedgerReader) Recent(_ context.Context, limit int) ([]models.LedgerEntry, error) {
	s.limit = limit
	return []models.LedgerEntry{{ID: 2}, {ID: 1}}, nil
}

func TestLedgerEndpoints(t *testing.T) {
	logg := testLogger()
	reader := &stubLedgerReader{}

	rec := serve(t, RecentLedger(reader, 50, 500, logg), http.MethodGet, "/api/v1/ledger", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, reader.limit)

	rec = serve(t, RecentLedger(reader, 50, 500, logg), http.MethodGet, "/api/v1/ledger?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, reader.limit)
	var entries []ledger.EntryDTO
	decodeData(t, rec, &entries)
	assert.Equal(t, int64(2), entries[0].ID)

	rec = serve(t, RecentLedger(reader, 50, 500, logg), http.MethodGet, "/api/v1/ledger?limit=501", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, ProductLedger(reader, logg), http.MethodGet, "/api/v1/products/4/ledger", "", withParam(productIDParam, "4"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(4), reader.product)
}

type stubFranchises struct{}

func (stubFranchises) ListFranchises(context.Context) ([]models.Account, error) {
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	franchise := "F001"
	return []models.Account{{
		Email:            "owner@example.com",
		PasswordHash:     "secret-hash",
		Role:             enums.AccountRoleFranchiseOwner,
		FranchiseID:      &franchise,
		AgreementEndDate: &end,
	}}, nil
}

type stubAgreements struct{ err error }

func (s stubAgreements) Status(_ context.Context, franchiseID string) (agreements.Status, error) {
	if s.err != nil {
		return agreements.Status{}, s.err
	}
	return agreements.Status{FranchiseID: franchiseID, Status: agreements.StateActive}, nil
}

func TestListFranchises(t *testing.T) {
	rec := serve(t, ListFranchises(stubFranchises{}, testLogger()), http.MethodGet, "/api/v1/franchises", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")

	var out []users.FranchiseDTO
	decodeData(t, rec, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "F001", out[0].FranchiseID)
}

func TestAgreementStatus(t *testing.T) {
	logg := testLogger()

	rec := serve(t, AgreementStatus(stubAgreements{}, logg), http.MethodGet, "/api/v1/franchise/agreement", "", asActor(testManager))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, AgreementStatus(stubAgreements{}, logg), http.MethodGet, "/api/v1/franchise/agreement", "", asActor(testOwner))
	require.Equal(t, http.StatusOK, rec.Code)
	var status agreements.Status
	decodeData(t, rec, &status)
	assert.Equal(t, "F001", status.FranchiseID)
	assert.Equal(t, agreements.StateActive, status.Status)
}

type stubAuthService struct {
	revoked string
}

func (s *stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "token"}, nil
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.revoked = accessID
	return nil
}

func TestAuthEndpoints(t *testing.T) {
	logg := testLogger()
	svc := &stubAuthService{}

	rec := serve(t, AuthLogin(svc, logg), http.MethodPost, "/api/v1/auth/login", `{"email":"manager@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, AuthLogin(svc, logg), http.MethodPost, "/api/v1/auth/login", `{"email":"not-an-email","password":"secret"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, AuthLogout(svc, logg), http.MethodPost, "/api/v1/auth/logout", "", asActor(testManager))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.revoked)
}
