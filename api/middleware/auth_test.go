package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/auth"
	"github.com/angelmondragon/stockledger-backend/pkg/auth/session"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintTestToken(t, enums.AccountRoleWarehouseManager, "")
	handler := Auth(testJWT, stubSessionVerifier{ok: false}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsForeignSession(t *testing.T) {
	token := mintTestToken(t, enums.AccountRoleWarehouseManager, "")
	handler := Auth(testJWT, stubSessionVerifier{err: session.ErrOwnerMismatch}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthReportsExpiredToken(t *testing.T) {
	token, err := auth.MintAccessToken(testJWT, time.Now().Add(-3*time.Hour), auth.AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      enums.AccountRoleWarehouseManager,
		JTI:       session.NewAccessID(),
	})
	require.NoError(t, err)
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "token expired")
}

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"abc":          "abc",
		"Bearer":       "Bearer",
		"":             "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		assert.Equal(t, want, bearerToken(req), header)
	}
}

func TestAuthSessionStoreFailure(t *testing.T) {
	token := mintTestToken(t, enums.AccountRoleWarehouseManager, "")
	handler := Auth(testJWT, stubSessionVerifier{err: errors.New("redis down")}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestAuthSeedsFranchiseActor(t *testing.T) {
	token := mintTestToken(t, enums.AccountRoleFranchiseOwner, "F001")

	var (
		actor    auth.Actor
		ok       bool
		accessID string
	)
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok = ActorFromContext(r.Context())
		accessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, ok)
	assert.Equal(t, enums.AccountRoleFranchiseOwner, actor.Role)
	assert.Equal(t, "F001", actor.FranchiseID)
	assert.Equal(t, "owner@example.com", actor.Email)
	assert.NotEqual(t, uuid.Nil, actor.AccountID)
	assert.NotEmpty(t, accessID)
}

func TestAuthManagerHasNoFranchise(t *testing.T) {
	token := mintTestToken(t, enums.AccountRoleWarehouseManager, "")

	var franchise, role string
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		franchise = FranchiseIDFromContext(r.Context())
		role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, franchise)
	assert.Equal(t, string(enums.AccountRoleWarehouseManager), role)
}

func TestRequireRole(t *testing.T) {
	guard := RequireRole(nil, enums.AccountRoleWarehouseManager)(okHandler())

	managerCtx := WithActor(context.Background(), auth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleWarehouseManager})
	resp := httptest.NewRecorder()
	guard.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(managerCtx))
	assert.Equal(t, http.StatusOK, resp.Code)

	ownerCtx := WithActor(context.Background(), auth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleFranchiseOwner, FranchiseID: "F001"})
	resp = httptest.NewRecorder()
	guard.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ownerCtx))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = httptest.NewRecorder()
	guard.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestActorFromContextMissing(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func mintTestToken(t *testing.T, role enums.AccountRole, franchiseID string) string {
	t.Helper()
	email := "manager@example.com"
	if franchiseID != "" {
		email = "owner@example.com"
	}
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		AccountID:   uuid.New(),
		Email:       email,
		Role:        role,
		FranchiseID: franchiseID,
		JTI:         session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) Verify(context.Context, string, uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	if !s.ok {
		return session.ErrRevoked
	}
	return nil
}
