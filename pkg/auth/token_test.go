package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "stockledger", ExpirationMinutes: 30}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	accountID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		AccountID:   accountID,
		Email:       "owner@f001.test",
		Role:        enums.AccountRoleFranchiseOwner,
		FranchiseID: "F001",
		JTI:         "jti-1",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
	assert.Equal(t, enums.AccountRoleFranchiseOwner, claims.Role)
	assert.Equal(t, "F001", claims.FranchiseID)
	assert.Equal(t, "jti-1", claims.ID)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)

	actor := ActorFromClaims(claims)
	assert.True(t, actor.IsFranchiseOwner())
	assert.Equal(t, "Franchise F001 (owner@f001.test)", actor.PerformedBy())
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{AccountID: uuid.New(), Role: "admin"})
	require.Error(t, err)

	_, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{AccountID: uuid.New(), Role: enums.AccountRoleFranchiseOwner})
	require.Error(t, err)

	_, err = MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, time.Now(), AccessTokenPayload{Role: enums.AccountRoleWarehouseManager})
	require.Error(t, err)
}

func TestParseAccessTokenRejectsTampering(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		AccountID: uuid.New(),
		Email:     "manager@warehouse.test",
		Role:      enums.AccountRoleWarehouseManager,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(config.JWTConfig{Secret: "other", Issuer: cfg.Issuer, ExpirationMinutes: 30}, token)
	require.Error(t, err)

	_, err = ParseAccessToken(config.JWTConfig{Secret: cfg.Secret, Issuer: "someone-else", ExpirationMinutes: 30}, token)
	require.Error(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	_, err = ParseAccessToken(cfg, parts[0]+"."+parts[1]+".bad")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseAccessTokenRejectsForeignSubject(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      enums.AccountRoleWarehouseManager,
		JTI:       "jti-2",
	}.claims(cfg.Issuer, time.Now(), time.Hour)
	claims.Subject = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseAccessTokenRejectsNoneAlgorithm(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenPayload{AccountID: uuid.New(), Role: enums.AccountRoleWarehouseManager, JTI: "x"}.
		claims(cfg.Issuer, time.Now(), time.Hour)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, unsigned)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      enums.AccountRoleWarehouseManager,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestManagerPerformedBy(t *testing.T) {
	actor := Actor{Email: "boss@warehouse.test", Role: enums.AccountRoleWarehouseManager}
	assert.True(t, actor.IsManager())
	assert.Equal(t, "Manager (boss@warehouse.test)", actor.PerformedBy())
}
