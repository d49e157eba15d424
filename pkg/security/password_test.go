package security_test

import (
	"strings"
	"testing"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("warehouse-secret", fastParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := security.VerifyPassword("warehouse-secret", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("outlet-secret", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := security.HashPassword("warehouse-secret", fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts must differ")
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", fastParams)
	require.Error(t, err)
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, bad := range []string{
		"not-a-hash",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
	} {
		_, err := security.VerifyPassword("irrelevant", bad)
		assert.ErrorIs(t, err, security.ErrInvalidHash, bad)
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := security.HashPassword("warehouse-secret", fastParams)
	require.NoError(t, err)
	assert.False(t, security.NeedsRehash(hash, fastParams))

	stronger := fastParams
	stronger.ArgonTime = 2
	assert.True(t, security.NeedsRehash(hash, stronger))
	assert.True(t, security.NeedsRehash("garbage", fastParams))
}

func TestParamsFromConfigClamps(t *testing.T) {
	p := security.ParamsFromConfig(config.PasswordConfig{ArgonMemoryKB: 1, ArgonTime: 50, ArgonParallelism: 0, ArgonSaltLen: 4, ArgonKeyLen: 128})
	assert.Equal(t, security.ArgonParams{Memory: 8, Time: 10, Parallelism: 1, SaltLen: 8, KeyLen: 64}, p)
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(24)
	require.NoError(t, err)
	assert.Len(t, pw, 24)
	assert.NotContains(t, pw, "0", "look-alike characters are excluded")
	assert.NotContains(t, pw, "O")
	assert.NotContains(t, pw, "l")

	_, err = security.GenerateTempPassword(0)
	require.Error(t, err)
}
