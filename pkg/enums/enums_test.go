package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("Dispatched")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusDispatched, status)

	_, err = ParseOrderStatus("dispatched")
	require.Error(t, err)
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusApproved.IsTerminal())
	assert.False(t, OrderStatusDispatched.IsTerminal())
}

func TestMovementTypeSign(t *testing.T) {
	assert.Equal(t, int64(1), MovementTypeIn.Sign())
	assert.Equal(t, int64(-1), MovementTypeOut.Sign())
	assert.Equal(t, int64(0), MovementTypeCreate.Sign())
	assert.Equal(t, int64(0), MovementTypePriceUpdate.Sign())
	assert.False(t, MovementType("ADJUST").IsValid())
}

func TestParseAccountRole(t *testing.T) {
	role, err := ParseAccountRole("franchise_owner")
	require.NoError(t, err)
	assert.Equal(t, AccountRoleFranchiseOwner, role)

	_, err = ParseAccountRole("admin")
	require.Error(t, err)
}

func TestClassifyStock(t *testing.T) {
	assert.Equal(t, StockLevelOK, ClassifyStock(101, 100, 50))
	assert.Equal(t, StockLevelLow, ClassifyStock(100, 100, 50))
	assert.Equal(t, StockLevelCritical, ClassifyStock(50, 100, 50))
	assert.Equal(t, StockLevelCritical, ClassifyStock(0, 100, 50))
}
