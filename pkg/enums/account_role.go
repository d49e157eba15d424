package enums

import "fmt"

// AccountRole identifies which side of the distribution business an account acts for.
type AccountRole string

const (
	AccountRoleWarehouseManager AccountRole = "warehouse_manager"
	AccountRoleFranchiseOwner   AccountRole = "franchise_owner"
)

var validAccountRoles = []AccountRole{
	AccountRoleWarehouseManager,
	AccountRoleFranchiseOwner,
}

func (r AccountRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known account role.
func (r AccountRole) IsValid() bool {
	for _, candidate := range validAccountRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAccountRole converts raw input into AccountRole.
func ParseAccountRole(value string) (AccountRole, error) {
	for _, candidate := range validAccountRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account role %q", value)
}
