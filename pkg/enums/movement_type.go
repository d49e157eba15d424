package enums

import "fmt"

// MovementType classifies a stock ledger entry.
type MovementType string

const (
	MovementTypeIn          MovementType = "IN"
	MovementTypeOut         MovementType = "OUT"
	MovementTypeCreate      MovementType = "CREATE"
	MovementTypePriceUpdate MovementType = "PRICE_UPDATE"
)

var validMovementTypes = []MovementType{
	MovementTypeIn,
	MovementTypeOut,
	MovementTypeCreate,
	MovementTypePriceUpdate,
}

func (t MovementType) String() string {
	return string(t)
}

// IsValid reports whether the value matches a known movement type.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Sign returns the stock direction of the movement: +1, -1 or 0.
func (t MovementType) Sign() int64 {
	switch t {
	case MovementTypeIn:
		return 1
	case MovementTypeOut:
		return -1
	default:
		return 0
	}
}

// ParseMovementType converts raw input into MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
