package models

// Sequence is a named monotonically increasing counter.
type Sequence struct {
	Name  string `gorm:"column:name;type:text;primaryKey"`
	Value int64  `gorm:"column:value;not null"`
}

func (Sequence) TableName() string { return "sequences" }

// All lists every model the schema owns, in dependency order.
func All() []any {
	return []any{
		&Sequence{},
		&Account{},
		&Product{},
		&LedgerEntry{},
		&Order{},
		&OrderItem{},
	}
}
