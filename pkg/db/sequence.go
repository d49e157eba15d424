package db

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sequence names and their seed values. The first value handed out is seed+1.
const (
	SequenceLedger   = "ledger_entries"
	SequenceProducts = "products"
	SequenceOrders   = "orders"
)

var sequenceSeeds = map[string]int64{
	SequenceLedger:   0,
	SequenceProducts: 0,
	SequenceOrders:   1000,
}

// NextSequence advances the named counter inside tx and returns the new value.
// The UPDATE takes a row lock, so concurrent callers serialize on commit.
func NextSequence(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	seed, ok := sequenceSeeds[name]
	if !ok {
		return 0, fmt.Errorf("unknown sequence %q", name)
	}

	row := models.Sequence{Name: name, Value: seed}
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error; err != nil {
		return 0, fmt.Errorf("ensure sequence %s: %w", name, err)
	}

	var next int64
	if err := tx.WithContext(ctx).
		Raw("UPDATE sequences SET value = value + 1 WHERE name = ? RETURNING value", name).
		Scan(&next).Error; err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", name, err)
	}
	if next == 0 {
		return 0, fmt.Errorf("advance sequence %s: no value returned", name)
	}
	return next, nil
}
