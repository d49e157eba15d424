package ledger

import (
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// EntryDTO is the API representation of a ledger entry.
type EntryDTO struct {
	ID          int64              `json:"id"`
	Type        enums.MovementType `json:"type"`
	Quantity    int64              `json:"quantity"`
	ProductID   int64              `json:"product_id"`
	ProductName string             `json:"product_name"`
	CreatedAt   time.Time          `json:"created_at"`
	PerformedBy string             `json:"performed_by"`
	Reference   string             `json:"reference"`
}

func NewEntryDTO(entry models.LedgerEntry) EntryDTO {
	return EntryDTO{
		ID:          entry.ID,
		Type:        entry.Type,
		Quantity:    entry.Quantity,
		ProductID:   entry.ProductID,
		ProductName: entry.ProductName,
		CreatedAt:   entry.CreatedAt,
		PerformedBy: entry.PerformedBy,
		Reference:   entry.Reference,
	}
}

func NewEntryDTOs(entries []models.LedgerEntry) []EntryDTO {
	out := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, NewEntryDTO(entry))
	}
	return out
}
