package product

import (
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// ProductDTO is the API representation of a catalog product.
type ProductDTO struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Unit          string           `json:"unit"`
	BasePrice     decimal.Decimal  `json:"base_price"`
	CurrentStock  int64            `json:"current_stock"`
	MinLevel      int64            `json:"min_level"`
	CriticalLevel int64            `json:"critical_level"`
	StockLevel    enums.StockLevel `json:"stock_level"`
	IsActive      bool             `json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// StockDTO compares the cached stock with the ledger-derived value.
type StockDTO struct {
	ProductID int64 `json:"product_id"`
	Cached    int64 `json:"cached"`
	Derived   int64 `json:"derived"`
	Drift     int64 `json:"drift"`
}

// UpdateResult is returned by the combined update.
type UpdateResult struct {
	Product      ProductDTO `json:"product"`
	CurrentStock int64      `json:"current_stock"`
}

func NewProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Unit:          p.Unit,
		BasePrice:     p.BasePrice,
		CurrentStock:  p.CurrentStock,
		MinLevel:      p.MinLevel,
		CriticalLevel: p.CriticalLevel,
		StockLevel:    enums.ClassifyStock(p.CurrentStock, p.MinLevel, p.CriticalLevel),
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out
}
