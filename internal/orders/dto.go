package orders

import (
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput is one requested product quantity.
type ItemInput struct {
	ProductID int64
	Quantity  int64
}

// CreateOrderInput carries the requested lines of a new order.
type CreateOrderInput struct {
	Items []ItemInput
}

// ListFilters narrows the order listing.
type ListFilters struct {
	FranchiseID string
	Status      *enums.OrderStatus
	Limit       int
}

// OrderItemDTO is a locked order line.
type OrderItemDTO struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID                int64             `json:"id"`
	FranchiseID       string            `json:"franchise_id"`
	OutletName        string            `json:"outlet_name"`
	PlacedBy          uuid.UUID         `json:"placed_by"`
	Status            enums.OrderStatus `json:"status"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	ItemsCount        int               `json:"items_count"`
	ItemsSummary      string            `json:"items_summary"`
	ChallanUploaded   bool              `json:"challan_uploaded"`
	ChallanUploadedAt *time.Time        `json:"challan_uploaded_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []OrderItemDTO    `json:"items,omitempty"`
}

func NewOrderDTO(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                o.ID,
		FranchiseID:       o.FranchiseID,
		OutletName:        o.OutletName,
		PlacedBy:          o.PlacedBy,
		Status:            o.Status,
		TotalAmount:       o.TotalAmount,
		ItemsCount:        o.ItemsCount,
		ItemsSummary:      o.ItemsSummary,
		ChallanUploaded:   o.ChallanUploaded,
		ChallanUploadedAt: o.ChallanUploadedAt,
		CreatedAt:         o.CreatedAt,
	}
	if len(o.Items) > 0 {
		dto.Items = make([]OrderItemDTO, 0, len(o.Items))
		for _, item := range o.Items {
			dto.Items = append(dto.Items, OrderItemDTO{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Unit:        item.Unit,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				LineTotal:   item.LineTotal,
			})
		}
	}
	return dto
}

func NewOrderDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderDTO(o))
	}
	return out
}
