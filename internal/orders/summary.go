package orders

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
)

const (
	DefaultSummaryLimit = 35
	summaryEllipsis     = "..."
)

// buildSummary renders "Name xQty" pairs and cuts the text to limit characters.
func buildSummary(items []models.OrderItem, limit int) string {
	if limit <= len(summaryEllipsis) {
		limit = DefaultSummaryLimit
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", item.ProductName, item.Quantity))
	}
	summary := strings.Join(parts, ", ")
	runes := []rune(summary)
	if len(runes) > limit {
		summary = string(runes[:limit-len(summaryEllipsis)]) + summaryEllipsis
	}
	return summary
}
