package enums

// StockLevel classifies cached stock against a product's thresholds.
type StockLevel string

const (
	StockLevelOK       StockLevel = "ok"
	StockLevelLow      StockLevel = "low"
	StockLevelCritical StockLevel = "critical"
)

// ClassifyStock maps the stock value to a level. Critical wins over low.
func ClassifyStock(stock, minLevel, criticalLevel int64) StockLevel {
	switch {
	case stock <= criticalLevel:
		return StockLevelCritical
	case stock <= minLevel:
		return StockLevelLow
	default:
		return StockLevelOK
	}
}
