package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/glowhaus/storefront-backend/pkg/enums"
)

// SeriesPoint is one bucket of the dashboard chart.
type SeriesPoint struct {
	Label        string          `json:"label"`
	Start        time.Time       `json:"start"`
	Revenue      decimal.Decimal `json:"revenue"`
	Orders       int64           `json:"orders"`
	NewCustomers int64           `json:"newCustomers"`
}

// Summary holds the headline counters shown above the chart.
type Summary struct {
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	OrderCount       int64           `json:"orderCount"`
	PendingOrders    int64           `json:"pendingOrders"`
	ProductCount     int64           `json:"productCount"`
	LowStockProducts int64           `json:"lowStockProducts"`
}

// Dashboard is the admin analytics payload.
type Dashboard struct {
	Period      enums.AnalyticsPeriod `json:"period"`
	Series      []SeriesPoint         `json:"series"`
	Synthetic   bool                  `json:"synthetic"`
	Summary     Summary               `json:"summary"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

// OrderFact is the slice of an order the aggregations read.
type OrderFact struct {
	UserID    string
	Status    enums.OrderStatus
	Total     decimal.Decimal
	CreatedAt time.Time
}
