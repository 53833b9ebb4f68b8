package analytics

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/glowhaus/storefront-backend/internal/analytics/types"
	"github.com/glowhaus/storefront-backend/pkg/enums"
)

// syntheticSeries fills an empty chart with stable demo values. The same
// period and labels always produce the same numbers.
func syntheticSeries(period enums.AnalyticsPeriod, buckets []bucket) []types.SeriesPoint {
	h := fnv.New64a()
	_, _ = h.Write([]byte(period))
	rng := rand.New(rand.NewPCG(h.Sum64(), uint64(len(buckets))))

	scale := int64(1)
	switch period {
	case enums.AnalyticsPeriodMonthly:
		scale = 20
	case enums.AnalyticsPeriodYearly:
		scale = 200
	}

	out := make([]types.SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		orders := (5 + rng.Int64N(30)) * scale
		avgCents := 2000 + rng.Int64N(6000)
		out = append(out, types.SeriesPoint{
			Label:        b.label,
			Start:        b.start,
			Orders:       orders,
			Revenue:      decimal.New(orders*avgCents, -2),
			NewCustomers: orders / (2 + rng.Int64N(3)),
		})
	}
	return out
}
