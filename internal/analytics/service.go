package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/glowhaus/storefront-backend/internal/analytics/types"
	"github.com/glowhaus/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
)

// Service builds the admin dashboard from orders and the catalog.
type Service interface {
	// Dashboard returns the chart series for period plus the headline summary.
	Dashboard(ctx context.Context, period enums.AnalyticsPeriod) (*types.Dashboard, error)
}

type orderStats interface {
	OrdersBetween(ctx context.Context, from, to time.Time) ([]types.OrderFact, error)
	UsersWithOrdersBefore(ctx context.Context, cutoff time.Time, userIDs []string) (map[string]struct{}, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	CountOrders(ctx context.Context, status *enums.OrderStatus) (int64, error)
}

type catalogStats interface {
	Count(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

type service struct {
	orders            orderStats
	catalog           catalogStats
	lowStockThreshold int
	now               func() time.Time
}

// NewService builds the dashboard service. now may be nil.
func NewService(orders orderStats, catalog catalogStats, lowStockThreshold int, now func() time.Time) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order stats required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog stats required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		orders:            orders,
		catalog:           catalog,
		lowStockThreshold: lowStockThreshold,
		now:               now,
	}, nil
}

func (s *service) Dashboard(ctx context.Context, period enums.AnalyticsPeriod) (*types.Dashboard, error) {
	if period == "" {
		period = enums.AnalyticsPeriodWeekly
	}
	if !period.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid analytics period").
			WithDetails(map[string]any{"period": period})
	}

	now := s.now().UTC()
	buckets := bucketsFor(period, now)

	var (
		series  []types.SeriesPoint
		summary types.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		series, err = s.series(gctx, buckets)
		return err
	})
	g.Go(func() error {
		var err error
		summary.TotalRevenue, err = s.orders.Revenue(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary.OrderCount, err = s.orders.CountOrders(gctx, nil)
		return err
	})
	g.Go(func() error {
		pending := enums.OrderStatusPending
		var err error
		summary.PendingOrders, err = s.orders.CountOrders(gctx, &pending)
		return err
	})
	g.Go(func() error {
		var err error
		summary.ProductCount, err = s.catalog.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary.LowStockProducts, err = s.catalog.CountLowStock(gctx, s.lowStockThreshold)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build dashboard")
	}

	dashboard := &types.Dashboard{
		Period:      period,
		Series:      series,
		Summary:     summary,
		GeneratedAt: now,
	}
	if allZero(series) {
		dashboard.Series = syntheticSeries(period, buckets)
		dashboard.Synthetic = true
	}
	return dashboard, nil
}

func (s *service) series(ctx context.Context, buckets []bucket) ([]types.SeriesPoint, error) {
	from, to := buckets[0].start, buckets[len(buckets)-1].end
	facts, err := s.orders.OrdersBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]types.SeriesPoint, len(buckets))
	for i, b := range buckets {
		out[i] = types.SeriesPoint{Label: b.label, Start: b.start, Revenue: decimal.Zero}
	}

	firstSeen := make(map[string]time.Time)
	for _, f := range facts {
		i := indexOf(buckets, f.CreatedAt)
		if i < 0 {
			continue
		}
		out[i].Orders++
		if f.Status != enums.OrderStatusCancelled {
			out[i].Revenue = out[i].Revenue.Add(f.Total)
		}
		if first, ok := firstSeen[f.UserID]; !ok || f.CreatedAt.Before(first) {
			firstSeen[f.UserID] = f.CreatedAt
		}
	}

	userIDs := make([]string, 0, len(firstSeen))
	for id := range firstSeen {
		userIDs = append(userIDs, id)
	}
	returning, err := s.orders.UsersWithOrdersBefore(ctx, from, userIDs)
	if err != nil {
		return nil, err
	}
	for id, first := range firstSeen {
		if _, ok := returning[id]; ok {
			continue
		}
		if i := indexOf(buckets, first); i >= 0 {
			out[i].NewCustomers++
		}
	}

	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
	}
	return out, nil
}

func allZero(series []types.SeriesPoint) bool {
	for _, p := range series {
		if p.Orders != 0 || p.NewCustomers != 0 || !p.Revenue.IsZero() {
			return false
		}
	}
	return true
}
