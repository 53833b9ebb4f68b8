package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/glowhaus/storefront-backend/internal/analytics/query"
	"github.com/glowhaus/storefront-backend/internal/analytics/types"
	product "github.com/glowhaus/storefront-backend/internal/products"
	"github.com/glowhaus/storefront-backend/pkg/db/dbtest"
	"github.com/glowhaus/storefront-backend/pkg/db/models"
	"github.com/glowhaus/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
)

// Monday.
var fixedNow = time.Date(2026, time.October, 19, 15, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newDBService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, &models.Product{}, &models.Order{}, &models.OrderItem{})
	svc, err := NewService(query.NewOrderStats(conn), product.NewRepository(conn), 3, clock)
	require.NoError(t, err)
	return svc, conn
}

func seedOrder(t *testing.T, conn *gorm.DB, user string, status enums.OrderStatus, total string, at time.Time) {
	t.Helper()
	order := &models.Order{
		UserID:          user,
		Status:          status,
		PaymentMethod:   enums.PaymentMethodCard,
		PaymentStatus:   enums.PaymentStatusPaid,
		Subtotal:        decimal.RequireFromString(total),
		ShippingFee:     decimal.Zero,
		Total:           decimal.RequireFromString(total),
		ShippingName:    "Ada",
		ShippingLine1:   "1 Main St",
		ShippingCity:    "London",
		ShippingCountry: "GB",
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	require.NoError(t, conn.Create(order).Error)
}

func seedProduct(t *testing.T, conn *gorm.DB, stock int) {
	t.Helper()
	require.NoError(t, conn.Create(&models.Product{
		Name:  "Tint",
		Price: decimal.RequireFromString("9.99"),
		Stock: stock,
	}).Error)
}

func TestBucketsWeekly(t *testing.T) {
	buckets := bucketsFor(enums.AnalyticsPeriodWeekly, fixedNow)
	require.Len(t, buckets, 7)
	labels := make([]string, 0, len(buckets))
	for _, b := range buckets {
		labels = append(labels, b.label)
	}
	assert.Equal(t, []string{"Tue", "Wed", "Thu", "Fri", "Sat", "Sun", "Mon"}, labels)
	assert.Equal(t, time.Date(2026, time.October, 13, 0, 0, 0, 0, time.UTC), buckets[0].start)
	assert.Equal(t, time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC), buckets[6].end)
}

func TestBucketsMonthlyAndYearly(t *testing.T) {
	monthly := bucketsFor(enums.AnalyticsPeriodMonthly, fixedNow)
	require.Len(t, monthly, 12)
	assert.Equal(t, "Nov", monthly[0].label)
	assert.Equal(t, time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC), monthly[0].start)
	assert.Equal(t, "Oct", monthly[11].label)

	yearly := bucketsFor(enums.AnalyticsPeriodYearly, fixedNow)
	require.Len(t, yearly, 5)
	assert.Equal(t, "2022", yearly[0].label)
	assert.Equal(t, "2026", yearly[4].label)
	assert.Equal(t, -1, indexOf(yearly, time.Date(2021, time.December, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, indexOf(yearly, fixedNow))
}

func TestDashboardWeeklyAggregates(t *testing.T) {
	svc, conn := newDBService(t)
	ctx := context.Background()

	// returning customer: ordered before the window
	seedOrder(t, conn, "old", enums.OrderStatusDelivered, "10.00", fixedNow.AddDate(0, 0, -30))
	seedOrder(t, conn, "old", enums.OrderStatusPending, "20.00", fixedNow.Add(-2*time.Hour))
	seedOrder(t, conn, "new", enums.OrderStatusPending, "15.50", fixedNow.Add(-time.Hour))
	seedOrder(t, conn, "new", enums.OrderStatusProcessing, "4.50", fixedNow.Add(-26*time.Hour))
	seedOrder(t, conn, "gone", enums.OrderStatusCancelled, "99.00", fixedNow.Add(-26*time.Hour))
	seedProduct(t, conn, 2)
	seedProduct(t, conn, 30)

	dash, err := svc.Dashboard(ctx, enums.AnalyticsPeriodWeekly)
	require.NoError(t, err)
	assert.False(t, dash.Synthetic)
	require.Len(t, dash.Series, 7)

	today := dash.Series[6]
	assert.Equal(t, "Mon", today.Label)
	assert.Equal(t, int64(2), today.Orders)
	assert.True(t, today.Revenue.Equal(decimal.RequireFromString("35.50")), today.Revenue.String())
	assert.Equal(t, int64(0), today.NewCustomers)

	yesterday := dash.Series[5]
	assert.Equal(t, int64(2), yesterday.Orders)
	assert.True(t, yesterday.Revenue.Equal(decimal.RequireFromString("4.50")), yesterday.Revenue.String())
	assert.Equal(t, int64(2), yesterday.NewCustomers)

	assert.True(t, dash.Summary.TotalRevenue.Equal(decimal.RequireFromString("50.00")), dash.Summary.TotalRevenue.String())
	assert.Equal(t, int64(5), dash.Summary.OrderCount)
	assert.Equal(t, int64(2), dash.Summary.PendingOrders)
	assert.Equal(t, int64(2), dash.Summary.ProductCount)
	assert.Equal(t, int64(1), dash.Summary.LowStockProducts)
	assert.Equal(t, fixedNow, dash.GeneratedAt)
}

func TestDashboardFallsBackToSyntheticData(t *testing.T) {
	svc, conn := newDBService(t)
	ctx := context.Background()
	seedOrder(t, conn, "ancient", enums.OrderStatusDelivered, "10.00", fixedNow.AddDate(-10, 0, 0))

	first, err := svc.Dashboard(ctx, enums.AnalyticsPeriodMonthly)
	require.NoError(t, err)
	assert.True(t, first.Synthetic)
	require.Len(t, first.Series, 12)
	assert.False(t, allZero(first.Series))
	assert.Equal(t, int64(1), first.Summary.OrderCount)

	second, err := svc.Dashboard(ctx, enums.AnalyticsPeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, first.Series, second.Series)
}

func TestDashboardDefaultsAndValidation(t *testing.T) {
	svc, _ := newDBService(t)
	ctx := context.Background()

	dash, err := svc.Dashboard(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, enums.AnalyticsPeriodWeekly, dash.Period)

	_, err = svc.Dashboard(ctx, "daily")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type failingStats struct{}

func (failingStats) OrdersBetween(context.Context, time.Time, time.Time) ([]types.OrderFact, error) {
	return nil, nil
}

func (failingStats) UsersWithOrdersBefore(context.Context, time.Time, []string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (failingStats) Revenue(context.Context) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("db down")
}

func (failingStats) CountOrders(context.Context, *enums.OrderStatus) (int64, error) {
	return 0, nil
}

type zeroCatalog struct{}

func (zeroCatalog) Count(context.Context) (int64, error)              { return 0, nil }
func (zeroCatalog) CountLowStock(context.Context, int) (int64, error) { return 0, nil }

func TestDashboardSurfacesDependencyErrors(t *testing.T) {
	svc, err := NewService(failingStats{}, zeroCatalog{}, 5, clock)
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), enums.AnalyticsPeriodYearly)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, zeroCatalog{}, 5, nil)
	require.Error(t, err)
	_, err = NewService(failingStats{}, nil, 5, nil)
	require.Error(t, err)
}
