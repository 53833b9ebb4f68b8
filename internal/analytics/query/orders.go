package query

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/glowhaus/storefront-backend/internal/analytics/types"
	"github.com/glowhaus/storefront-backend/pkg/db/models"
	"github.com/glowhaus/storefront-backend/pkg/enums"
)

// OrderStats reads order aggregates from the primary database.
type OrderStats struct {
	db *gorm.DB
}

func NewOrderStats(db *gorm.DB) *OrderStats {
	return &OrderStats{db: db}
}

// OrdersBetween returns orders created in [from, to).
func (s *OrderStats) OrdersBetween(ctx context.Context, from, to time.Time) ([]types.OrderFact, error) {
	var rows []models.Order
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("user_id", "status", "total", "created_at").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.OrderFact, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.OrderFact{
			UserID:    row.UserID,
			Status:    row.Status,
			Total:     row.Total,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// UsersWithOrdersBefore reports which of userIDs already ordered before cutoff.
func (s *OrderStats) UsersWithOrdersBefore(ctx context.Context, cutoff time.Time, userIDs []string) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	if len(userIDs) == 0 {
		return seen, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Distinct("user_id").
		Where("created_at < ? AND user_id IN ?", cutoff.UTC(), userIDs).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// Revenue sums totals of every order that was not cancelled.
func (s *OrderStats) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("SUM(total)").
		Where("status <> ?", enums.OrderStatusCancelled).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

// CountOrders counts orders, optionally restricted to one status.
func (s *OrderStats) CountOrders(ctx context.Context, status *enums.OrderStatus) (int64, error) {
	qb := s.db.WithContext(ctx).Model(&models.Order{})
	if status != nil {
		qb = qb.Where("status = ?", *status)
	}
	var n int64
	err := qb.Count(&n).Error
	return n, err
}
