package cart

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/glowhaus/storefront-backend/pkg/db"
	"github.com/glowhaus/storefront-backend/pkg/db/models"
)

// SQLStorage upserts snapshots into the cart_snapshots table.
type SQLStorage struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLStorage(conn *gorm.DB) (*SQLStorage, error) {
	if conn == nil {
		return nil, errors.New("gorm db required")
	}
	return &SQLStorage{db: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *SQLStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var row models.CartSnapshot
	if err := s.db.WithContext(ctx).First(&row, "cart_key = ?", key).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return []byte(row.Payload), nil
}

func (s *SQLStorage) Save(ctx context.Context, key string, payload []byte) error {
	row := models.CartSnapshot{
		Key:       key,
		Payload:   string(payload),
		UpdatedAt: s.now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).
		Error
}
