package models

import "time"

// CartSnapshot stores the serialized line items of one cart.
type CartSnapshot struct {
	Key       string    `gorm:"column:cart_key;primaryKey"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (CartSnapshot) TableName() string { return "cart_snapshots" }
