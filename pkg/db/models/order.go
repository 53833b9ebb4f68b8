package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/glowhaus/storefront-backend/pkg/enums"
)

// Order is a placed checkout with its captured totals and shipping address.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:text;primaryKey"`
	UserID             string              `gorm:"column:user_id;not null;index:idx_orders_user_created,priority:1"`
	UserEmail          string              `gorm:"column:user_email;not null;default:''"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;index"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingFee        decimal.Decimal     `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	Total              decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	ShippingName       string              `gorm:"column:shipping_name;not null"`
	ShippingPhone      string              `gorm:"column:shipping_phone;not null;default:''"`
	ShippingLine1      string              `gorm:"column:shipping_line1;not null"`
	ShippingLine2      string              `gorm:"column:shipping_line2;not null;default:''"`
	ShippingCity       string              `gorm:"column:shipping_city;not null"`
	ShippingPostalCode string              `gorm:"column:shipping_postal_code;not null;default:''"`
	ShippingCountry    string              `gorm:"column:shipping_country;not null"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime;index:idx_orders_user_created,priority:2"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is an immutable copy of a cart line at checkout time.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:text;primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:text;not null;index"`
	ProductID     string          `gorm:"column:product_id;not null"`
	Name          string          `gorm:"column:name;not null"`
	Brand         string          `gorm:"column:brand;not null;default:''"`
	ImageURL      string          `gorm:"column:image_url;not null;default:''"`
	SelectedSize  string          `gorm:"column:selected_size;not null;default:''"`
	SelectedColor string          `gorm:"column:selected_color;not null;default:''"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	Position      int             `gorm:"column:position;not null;default:0"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is UnitPrice multiplied by Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
