package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/glowhaus/storefront-backend/pkg/db/models"
	"github.com/glowhaus/storefront-backend/pkg/enums"
	"github.com/glowhaus/storefront-backend/pkg/pagination"
)

// ShippingAddress is where a placed order is delivered.
type ShippingAddress struct {
	Name       string `json:"name" validate:"required,max=120"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=120"`
	PostalCode string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Country    string `json:"country" validate:"required,max=56"`
}

func (a ShippingAddress) trimmed() ShippingAddress {
	return ShippingAddress{
		Name:       strings.TrimSpace(a.Name),
		Phone:      strings.TrimSpace(a.Phone),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}

// PlaceOrderInput is the checkout form.
type PlaceOrderInput struct {
	Shipping      ShippingAddress     `json:"shipping" validate:"required"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod" validate:"required,oneof=card cod"`
}

// OrderItemDTO is one purchased line.
type OrderItemDTO struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	ImageURL      string          `json:"imageUrl"`
	SelectedSize  string          `json:"selectedSize"`
	SelectedColor string          `json:"selectedColor"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	UserID        string              `json:"userId"`
	UserEmail     string              `json:"userEmail,omitempty"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	ShippingFee   decimal.Decimal     `json:"shippingFee"`
	Total         decimal.Decimal     `json:"total"`
	Shipping      ShippingAddress     `json:"shipping"`
	Items         []OrderItemDTO      `json:"items"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// ListParams filters the admin order list.
type ListParams struct {
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// ListFilter narrows repository list queries.
type ListFilter struct {
	UserID string
	Status *enums.OrderStatus
}

// OrderPage wraps one page of orders plus the cursor for the next one.
type OrderPage struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

func newOrderDTO(o *models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:     it.ProductID,
			Name:          it.Name,
			Brand:         it.Brand,
			ImageURL:      it.ImageURL,
			SelectedSize:  it.SelectedSize,
			SelectedColor: it.SelectedColor,
			UnitPrice:     it.UnitPrice,
			Quantity:      it.Quantity,
			LineTotal:     it.LineTotal(),
		})
	}
	return &OrderDTO{
		ID:            o.ID,
		UserID:        o.UserID,
		UserEmail:     o.UserEmail,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Subtotal:      o.Subtotal,
		ShippingFee:   o.ShippingFee,
		Total:         o.Total,
		Shipping: ShippingAddress{
			Name:       o.ShippingName,
			Phone:      o.ShippingPhone,
			Line1:      o.ShippingLine1,
			Line2:      o.ShippingLine2,
			City:       o.ShippingCity,
			PostalCode: o.ShippingPostalCode,
			Country:    o.ShippingCountry,
		},
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
