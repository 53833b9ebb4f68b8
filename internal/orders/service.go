package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowhaus/storefront-backend/internal/cart"
	"github.com/glowhaus/storefront-backend/internal/identity"
	"github.com/glowhaus/storefront-backend/pkg/db"
	"github.com/glowhaus/storefront-backend/pkg/db/models"
	"github.com/glowhaus/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
	"github.com/glowhaus/storefront-backend/pkg/logger"
	"github.com/glowhaus/storefront-backend/pkg/metrics"
	"github.com/glowhaus/storefront-backend/pkg/pagination"
)

// Service covers checkout, order history and admin fulfilment.
type Service interface {
	PlaceOrder(ctx context.Context, user *identity.User, input PlaceOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, user *identity.User, id uuid.UUID) (*OrderDTO, error)
	ListForUser(ctx context.Context, user *identity.User, params pagination.Params) (*OrderPage, error)
	List(ctx context.Context, params ListParams) (*OrderPage, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

// ServiceParams carries the order service collaborators.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Inventory Inventory
	Carts     Carts
	Publisher Publisher
	Pricing   Pricing
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory Inventory
	carts     Carts
	publisher Publisher
	pricing   Pricing
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	publisher := p.Publisher
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &service{
		repo:      p.Repo,
		tx:        p.Tx,
		inventory: p.Inventory,
		carts:     p.Carts,
		publisher: publisher,
		pricing:   p.Pricing,
		metrics:   p.Metrics,
		logg:      p.Logger,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, user *identity.User, input PlaceOrderInput) (*OrderDTO, error) {
	if user == nil || user.UID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}
	shipping := input.Shipping.trimmed()
	if err := validateShipping(shipping); err != nil {
		return nil, err
	}

	owner := cart.UserOwner(user.UID)
	var order *models.Order
	remaining, err := s.carts.Checkout(ctx, owner, func(ctx context.Context, items []cart.LineItem) error {
		placed, err := s.place(ctx, user, shipping, input.PaymentMethod, items)
		if err != nil {
			return err
		}
		order = placed
		return nil
	})
	if order == nil {
		if err == nil {
			err = pkgerrors.New(pkgerrors.CodeInternal, "order not placed")
		}
		return nil, err
	}

	s.metrics.IncPlaced(order.PaymentMethod.String())
	ctx = s.logg.WithField(ctx, "order_id", order.ID.String())
	switch {
	case err != nil:
		s.logg.Error(ctx, "remove ordered lines from cart", err)
	case remaining != nil && len(remaining.Warnings) > 0:
		s.logg.Warn(ctx, "cart not persisted after checkout")
	}
	s.afterPlace(ctx, order)
	return newOrderDTO(order), nil
}

// place reserves stock and writes the order for items in one transaction.
func (s *service) place(ctx context.Context, user *identity.User, shipping ShippingAddress, method enums.PaymentMethod, items []cart.LineItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	reservations, err := groupByProduct(items)
	if err != nil {
		return nil, err
	}

	subtotal, fee, total := s.pricing.Totals(items)
	order := &models.Order{
		UserID:             user.UID,
		UserEmail:          user.Email,
		Status:             enums.OrderStatusPending,
		PaymentMethod:      method,
		PaymentStatus:      initialPaymentStatus(method),
		Subtotal:           subtotal,
		ShippingFee:        fee,
		Total:              total,
		ShippingName:       shipping.Name,
		ShippingPhone:      shipping.Phone,
		ShippingLine1:      shipping.Line1,
		ShippingLine2:      shipping.Line2,
		ShippingCity:       shipping.City,
		ShippingPostalCode: shipping.PostalCode,
		ShippingCountry:    shipping.Country,
		Items:              make([]models.OrderItem, 0, len(items)),
	}
	for i, line := range items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:     line.ProductID,
			Name:          line.Name,
			Brand:         line.Brand,
			ImageURL:      line.ImageURL,
			SelectedSize:  line.SelectedSize,
			SelectedColor: line.SelectedColor,
			UnitPrice:     line.UnitPrice,
			Quantity:      line.Quantity,
			Position:      i,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, r := range reservations {
			if err := s.inventory.Reserve(ctx, tx, r.productID, r.qty); err != nil {
				return err
			}
		}
		if _, err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}
	return order, nil
}

// afterPlace publishes the order event; a failure cannot undo the order.
func (s *service) afterPlace(ctx context.Context, order *models.Order) {
	event := OrderCreatedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		UserEmail:     order.UserEmail,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total,
		ItemCount:     itemCount(order.Items),
		CreatedAt:     order.CreatedAt,
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		s.logg.Error(ctx, "publish order created", err)
	}
	s.logg.Info(ctx, "order placed")
}

func (s *service) GetOrder(ctx context.Context, user *identity.User, id uuid.UUID) (*OrderDTO, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	if !user.Admin && order.UserID != user.UID {
		// other shoppers' orders read as missing
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return newOrderDTO(order), nil
}

func (s *service) ListForUser(ctx context.Context, user *identity.User, params pagination.Params) (*OrderPage, error) {
	if user == nil || user.UID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return s.list(ctx, ListFilter{UserID: user.UID}, params)
}

func (s *service) List(ctx context.Context, params ListParams) (*OrderPage, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	return s.list(ctx, ListFilter{Status: params.Status}, params.Pagination)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderPage, error) {
	rows, next, err := s.repo.List(ctx, filter, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *newOrderDTO(&rows[i]))
	}
	return &OrderPage{Orders: out, NextCursor: next}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLookupError(err)
		}
		if order.Status == status {
			updated = order
			return nil
		}
		if !order.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status change not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": status})
		}

		payment := order.PaymentStatus
		if status == enums.OrderStatusCancelled {
			for _, item := range order.Items {
				productID, err := uuid.Parse(item.ProductID)
				if err != nil {
					continue
				}
				if err := s.inventory.Release(ctx, tx, productID, item.Quantity); err != nil {
					return err
				}
			}
			payment = cancelledPaymentStatus(order.PaymentStatus)
		}
		if status == enums.OrderStatusDelivered && payment == enums.PaymentStatusPending {
			// cash on delivery settles at the door
			payment = enums.PaymentStatusPaid
		}

		if err := repo.UpdateStatus(ctx, order.ID, status, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = status
		order.PaymentStatus = payment
		order.UpdatedAt = time.Now().UTC()
		updated = order
		s.metrics.IncTransition(status.String())
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return newOrderDTO(updated), nil
}

type reservation struct {
	productID uuid.UUID
	qty       int
}

// groupByProduct sums variant lines per product, keeping first-seen order.
func groupByProduct(lines []cart.LineItem) ([]reservation, error) {
	index := make(map[uuid.UUID]int, len(lines))
	out := make([]reservation, 0, len(lines))
	for _, line := range lines {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains an unknown product").
				WithDetails(map[string]any{"productId": line.ProductID})
		}
		if i, ok := index[id]; ok {
			out[i].qty += line.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, reservation{productID: id, qty: line.Quantity})
	}
	return out, nil
}

func validateShipping(a ShippingAddress) error {
	missing := []string{}
	if a.Name == "" {
		missing = append(missing, "name")
	}
	if a.Line1 == "" {
		missing = append(missing, "line1")
	}
	if a.City == "" {
		missing = append(missing, "city")
	}
	if a.Country == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func initialPaymentStatus(method enums.PaymentMethod) enums.PaymentStatus {
	if method == enums.PaymentMethodCard {
		return enums.PaymentStatusPaid
	}
	return enums.PaymentStatusPending
}

func cancelledPaymentStatus(current enums.PaymentStatus) enums.PaymentStatus {
	if current == enums.PaymentStatusPaid {
		return enums.PaymentStatusRefunded
	}
	return enums.PaymentStatusVoided
}

func itemCount(items []models.OrderItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func mapLookupError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
