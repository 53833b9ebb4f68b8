package cart

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/glowhaus/storefront-backend/internal/products"
	"github.com/glowhaus/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
	"github.com/glowhaus/storefront-backend/pkg/logger"
	"github.com/glowhaus/storefront-backend/pkg/metrics"
)

// PersistWarning is surfaced to clients when a change could not be saved.
const PersistWarning = "cart changes could not be saved and may be lost"

// Service manages one cart per owner on top of a shared Storage.
type Service interface {
	View(ctx context.Context, owner Owner) (*Snapshot, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*Snapshot, error)
	UpdateQuantity(ctx context.Context, owner Owner, input UpdateQuantityInput) (*Snapshot, error)
	RemoveItem(ctx context.Context, owner Owner, key LineKey) (*Snapshot, error)
	Clear(ctx context.Context, owner Owner) (*Snapshot, error)
	Adopt(ctx context.Context, guest, user Owner) (*Snapshot, error)
	// Checkout hands the owner's lines to place while holding the cart, then
	// removes exactly those lines. Changes made meanwhile wait and survive.
	Checkout(ctx context.Context, owner Owner, place func(ctx context.Context, items []LineItem) error) (*Snapshot, error)
	// Run sweeps idle carts and retries unsaved ones until ctx is cancelled.
	Run(ctx context.Context, interval time.Duration)
}

// Snapshot is a consistent read of one cart.
type Snapshot struct {
	Items      []LineItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	TotalItems int             `json:"totalItems"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// AddItemInput describes one add-to-cart action.
type AddItemInput struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// UpdateQuantityInput sets the quantity of an existing line.
type UpdateQuantityInput struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

type catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error)
}

// ServiceOptions configures NewService.
type ServiceOptions struct {
	Backend          string
	PlaceholderImage string
	IdleTTL          time.Duration
	Metrics          *metrics.CartMetrics
	Now              func() time.Time
}

type service struct {
	storage  Storage
	catalog  catalog
	logg     *logger.Logger
	opts     ServiceOptions
	registry *registry
}

// NewService wires the cart service.
func NewService(storage Storage, catalog catalog, logg *logger.Logger, opts ServiceOptions) (Service, error) {
	if storage == nil {
		return nil, errors.New("cart storage required")
	}
	if catalog == nil {
		return nil, errors.New("product catalog required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		storage:  storage,
		catalog:  catalog,
		logg:     logg,
		opts:     opts,
		registry: newRegistry(opts.IdleTTL, opts.Now, opts.Metrics),
	}, nil
}

func (s *service) storeOptions() Options {
	return Options{
		Backend:          s.opts.Backend,
		PlaceholderImage: s.opts.PlaceholderImage,
		Logger:           s.logg,
		Metrics:          s.opts.Metrics,
	}
}

// withStore runs fn with exclusive access to the owner's live store, refreshed
// from storage unless it holds unsaved changes.
func (s *service) withStore(ctx context.Context, owner Owner, fn func(*Store) error) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	e := s.registry.acquire(owner.StorageKey())
	defer s.registry.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()
	ctx = s.logg.WithCartOwner(ctx, owner.String())
	if e.store == nil {
		s.registry.attach(e, Open(ctx, s.storage, owner.StorageKey(), s.storeOptions()))
	} else {
		e.store.Reload(ctx)
	}
	return fn(e.store)
}

func (s *service) View(ctx context.Context, owner Owner) (*Snapshot, error) {
	var snap *Snapshot
	err := s.withStore(ctx, owner, func(store *Store) error {
		snap = snapshotOf(store, nil)
		return nil
	})
	return snap, err
}

func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*Snapshot, error) {
	if input.Quantity < 1 {
		input.Quantity = 1
	}
	dto, err := s.lookup(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkVariant(dto, input.Size, input.Color); err != nil {
		return nil, err
	}

	var snap *Snapshot
	err = s.withStore(ctx, owner, func(store *Store) error {
		key := LineKey{ProductID: dto.ID.String(), Size: input.Size, Color: input.Color}
		if err := checkStock(dto, store.QuantityOf(key)+input.Quantity); err != nil {
			return err
		}
		err := store.AddItem(ctx, productFromDTO(dto), input.Quantity, input.Size, input.Color)
		snap, err = s.finish(ctx, owner, store, err)
		return err
	})
	return snap, err
}

func (s *service) UpdateQuantity(ctx context.Context, owner Owner, input UpdateQuantityInput) (*Snapshot, error) {
	var dto *product.ProductDTO
	if input.Quantity > 0 {
		var err error
		if dto, err = s.lookup(ctx, input.ProductID); err != nil {
			return nil, err
		}
	}

	var snap *Snapshot
	err := s.withStore(ctx, owner, func(store *Store) error {
		if dto != nil {
			if err := checkStock(dto, input.Quantity); err != nil {
				return err
			}
		}
		err := store.UpdateQuantity(ctx, canonicalID(input.ProductID), input.Quantity, input.Size, input.Color)
		snap, err = s.finish(ctx, owner, store, err)
		return err
	})
	return snap, err
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, key LineKey) (*Snapshot, error) {
	var snap *Snapshot
	err := s.withStore(ctx, owner, func(store *Store) error {
		err := store.RemoveItem(ctx, canonicalID(key.ProductID), key.Size, key.Color)
		snap, err = s.finish(ctx, owner, store, err)
		return err
	})
	return snap, err
}

func (s *service) Clear(ctx context.Context, owner Owner) (*Snapshot, error) {
	var snap *Snapshot
	err := s.withStore(ctx, owner, func(store *Store) error {
		err := store.Clear(ctx)
		snap, err = s.finish(ctx, owner, store, err)
		return err
	})
	return snap, err
}

// Adopt moves the guest cart into the user cart, merging lines by identity,
// then empties the guest cart.
func (s *service) Adopt(ctx context.Context, guest, user Owner) (*Snapshot, error) {
	if guest.Kind != enums.CartOwnerGuest || user.Kind != enums.CartOwnerUser {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adopt moves a guest cart into a user cart")
	}
	if err := guest.Validate(); err != nil {
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	// Entries are locked in key order so concurrent adopts cannot deadlock.
	owners := []Owner{guest, user}
	slices.SortFunc(owners, func(a, b Owner) int { return strings.Compare(a.StorageKey(), b.StorageKey()) })

	stores := make(map[enums.CartOwnerKind]*Store, 2)
	var snap *Snapshot
	var lockAll func(i int) error
	lockAll = func(i int) error {
		if i < len(owners) {
			return s.withStore(ctx, owners[i], func(store *Store) error {
				stores[owners[i].Kind] = store
				return lockAll(i + 1)
			})
		}
		guestStore, userStore := stores[enums.CartOwnerGuest], stores[enums.CartOwnerUser]
		moved := guestStore.Items()
		if len(moved) == 0 {
			snap = snapshotOf(userStore, nil)
			return nil
		}

		var warnings []string
		if err := userStore.Merge(ctx, moved); err != nil {
			if !errors.Is(err, ErrNotPersisted) {
				return err
			}
			warnings = append(warnings, PersistWarning)
		}
		if err := guestStore.Clear(ctx); err != nil {
			s.logg.Warn(s.logg.WithCartOwner(ctx, guest.String()), "adopted guest cart not cleared")
		}
		snap = snapshotOf(userStore, warnings)
		return nil
	}

	if err := lockAll(0); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *service) Checkout(ctx context.Context, owner Owner, place func(ctx context.Context, items []LineItem) error) (*Snapshot, error) {
	var snap *Snapshot
	err := s.withStore(ctx, owner, func(store *Store) error {
		items := store.Items()
		if err := place(ctx, items); err != nil {
			return err
		}
		err := store.Subtract(ctx, items)
		snap, err = s.finish(ctx, owner, store, err)
		return err
	})
	return snap, err
}

func (s *service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.registry.runJanitor(ctx, interval, func(ctx context.Context, store *Store) {
		if err := store.Flush(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "cart_key", store.Key()), "cart flush failed", err)
		}
	})
}

// finish turns a persistence failure into a warning on the returned snapshot.
func (s *service) finish(ctx context.Context, owner Owner, store *Store, err error) (*Snapshot, error) {
	if err == nil {
		return snapshotOf(store, nil), nil
	}
	if errors.Is(err, ErrNotPersisted) {
		s.logg.Warn(s.logg.WithCartOwner(ctx, owner.String()), "cart change kept in memory only")
		return snapshotOf(store, []string{PersistWarning}), nil
	}
	return nil, err
}

func (s *service) lookup(ctx context.Context, productID string) (*product.ProductDTO, error) {
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	return s.catalog.GetProduct(ctx, id)
}

// canonicalID normalizes uuid product ids so lookups match stored keys; other
// ids pass through untouched.
func canonicalID(productID string) string {
	productID = strings.TrimSpace(productID)
	if id, err := uuid.Parse(productID); err == nil {
		return id.String()
	}
	return productID
}

func checkVariant(dto *product.ProductDTO, size, color string) error {
	if size != "" && len(dto.Sizes) > 0 && !slices.Contains(dto.Sizes, size) {
		return pkgerrors.New(pkgerrors.CodeValidation, "size not offered for this product").
			WithDetails(map[string]any{"size": size, "available": dto.Sizes})
	}
	if color != "" && len(dto.Colors) > 0 && !slices.Contains(dto.Colors, color) {
		return pkgerrors.New(pkgerrors.CodeValidation, "color not offered for this product").
			WithDetails(map[string]any{"color": color, "available": dto.Colors})
	}
	return nil
}

func checkStock(dto *product.ProductDTO, wanted int) error {
	if wanted > dto.Stock {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "not enough stock").
			WithDetails(map[string]any{"productId": dto.ID.String(), "requested": wanted, "available": dto.Stock})
	}
	return nil
}

func productFromDTO(dto *product.ProductDTO) Product {
	return Product{
		ID:     dto.ID.String(),
		Name:   dto.Name,
		Price:  dto.Price,
		Brand:  dto.Brand,
		Images: dto.Images,
	}
}

func snapshotOf(store *Store, warnings []string) *Snapshot {
	items := store.Items()
	total := decimal.Zero
	count := 0
	for _, item := range items {
		total = total.Add(item.LineTotal())
		count += item.Quantity
	}
	return &Snapshot{Items: items, TotalPrice: total, TotalItems: count, Warnings: warnings}
}
