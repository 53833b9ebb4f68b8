package cart

import (
	"container/list"
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/glowhaus/storefront-backend/pkg/logger"
	"github.com/glowhaus/storefront-backend/pkg/metrics"
)

// DefaultPlaceholderImage is used when a product carries no image.
const DefaultPlaceholderImage = "https://via.placeholder.com/150"

// Options tunes a Store. Every field is optional.
type Options struct {
	// Backend labels metrics and errors, e.g. "redis".
	Backend          string
	PlaceholderImage string
	Logger           *logger.Logger
	Metrics          *metrics.CartMetrics
}

// Store is an insertion-ordered set of line items keyed by LineKey, written
// through to Storage after every mutation.
type Store struct {
	mu      sync.Mutex
	key     string
	storage Storage
	opts    Options

	order *list.List
	index map[LineKey]*list.Element
	dirty bool
}

// Open hydrates the cart saved under key. A missing, unreadable or corrupt
// snapshot yields an empty cart; Open never fails.
func Open(ctx context.Context, storage Storage, key string, opts Options) *Store {
	if opts.PlaceholderImage == "" {
		opts.PlaceholderImage = DefaultPlaceholderImage
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Backend == "" {
		opts.Backend = "unknown"
	}
	s := &Store{
		key:     key,
		storage: storage,
		opts:    opts,
		order:   list.New(),
		index:   make(map[LineKey]*list.Element),
	}
	s.hydrate(ctx)
	return s
}

func (s *Store) hydrate(ctx context.Context) {
	if items, ok := s.load(ctx); ok {
		s.replace(items)
	}
}

// Reload replaces a clean cart with the saved snapshot so changes written by
// other processes sharing the backend are picked up. Dirty carts keep their
// unsaved lines. A read error keeps the cached lines.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		return
	}
	if items, ok := s.load(ctx); ok {
		s.replace(items)
	}
}

// load reads and decodes the snapshot. ok is false only when the backend could
// not be read; a missing or corrupt snapshot loads as an empty cart.
func (s *Store) load(ctx context.Context) ([]LineItem, bool) {
	logCtx := s.opts.Logger.WithFields(ctx, map[string]any{"cart_key": s.key, "backend": s.opts.Backend})

	payload, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return nil, true
		}
		s.opts.Metrics.IncHydrateFailure("read")
		s.opts.Logger.Warn(s.opts.Logger.WithField(logCtx, "error", err.Error()), "cart snapshot unreadable")
		return nil, false
	}

	items, err := Decode(payload)
	if err != nil {
		s.opts.Metrics.IncHydrateFailure("decode")
		s.opts.Logger.Warn(s.opts.Logger.WithField(logCtx, "error", err.Error()), "cart snapshot malformed, starting empty")
		return nil, true
	}
	return items, true
}

func (s *Store) replace(items []LineItem) {
	s.order.Init()
	clear(s.index)
	for _, item := range items {
		s.index[item.Key()] = s.order.PushBack(item)
	}
}

// Key returns the storage key this store writes to.
func (s *Store) Key() string { return s.key }

// AddItem adds quantity units of product in the given variant. A quantity below
// one counts as one. An existing line keeps its position and captured display
// fields and only grows in quantity.
func (s *Store) AddItem(ctx context.Context, product Product, quantity int, size, color string) error {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := LineItem{
		ProductID:     product.ID,
		Name:          product.Name,
		UnitPrice:     product.Price,
		ImageURL:      product.firstImage(s.opts.PlaceholderImage),
		Brand:         product.Brand,
		SelectedSize:  size,
		SelectedColor: color,
		Quantity:      quantity,
	}
	s.merge(candidate)
	s.opts.Metrics.IncMutation("add")
	return s.persist(ctx)
}

// Merge adds every given line additively, as repeated AddItem calls would, and
// persists once.
func (s *Store) Merge(ctx context.Context, items []LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		s.merge(item)
	}
	s.opts.Metrics.IncMutation("merge")
	return s.persist(ctx)
}

func (s *Store) merge(candidate LineItem) {
	key := candidate.Key()
	if el, ok := s.index[key]; ok {
		existing := el.Value.(LineItem)
		existing.Quantity += candidate.Quantity
		el.Value = existing
		return
	}
	s.index[key] = s.order.PushBack(candidate)
}

// UpdateQuantity replaces the quantity of the matching line. A quantity of zero
// or less removes the line. Unknown lines are left alone.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int, size, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := LineKey{ProductID: productID, Size: size, Color: color}
	if el, ok := s.index[key]; ok {
		if quantity <= 0 {
			s.order.Remove(el)
			delete(s.index, key)
		} else {
			item := el.Value.(LineItem)
			item.Quantity = quantity
			el.Value = item
		}
	}
	s.opts.Metrics.IncMutation("update")
	return s.persist(ctx)
}

// RemoveItem drops the matching line if present.
func (s *Store) RemoveItem(ctx context.Context, productID, size, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := LineKey{ProductID: productID, Size: size, Color: color}
	if el, ok := s.index[key]; ok {
		s.order.Remove(el)
		delete(s.index, key)
	}
	s.opts.Metrics.IncMutation("remove")
	return s.persist(ctx)
}

// Subtract takes the given quantities off the matching lines, dropping lines
// that reach zero, and persists once. Lines not in items are untouched.
func (s *Store) Subtract(ctx context.Context, items []LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		el, ok := s.index[item.Key()]
		if !ok {
			continue
		}
		existing := el.Value.(LineItem)
		existing.Quantity -= item.Quantity
		if existing.Quantity < 1 {
			s.order.Remove(el)
			delete(s.index, item.Key())
			continue
		}
		el.Value = existing
	}
	s.opts.Metrics.IncMutation("subtract")
	return s.persist(ctx)
}

// Clear empties the cart and persists the empty collection.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order.Init()
	clear(s.index)
	s.opts.Metrics.IncMutation("clear")
	return s.persist(ctx)
}

// persist writes the full collection, retrying once. Caller holds s.mu.
func (s *Store) persist(ctx context.Context) error {
	payload, err := Encode(s.itemsLocked())
	if err != nil {
		s.dirty = true
		return &PersistError{Key: s.key, Backend: s.opts.Backend, Err: err}
	}

	err = s.storage.Save(ctx, s.key, payload)
	if err == nil {
		s.dirty = false
		return nil
	}
	s.opts.Metrics.IncPersistRetry(s.opts.Backend)
	if err = s.storage.Save(ctx, s.key, payload); err == nil {
		s.dirty = false
		return nil
	}

	s.dirty = true
	s.opts.Metrics.IncPersistFailure(s.opts.Backend)
	logCtx := s.opts.Logger.WithFields(ctx, map[string]any{"cart_key": s.key, "backend": s.opts.Backend})
	s.opts.Logger.Error(logCtx, "cart snapshot not persisted", err)
	return &PersistError{Key: s.key, Backend: s.opts.Backend, Err: err}
}

// Dirty reports whether the in-memory cart differs from the last saved snapshot.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush retries persisting a dirty cart. It is a no-op for clean carts.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persist(ctx)
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Store) itemsLocked() []LineItem {
	out := make([]LineItem, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(LineItem))
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// TotalPrice sums UnitPrice × Quantity over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for el := s.order.Front(); el != nil; el = el.Next() {
		total = total.Add(el.Value.(LineItem).LineTotal())
	}
	return total
}

// TotalItemCount sums quantities over all lines.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for el := s.order.Front(); el != nil; el = el.Next() {
		n += el.Value.(LineItem).Quantity
	}
	return n
}

// QuantityOf returns the quantity held for key, zero when absent.
func (s *Store) QuantityOf(key LineKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.index[key]; ok {
		return el.Value.(LineItem).Quantity
	}
	return 0
}

func (s *Store) Contains(key LineKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[key]
	return ok
}
