package cart

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/glowhaus/storefront-backend/internal/products"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
	"github.com/glowhaus/storefront-backend/pkg/logger"
)

type stubCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]*product.ProductDTO
}

func newStubCatalog(items ...*product.ProductDTO) *stubCatalog {
	c := &stubCatalog{products: make(map[uuid.UUID]*product.ProductDTO)}
	for _, item := range items {
		c.products[item.ID] = item
	}
	return c
}

func (c *stubCatalog) GetProduct(_ context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func (c *stubCatalog) remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func lipstick(stock int) *product.ProductDTO {
	return &product.ProductDTO{
		ID:     uuid.New(),
		Name:   "Velvet Lipstick",
		Brand:  "Glow",
		Price:  decimal.RequireFromString("18.50"),
		Images: []string{"https://cdn.example.com/lipstick.png"},
		Colors: []string{"Rose", "Ruby"},
		Stock:  stock,
	}
}

func serum(stock int) *product.ProductDTO {
	return &product.ProductDTO{
		ID:    uuid.New(),
		Name:  "Hydra Serum",
		Brand: "Aqua",
		Price: decimal.RequireFromString("30"),
		Sizes: []string{"30ml", "50ml"},
		Stock: stock,
	}
}

type serviceFixture struct {
	svc     Service
	storage *flakyStorage
	catalog *stubCatalog
	clock   *fakeClock
}

func newServiceFixture(t *testing.T, products ...*product.ProductDTO) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		storage: newFlakyStorage(),
		catalog: newStubCatalog(products...),
		clock:   &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)},
	}
	svc, err := NewService(f.storage, f.catalog, logger.Nop(), ServiceOptions{
		Backend: "memory",
		IdleTTL: 30 * time.Minute,
		Now:     f.clock.Now,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(nil, newStubCatalog(), logger.Nop(), ServiceOptions{})
	assert.Error(t, err)
	_, err = NewService(NewMemoryStorage(), nil, logger.Nop(), ServiceOptions{})
	assert.Error(t, err)
	_, err = NewService(NewMemoryStorage(), newStubCatalog(), nil, ServiceOptions{})
	assert.Error(t, err)
}

func TestServiceAddAndView(t *testing.T) {
	lip, ser := lipstick(10), serum(5)
	f := newServiceFixture(t, lip, ser)
	ctx := context.Background()
	owner := UserOwner("u1")

	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 2, Color: "Rose"})
	require.NoError(t, err)
	snap, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: ser.ID.String(), Quantity: 1, Size: "50ml"})
	require.NoError(t, err)

	assert.Len(t, snap.Items, 2)
	assert.Equal(t, 3, snap.TotalItems)
	assert.Equal(t, "67", snap.TotalPrice.String())
	assert.Empty(t, snap.Warnings)

	viewed, err := f.svc.View(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, snap.Items, viewed.Items)
}

func TestServiceAddNormalizesProductID(t *testing.T) {
	lip := lipstick(10)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	owner := UserOwner("u1")

	upper := strings.ToUpper(lip.ID.String())
	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: " " + upper + " ", Quantity: 1})
	require.NoError(t, err)
	snap, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
}

func TestServiceAddRejections(t *testing.T) {
	lip, ser := lipstick(3), serum(5)
	f := newServiceFixture(t, lip, ser)
	ctx := context.Background()
	owner := UserOwner("u1")

	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: "not-a-uuid"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = f.svc.AddItem(ctx, owner, AddItemInput{ProductID: uuid.NewString()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.svc.AddItem(ctx, owner, AddItemInput{ProductID: ser.ID.String(), Size: "5L"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Color: "Teal"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 2})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	snap, err := f.svc.View(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalItems)

	_, err = f.svc.View(ctx, Owner{Kind: "robot", ID: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.View(ctx, UserOwner(""))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceUpdateQuantity(t *testing.T) {
	lip := lipstick(4)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	owner := GuestOwner(uuid.NewString())

	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 1, Color: "Ruby"})
	require.NoError(t, err)

	snap, err := f.svc.UpdateQuantity(ctx, owner, UpdateQuantityInput{ProductID: lip.ID.String(), Quantity: 4, Color: "Ruby"})
	require.NoError(t, err)
	assert.Equal(t, 4, snap.TotalItems)

	_, err = f.svc.UpdateQuantity(ctx, owner, UpdateQuantityInput{ProductID: lip.ID.String(), Quantity: 5, Color: "Ruby"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	f.catalog.remove(lip.ID)
	snap, err = f.svc.UpdateQuantity(ctx, owner, UpdateQuantityInput{ProductID: lip.ID.String(), Quantity: 0, Color: "Ruby"})
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestServiceRemoveAndClear(t *testing.T) {
	lip, ser := lipstick(10), serum(10)
	f := newServiceFixture(t, lip, ser)
	ctx := context.Background()
	owner := UserOwner("u1")

	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, owner, AddItemInput{ProductID: ser.ID.String(), Quantity: 1, Size: "30ml"})
	require.NoError(t, err)

	snap, err := f.svc.RemoveItem(ctx, owner, LineKey{ProductID: ser.ID.String(), Size: "30ml"})
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)

	snap, err = f.svc.Clear(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.True(t, snap.TotalPrice.IsZero())

	payload, err := f.storage.Load(ctx, owner.StorageKey())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
}

func TestServiceNamespacesCartsPerOwner(t *testing.T) {
	lip := lipstick(10)
	f := newServiceFixture(t, lip)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, UserOwner("alice"), AddItemInput{ProductID: lip.ID.String(), Quantity: 2})
	require.NoError(t, err)

	bob, err := f.svc.View(ctx, UserOwner("bob"))
	require.NoError(t, err)
	assert.Empty(t, bob.Items)

	guest, err := f.svc.View(ctx, GuestOwner("alice"))
	require.NoError(t, err)
	assert.Empty(t, guest.Items)

	_, err = f.storage.Load(ctx, "cart:user:alice")
	assert.NoError(t, err)
	_, err = f.storage.Load(ctx, "cart:guest:alice")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestServicePersistFailureBecomesWarning(t *testing.T) {
	lip := lipstick(10)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	owner := UserOwner("u1")

	f.storage.setFailSaves(2)
	snap, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{PersistWarning}, snap.Warnings)
	assert.Equal(t, 1, snap.TotalItems)

	view, err := f.svc.View(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalItems)
}

func TestServiceAdoptMergesGuestCart(t *testing.T) {
	lip, ser := lipstick(10), serum(10)
	f := newServiceFixture(t, lip, ser)
	ctx := context.Background()
	guest := GuestOwner(uuid.NewString())
	user := UserOwner("u1")

	_, err := f.svc.AddItem(ctx, user, AddItemInput{ProductID: lip.ID.String(), Quantity: 1, Color: "Rose"})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, guest, AddItemInput{ProductID: lip.ID.String(), Quantity: 2, Color: "Rose"})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, guest, AddItemInput{ProductID: ser.ID.String(), Quantity: 1, Size: "30ml"})
	require.NoError(t, err)

	snap, err := f.svc.Adopt(ctx, guest, user)
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 3, snap.Items[0].Quantity)
	assert.Equal(t, ser.ID.String(), snap.Items[1].ProductID)

	guestView, err := f.svc.View(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, guestView.Items)

	_, err = f.svc.Adopt(ctx, user, guest)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceAdoptEmptyGuestLeavesUserCart(t *testing.T) {
	lip := lipstick(10)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	user := UserOwner("u1")

	_, err := f.svc.AddItem(ctx, user, AddItemInput{ProductID: lip.ID.String(), Quantity: 1})
	require.NoError(t, err)

	saves := f.storage.saveCount()
	snap, err := f.svc.Adopt(ctx, GuestOwner("g-empty"), user)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalItems)
	assert.Equal(t, saves, f.storage.saveCount())
}

func TestServiceEvictsIdleCarts(t *testing.T) {
	lip := lipstick(10)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	impl := f.svc.(*service)

	_, err := f.svc.AddItem(ctx, UserOwner("u1"), AddItemInput{ProductID: lip.ID.String(), Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.View(ctx, UserOwner("u2"))
	require.NoError(t, err)
	require.Equal(t, 2, impl.registry.size())

	f.clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, impl.registry.sweep())

	f.clock.Advance(25 * time.Minute)
	_, err = f.svc.View(ctx, UserOwner("u2"))
	require.NoError(t, err)
	assert.Equal(t, 1, impl.registry.sweep())
	assert.Equal(t, 1, impl.registry.size())

	snap, err := f.svc.View(ctx, UserOwner("u1"))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalItems)
}

func TestServiceKeepsDirtyCartsUntilFlushed(t *testing.T) {
	lip := lipstick(10)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	impl := f.svc.(*service)

	f.storage.setFailSaves(2)
	_, err := f.svc.AddItem(ctx, UserOwner("u1"), AddItemInput{ProductID: lip.ID.String(), Quantity: 1})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	assert.Equal(t, 0, impl.registry.sweep())

	dirty := impl.registry.dirtyStores()
	require.Len(t, dirty, 1)
	require.NoError(t, dirty[0].Flush(ctx))
	assert.Equal(t, 1, impl.registry.sweep())

	snap, err := f.svc.View(ctx, UserOwner("u1"))
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalItems)
}

func TestServiceConcurrentAddsAreSerialized(t *testing.T) {
	lip := lipstick(1000)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	owner := UserOwner("u1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := f.svc.View(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.TotalItems)

	payload, err := f.storage.Load(ctx, owner.StorageKey())
	require.NoError(t, err)
	items, err := Decode(payload)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].Quantity)
}

func TestServiceRunFlushesDirtyCartsOnShutdown(t *testing.T) {
	lip := lipstick(10)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	owner := UserOwner("u1")

	f.storage.setFailSaves(2)
	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 3})
	require.NoError(t, err)
	_, err = f.storage.Load(ctx, owner.StorageKey())
	require.ErrorIs(t, err, ErrSnapshotNotFound)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.svc.Run(runCtx, time.Hour)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}

	payload, err := f.storage.Load(ctx, owner.StorageKey())
	require.NoError(t, err)
	items, err := Decode(payload)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Empty(t, f.svc.(*service).registry.dirtyStores())
}

func TestServicesSharingStorageSeeEachOthersChanges(t *testing.T) {
	lip, ser := lipstick(10), serum(10)
	storage := NewMemoryStorage()
	catalog := newStubCatalog(lip, ser)
	newInstance := func() Service {
		svc, err := NewService(storage, catalog, logger.Nop(), ServiceOptions{Backend: "memory", IdleTTL: 30 * time.Minute})
		if err != nil {
			t.Fatalf("new service: %v", err)
		}
		return svc
	}
	a, b := newInstance(), newInstance()
	ctx := context.Background()
	owner := UserOwner("u1")

	if _, err := b.View(ctx, owner); err != nil {
		t.Fatalf("view on b: %v", err)
	}
	if _, err := a.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 1, Color: "Rose"}); err != nil {
		t.Fatalf("add on a: %v", err)
	}
	snap, err := b.AddItem(ctx, owner, AddItemInput{ProductID: ser.ID.String(), Quantity: 2, Size: "30ml"})
	if err != nil {
		t.Fatalf("add on b: %v", err)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("instance b should see both lines, got %+v", snap.Items)
	}

	payload, err := storage.Load(ctx, owner.StorageKey())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	items, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0].ProductID != lip.ID.String() {
		t.Fatalf("expected both lines persisted in order, got %+v", items)
	}
}

func TestServiceKeepsUnsavedLinesOverStoredSnapshot(t *testing.T) {
	lip := lipstick(10)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	owner := UserOwner("u1")

	f.storage.setFailSaves(2)
	if _, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	snap, err := f.svc.View(ctx, owner)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if snap.TotalItems != 2 {
		t.Fatalf("dirty cart must not be replaced by the stored snapshot, got %d items", snap.TotalItems)
	}
}

func TestServiceCheckoutLeavesCartWhenPlaceFails(t *testing.T) {
	lip := lipstick(10)
	f := newServiceFixture(t, lip)
	ctx := context.Background()
	owner := UserOwner("u1")
	if _, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lip.ID.String(), Quantity: 2, Color: "Rose"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	failure := pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock")
	_, err := f.svc.Checkout(ctx, owner, func(_ context.Context, items []LineItem) error {
		if len(items) != 1 || items[0].Quantity != 2 {
			t.Errorf("place saw %+v", items)
		}
		return failure
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected the place error back, got %v", err)
	}

	snap, err := f.svc.View(ctx, owner)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if snap.TotalItems != 2 {
		t.Fatalf("failed checkout must keep the cart, got %d items", snap.TotalItems)
	}

	snap, err = f.svc.Checkout(ctx, owner, func(context.Context, []LineItem) error { return nil })
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(snap.Items) != 0 {
		t.Fatalf("expected ordered lines removed, got %+v", snap.Items)
	}
}
