package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var errBackendDown = errors.New("backend down")

// flakyStorage fails the next failSaves saves and records every payload written.
type flakyStorage struct {
	mu        sync.Mutex
	inner     *MemoryStorage
	failSaves int
	saves     int
	loadErr   error
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{inner: NewMemoryStorage()}
}

func (f *flakyStorage) Load(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	loadErr := f.loadErr
	f.mu.Unlock()
	if loadErr != nil {
		return nil, loadErr
	}
	return f.inner.Load(ctx, key)
}

func (f *flakyStorage) Save(ctx context.Context, key string, payload []byte) error {
	f.mu.Lock()
	f.saves++
	if f.failSaves > 0 {
		f.failSaves--
		f.mu.Unlock()
		return errBackendDown
	}
	f.mu.Unlock()
	return f.inner.Save(ctx, key, payload)
}

func (f *flakyStorage) setFailSaves(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSaves = n
}

func (f *flakyStorage) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func testProduct(id string, price string) Product {
	return Product{
		ID:     id,
		Name:   "Product " + id,
		Price:  decimal.RequireFromString(price),
		Brand:  "Glow",
		Images: []string{"https://cdn.example.com/" + id + ".png"},
	}
}
