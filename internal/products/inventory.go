package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
)

// Inventory adjusts stock inside a transaction owned by the caller.
type Inventory struct {
	repo *Repository
}

// NewInventory wraps repo for transactional stock changes.
func NewInventory(repo *Repository) (*Inventory, error) {
	if repo == nil {
		return nil, errors.New("product repository required")
	}
	return &Inventory{repo: repo}, nil
}

// Reserve locks the product row and takes qty units off the shelf.
func (i *Inventory) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := i.repo.WithTx(tx)
	if _, err := repo.FindForUpdate(ctx, productID); err != nil {
		return mapLookupError(err)
	}
	if err := repo.DecrementStock(ctx, productID, qty); err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	return nil
}

// Release puts qty units back. Deleted products are skipped.
func (i *Inventory) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return nil
	}
	if err := i.repo.WithTx(tx).IncrementStock(ctx, productID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
	}
	return nil
}
