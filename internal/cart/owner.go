package cart

import (
	"strings"

	"github.com/glowhaus/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
)

// Owner identifies whose cart is addressed: a signed-in user or an anonymous guest.
type Owner struct {
	Kind enums.CartOwnerKind
	ID   string
}

func UserOwner(uid string) Owner {
	return Owner{Kind: enums.CartOwnerUser, ID: strings.TrimSpace(uid)}
}

func GuestOwner(guestID string) Owner {
	return Owner{Kind: enums.CartOwnerGuest, ID: strings.TrimSpace(guestID)}
}

// StorageKey is the per-owner key snapshots are saved under, e.g. cart:user:abc.
func (o Owner) StorageKey() string {
	return "cart:" + o.Kind.String() + ":" + o.ID
}

func (o Owner) String() string {
	return o.Kind.String() + ":" + o.ID
}

func (o Owner) Validate() error {
	if !o.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown cart owner kind")
	}
	if o.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner id is required")
	}
	return nil
}
