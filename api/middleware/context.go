package middleware

import (
	"context"

	"github.com/glowhaus/storefront-backend/internal/cart"
	"github.com/glowhaus/storefront-backend/internal/identity"
)

type contextKey string

const ctxGuestID contextKey = "guest_id"

// UserIDFromContext returns the signed-in user's uid, or "" for guests.
func UserIDFromContext(ctx context.Context) string {
	if u := identity.FromContext(ctx); u != nil {
		return u.UID
	}
	return ""
}

// GuestIDFromContext returns the X-Guest-Id carried by the request.
func GuestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxGuestID).(string); ok {
		return v
	}
	return ""
}

// WithGuestID injects the guest identifier into the context.
func WithGuestID(ctx context.Context, guestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxGuestID, guestID)
}

// CartOwnerFromContext picks the user's cart when signed in, else the guest cart.
func CartOwnerFromContext(ctx context.Context) (cart.Owner, bool) {
	if uid := UserIDFromContext(ctx); uid != "" {
		return cart.UserOwner(uid), true
	}
	if gid := GuestIDFromContext(ctx); gid != "" {
		return cart.GuestOwner(gid), true
	}
	return cart.Owner{}, false
}
