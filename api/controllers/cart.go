package controllers

import (
	"net/http"
	"strings"

	"github.com/glowhaus/storefront-backend/api/middleware"
	"github.com/glowhaus/storefront-backend/api/responses"
	"github.com/glowhaus/storefront-backend/api/validators"
	"github.com/glowhaus/storefront-backend/internal/cart"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
	"github.com/glowhaus/storefront-backend/pkg/logger"
)

type cartLineRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size" validate:"max=32"`
	Color     string `json:"color" validate:"max=32"`
}

func (c cartLineRequest) trimmed() cartLineRequest {
	return cartLineRequest{
		ProductID: strings.TrimSpace(c.ProductID),
		Quantity:  c.Quantity,
		Size:      strings.TrimSpace(c.Size),
		Color:     strings.TrimSpace(c.Color),
	}
}

func cartOwner(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (cart.Owner, bool) {
	owner, ok := middleware.CartOwnerFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sign in or send "+middleware.GuestIDHeader))
		return cart.Owner{}, false
	}
	return owner, true
}

func cartUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
}

// CartView returns the caller's cart.
func CartView(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			cartUnavailable(w, r, logg)
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}
		snap, err := svc.View(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartAddItem adds a product line, merging into an existing line of the same variant.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			cartUnavailable(w, r, logg)
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}
		var payload cartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload = payload.trimmed()

		snap, err := svc.AddItem(r.Context(), owner, cart.AddItemInput{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			Size:      payload.Size,
			Color:     payload.Color,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartUpdateItem sets a line's quantity; zero or less removes it.
func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			cartUnavailable(w, r, logg)
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}
		var payload cartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload = payload.trimmed()

		snap, err := svc.UpdateQuantity(r.Context(), owner, cart.UpdateQuantityInput{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			Size:      payload.Size,
			Color:     payload.Color,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartRemoveItem drops one line identified by productId, size and color query
// parameters. Removing an absent line is not an error.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			cartUnavailable(w, r, logg)
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}
		var key cart.LineKey
		for _, field := range []struct {
			name   string
			maxLen int
			dest   *string
		}{
			{"productId", 64, &key.ProductID},
			{"size", 32, &key.Size},
			{"color", 32, &key.Color},
		} {
			value, err := validators.ParseQueryField(r, field.name, field.maxLen)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			*field.dest = value
		}
		if key.ProductID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId is required").
				WithDetails(map[string]string{"productId": "is required"}))
			return
		}

		snap, err := svc.RemoveItem(r.Context(), owner, key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			cartUnavailable(w, r, logg)
			return
		}
		owner, ok := cartOwner(w, r, logg)
		if !ok {
			return
		}
		snap, err := svc.Clear(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartAdopt merges the guest cart named by X-Guest-Id into the signed-in
// user's cart.
func CartAdopt(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			cartUnavailable(w, r, logg)
			return
		}
		uid := middleware.UserIDFromContext(r.Context())
		if uid == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		guestID := middleware.GuestIDFromContext(r.Context())
		if guestID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, middleware.GuestIDHeader+" header required"))
			return
		}

		snap, err := svc.Adopt(r.Context(), cart.GuestOwner(guestID), cart.UserOwner(uid))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}
