package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/glowhaus/storefront-backend/api/responses"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
	"github.com/glowhaus/storefront-backend/pkg/logger"
)

// GuestIDHeader carries the anonymous shopper's cart id.
const GuestIDHeader = "X-Guest-Id"

// GuestID reads the optional X-Guest-Id header. Values must be uuids.
func GuestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(GuestIDHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid guest id").
					WithDetails(map[string]any{"header": GuestIDHeader}))
				return
			}
			ctx := WithGuestID(r.Context(), id.String())
			if logg != nil {
				ctx = logg.WithField(ctx, "guest_id", id.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
