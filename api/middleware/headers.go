package middleware

import (
	"net/http"
	"strings"

	"github.com/recophone/recophone-backend/api/responses"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

const (
	sessionIDHeader = "X-Session-ID"
	cartIDHeader    = "X-Cart-ID"
	maxClientID     = 128
)

// SessionContext requires the wizard session header. Drafts are keyed
// on this id, so a request without one has nothing to act on.
func SessionContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := clientID(r, sessionIDHeader)
			if sessionID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id header required"))
				return
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CartContext requires the cart header for cart operations.
func CartContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cartID := clientID(r, cartIDHeader)
			if cartID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart id header required"))
				return
			}

			ctx := WithCartID(r.Context(), cartID)
			if logg != nil {
				ctx = logg.WithCartID(ctx, cartID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientID reads an opaque client-generated identifier, bounded so a
// hostile header cannot blow up Redis keys.
func clientID(r *http.Request, header string) string {
	id := strings.TrimSpace(r.Header.Get(header))
	if len(id) > maxClientID {
		return ""
	}
	return id
}
