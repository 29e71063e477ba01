package middleware

import (
	"net/http"

	"github.com/recophone/recophone-backend/api/responses"
	pkgauth "github.com/recophone/recophone-backend/pkg/auth"
	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

// AdminAuth validates the admin session cookie and seeds the request
// context with the authenticated username. A malformed or expired token
// clears the cookie so the browser drops the dead session.
func AdminAuth(cfg config.JWTConfig, secureCookies bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(pkgauth.SessionCookieName)
			if err != nil || cookie.Value == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseSessionToken(cfg, cookie.Value)
			if err != nil {
				http.SetCookie(w, pkgauth.ClearedSessionCookie(secureCookies))
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session"))
				return
			}

			ctx := WithAdminUser(r.Context(), claims.Username)
			if logg != nil {
				ctx = logg.WithField(ctx, "admin_user", claims.Username)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
