package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/recophone/recophone-backend/api/responses"
	"github.com/recophone/recophone-backend/api/validators"
	"github.com/recophone/recophone-backend/internal/admin"
	"github.com/recophone/recophone-backend/pkg/auth"
	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

// AdminLogin verifies the back-office credentials and sets the session
// cookie. The token never appears in the response body.
func AdminLogin(svc admin.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || cfg == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		var payload admin.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload, clientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, auth.SessionCookie(result.Token, cfg.JWT.Expiration(), cfg.App.IsProd()))
		responses.WriteSuccess(w, result)
	}
}

// AdminLogout clears the session cookie. Always succeeds; there is no
// server-side session to revoke.
func AdminLogout(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secure := cfg != nil && cfg.App.IsProd()
		http.SetCookie(w, auth.ClearedSessionCookie(secure))
		responses.WriteSuccess(w, map[string]bool{"logged_out": true})
	}
}

// AdminQuotes lists finalized quotes, newest first, with pagination and
// free-text search over name, email and quote number.
func AdminQuotes(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "per_page", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListQuotes(r.Context(), admin.ListQuotesParams{
			Page:    page,
			PerPage: perPage,
			Search:  validators.SanitizeString(r.URL.Query().Get("search"), 120),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminQuoteDetail returns one finalized quote by its number.
func AdminQuoteDetail(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		summary, err := svc.GetQuote(r.Context(), chi.URLParam(r, "number"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// clientIP prefers the first X-Forwarded-For hop since the service runs
// behind a reverse proxy.
func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		parts := strings.Split(header, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
