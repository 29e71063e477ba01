package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recophone/recophone-backend/api/middleware"
	"github.com/recophone/recophone-backend/api/responses"
	"github.com/recophone/recophone-backend/api/validators"
	cartsvc "github.com/recophone/recophone-backend/internal/cart"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

// CartFetch returns the cart state and totals, creating an empty cart
// on first sight of the id.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		snapshot, err := svc.Get(r.Context(), middleware.CartIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

type cartAddRequest struct {
	ID        string         `json:"id"`
	Type      string         `json:"type" validate:"required"`
	Title     string         `json:"title" validate:"required"`
	Subtitle  string         `json:"subtitle"`
	UnitPrice float64        `json:"unitPrice"`
	VATRate   int            `json:"vatRate"`
	Quantity  int            `json:"quantity"`
	Metadata  map[string]any `json:"metadata"`
}

// CartAddItem appends a line, merging it into an identical existing
// line instead of duplicating it.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line := cartsvc.Line{
			ID:        payload.ID,
			Type:      cartsvc.LineType(payload.Type),
			Title:     validators.SanitizeString(payload.Title, 250),
			Subtitle:  validators.SanitizeString(payload.Subtitle, 250),
			UnitPrice: payload.UnitPrice,
			VATRate:   cartsvc.VATRate(payload.VATRate),
			Quantity:  payload.Quantity,
			Metadata:  payload.Metadata,
		}
		if line.ID == "" {
			line.ID = cartsvc.NewLineID()
		}

		snapshot, err := svc.AddItem(r.Context(), middleware.CartIDFromContext(r.Context()), line)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, snapshot)
	}
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartUpdateQuantity sets a line's quantity; zero removes the line.
func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.UpdateQuantity(r.Context(), middleware.CartIDFromContext(r.Context()), chi.URLParam(r, "lineID"), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// CartRemoveItem drops a line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		snapshot, err := svc.RemoveItem(r.Context(), middleware.CartIDFromContext(r.Context()), chi.URLParam(r, "lineID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// CartClear empties the cart but keeps the id alive.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		snapshot, err := svc.Clear(r.Context(), middleware.CartIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

type cartCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// CartApplyCoupon records a coupon code on the cart. Codes are kept
// verbatim; redemption happens at checkout.
func CartApplyCoupon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.ApplyCoupon(r.Context(), middleware.CartIDFromContext(r.Context()), validators.SanitizeString(payload.Code, 64))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}
