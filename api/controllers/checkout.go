package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recophone/recophone-backend/api/responses"
	"github.com/recophone/recophone-backend/api/validators"
	"github.com/recophone/recophone-backend/internal/payments"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

type checkoutSessionRequest struct {
	Plan          string              `json:"plan"`
	Items         []payments.CartItem `json:"items"`
	CustomerEmail string              `json:"customerEmail"`
}

// CheckoutCreateSession opens a hosted Stripe Checkout session. A plan
// name means a subscription; otherwise the cart items pay one-time.
func CheckoutCreateSession(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var link *payments.CheckoutLink
		var err error
		if payload.Plan != "" {
			link, err = svc.CreatePlanSession(r.Context(), payments.PlanCheckoutRequest{
				Plan:          payload.Plan,
				CustomerEmail: payload.CustomerEmail,
			})
		} else {
			link, err = svc.CreateCartSession(r.Context(), payments.CartCheckoutRequest{
				Items:         payload.Items,
				CustomerEmail: payload.CustomerEmail,
			})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, link)
	}
}

// CheckoutVerifySession reports the outcome of a completed session so
// the thank-you page can render a receipt.
func CheckoutVerifySession(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		details, err := svc.VerifySession(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}
