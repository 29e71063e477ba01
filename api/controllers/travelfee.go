package controllers

import (
	"net/http"

	"github.com/recophone/recophone-backend/api/responses"
	"github.com/recophone/recophone-backend/api/validators"
	"github.com/recophone/recophone-backend/internal/travelfee"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

type travelFeeRequest struct {
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	City       string `json:"city" validate:"required"`
}

// TravelFeeCompute resolves the billable distance and fee for an
// at-home address. Geocoding misses come back as null fields, never as
// an error: the wizard shows "unknown" and lets the customer continue.
func TravelFeeCompute(calc *travelfee.Calculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "travel fee calculator unavailable"))
			return
		}

		var payload travelFeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr := travelfee.Address{
			Street:     validators.SanitizeString(payload.Street, 120),
			Number:     validators.SanitizeString(payload.Number, 20),
			PostalCode: validators.SanitizeString(payload.PostalCode, 12),
			City:       validators.SanitizeString(payload.City, 80),
		}
		if !addr.Complete() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "complete address required"))
			return
		}

		responses.WriteSuccess(w, calc.Compute(r.Context(), addr))
	}
}
