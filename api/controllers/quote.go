package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recophone/recophone-backend/api/middleware"
	"github.com/recophone/recophone-backend/api/responses"
	"github.com/recophone/recophone-backend/api/validators"
	"github.com/recophone/recophone-backend/internal/finalize"
	"github.com/recophone/recophone-backend/internal/quote"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

// QuoteDraftFetch returns the session's draft, blank when absent or
// expired.
func QuoteDraftFetch(svc quote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		draft, err := svc.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// QuoteDraftSave overwrites the session's draft with the client copy.
func QuoteDraftSave(svc quote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var draft quote.Draft
		if err := validators.DecodeJSONBody(r, &draft); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saved, err := svc.Save(r.Context(), middleware.SessionIDFromContext(r.Context()), draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, saved)
	}
}

type quoteNavigateRequest struct {
	Step int `json:"step"`
}

// QuoteNavigate moves the wizard to a step, enforcing the per-step gates
// on any forward move.
func QuoteNavigate(svc quote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload quoteNavigateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := svc.Navigate(r.Context(), middleware.SessionIDFromContext(r.Context()), payload.Step)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// QuoteDeviceAdd appends a blank device tab and activates it.
func QuoteDeviceAdd(svc quote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		draft, err := svc.AddDevice(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, draft)
	}
}

// QuoteDeviceRemove drops a device tab. Removing the last one leaves a
// blank device so the wizard never has zero tabs.
func QuoteDeviceRemove(svc quote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "device index must be a number"))
			return
		}
		draft, err := svc.RemoveDevice(r.Context(), middleware.SessionIDFromContext(r.Context()), index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

type quoteModelRequest struct {
	Category string `json:"category" validate:"required"`
	Model    string `json:"model" validate:"required"`
}

// QuoteModelSelect sets the active device's category/model after
// checking the pairing exists in the catalog.
func QuoteModelSelect(svc quote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload quoteModelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := svc.SelectModel(r.Context(), middleware.SessionIDFromContext(r.Context()), payload.Category, payload.Model)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// QuoteSchedule exposes the scheduling constraints plus the next free
// Saturday so the date picker needs no client-side copy of them.
func QuoteSchedule(blockedDates []string, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"slotHours":    quote.SlotHours(),
			"blockedDates": blockedDates,
		}
		if next, ok := quote.NextAvailableSlot(now(), blockedDates); ok {
			payload["nextSlot"] = next.Format(time.RFC3339)
		}
		responses.WriteSuccess(w, payload)
	}
}

// QuoteFinalize runs the terminal build/upload/email/record sequence.
// The draft survives any failure so the customer can retry.
func QuoteFinalize(quotes quote.Service, finalizer finalize.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if quotes == nil || finalizer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "finalize service unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		draft, err := quotes.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := finalizer.Finalize(r.Context(), sessionID, draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

// QuoteDraftClear discards the session's draft.
func QuoteDraftClear(svc quote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		if err := svc.Clear(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}
