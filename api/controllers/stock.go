package controllers

import (
	"net/http"

	"github.com/recophone/recophone-backend/api/responses"
	"github.com/recophone/recophone-backend/api/validators"
	"github.com/recophone/recophone-backend/internal/stock"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

// StockList serves the refurbished device listing with search, brand
// filter and sort. Results come from the supplier feed cache.
func StockList(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		listing, err := svc.List(r.Context(), stock.ListParams{
			Query: validators.SanitizeString(r.URL.Query().Get("search"), 120),
			Brand: validators.SanitizeString(r.URL.Query().Get("brand"), 40),
			Sort:  r.URL.Query().Get("sort"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// StockBrands lists the brand filter values shown above the grid.
func StockBrands(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"brands": svc.Brands()})
	}
}
