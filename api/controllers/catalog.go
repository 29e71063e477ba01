package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recophone/recophone-backend/api/responses"
	"github.com/recophone/recophone-backend/internal/catalog"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

// CatalogCategories lists the device categories of the pricing table.
func CatalogCategories(cat *catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": cat.Categories()})
	}
}

// CatalogModels lists the models of one category.
func CatalogModels(cat *catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		category := chi.URLParam(r, "category")
		responses.WriteSuccess(w, map[string]any{
			"category": category,
			"brand":    string(catalog.BrandOfCategory(category)),
			"models":   cat.ModelsOf(category),
		})
	}
}

// CatalogRepairs returns the priced repair options of a model, with the
// color choices for the repairs that need one. An unknown pairing is an
// empty list, not an error.
func CatalogRepairs(cat *catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	type repairView struct {
		Type          string   `json:"type"`
		Price         float64  `json:"price"`
		PartKind      string   `json:"partKind,omitempty"`
		RequiresColor bool     `json:"requiresColor"`
		Colors        []string `json:"colors,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		category := r.URL.Query().Get("category")
		model := r.URL.Query().Get("model")

		repairs := cat.ResolveRepairs(category, model)
		views := make([]repairView, 0, len(repairs))
		var colors []string
		for _, repair := range repairs {
			view := repairView{Type: repair.Type, Price: repair.Price}
			if kind, ok := catalog.RequiresColor(repair.Type); ok {
				view.PartKind = string(kind)
				view.RequiresColor = true
				if colors == nil {
					colors = cat.ColorsFor(category, model)
				}
				view.Colors = colors
			}
			views = append(views, view)
		}
		responses.WriteSuccess(w, map[string]any{
			"category": category,
			"model":    model,
			"repairs":  views,
		})
	}
}

// CatalogExtraServices lists the model-independent add-ons.
func CatalogExtraServices(cat *catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"services": cat.ExtraServices()})
	}
}
