package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

//go:embed data/prices.json
var pricesJSON []byte

//go:embed data/device_colors.json
var deviceColorsJSON []byte

// RepairOption is one priced repair for a model. Field names mirror the
// pricing file maintained by the shop.
type RepairOption struct {
	Type  string  `json:"type"`
	Price float64 `json:"prix"`
}

// Model groups the repairs catalogued for one device model.
type Model struct {
	Name    string         `json:"nom"`
	Repairs []RepairOption `json:"reparations"`
}

// Category is a brand/series grouping of models.
type Category struct {
	Name   string  `json:"categorie"`
	Models []Model `json:"modeles"`
}

// Catalog holds the pricing table and the per-brand color database.
// It is immutable after Load, so it is safe for concurrent readers.
type Catalog struct {
	categories []Category
	colors     map[BrandKey]map[string][]string
}

// Extra services offered on every quote regardless of model.
var extraServices = []RepairOption{
	{Type: "Désoxydation", Price: 80},
	{Type: "Récupération / Transfert de données", Price: 50},
	{Type: "Nettoyage & Diagnostic", Price: 15},
}

// Load parses the embedded pricing and color data and checks the
// uniqueness invariants the wizard relies on.
func Load() (*Catalog, error) {
	var categories []Category
	if err := json.Unmarshal(pricesJSON, &categories); err != nil {
		return nil, fmt.Errorf("parsing pricing data: %w", err)
	}

	seenCategories := map[string]bool{}
	for _, cat := range categories {
		if seenCategories[cat.Name] {
			return nil, fmt.Errorf("duplicate category %q in pricing data", cat.Name)
		}
		seenCategories[cat.Name] = true

		seenModels := map[string]bool{}
		for _, mod := range cat.Models {
			if seenModels[mod.Name] {
				return nil, fmt.Errorf("duplicate model %q in category %q", mod.Name, cat.Name)
			}
			seenModels[mod.Name] = true
		}
	}

	var colors map[BrandKey]map[string][]string
	if err := json.Unmarshal(deviceColorsJSON, &colors); err != nil {
		return nil, fmt.Errorf("parsing color data: %w", err)
	}

	return &Catalog{categories: categories, colors: colors}, nil
}

// Categories returns the category names in catalogue order.
func (c *Catalog) Categories() []string {
	return lo.Map(c.categories, func(cat Category, _ int) string {
		return cat.Name
	})
}

// ModelsOf returns the model names for a category in catalogue order,
// or an empty slice when the category is unknown.
func (c *Catalog) ModelsOf(category string) []string {
	cat, found := lo.Find(c.categories, func(cat Category) bool {
		return cat.Name == category
	})
	if !found {
		return []string{}
	}
	return lo.Map(cat.Models, func(mod Model, _ int) string {
		return mod.Name
	})
}

// ResolveRepairs returns the repairs catalogued for a category/model pair
// in catalogue order. Order matters downstream: it drives document row
// order. Unknown or unset pairs yield an empty slice, never an error.
func (c *Catalog) ResolveRepairs(category, model string) []RepairOption {
	if category == "" || model == "" {
		return []RepairOption{}
	}
	cat, found := lo.Find(c.categories, func(cat Category) bool {
		return cat.Name == category
	})
	if !found {
		return []RepairOption{}
	}
	mod, found := lo.Find(cat.Models, func(mod Model) bool {
		return mod.Name == model
	})
	if !found {
		return []RepairOption{}
	}
	return mod.Repairs
}

// ExtraServices returns the fixed add-on services offered on every quote.
func (c *Catalog) ExtraServices() []RepairOption {
	out := make([]RepairOption, len(extraServices))
	copy(out, extraServices)
	return out
}

// ResolveColors returns the known colors for a brand/model pairing, or an
// empty slice when the pairing is absent from the color database.
func (c *Catalog) ResolveColors(brand BrandKey, model string) []string {
	models, ok := c.colors[brand]
	if !ok {
		return []string{}
	}
	colors, ok := models[model]
	if !ok {
		return []string{}
	}
	return colors
}

// ColorsFor resolves the colors for a category/model pair by inferring the
// brand key from the category label first.
func (c *Catalog) ColorsFor(category, model string) []string {
	brand, ok := BrandKeyOfCategory(category)
	if !ok {
		return []string{}
	}
	return c.ResolveColors(brand, model)
}
