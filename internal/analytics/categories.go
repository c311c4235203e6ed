package analytics

import (
	"context"
	"sort"
	"strings"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
)

// Category classification types.
const (
	TypeAll      = "all"
	TypeProduct  = "product"
	TypeLocation = "location"
)

// soldToken marks sales-count labels ("Terjual 100+"); those are noise,
// not categories.
const soldToken = "terjual"

// keywordCategories maps product-name tokens to a fixed category
// vocabulary.
var keywordCategories = []struct {
	Category string
	Keywords []string
}{
	{"Electronics", []string{"laptop", "komputer", "computer", "monitor", "keyboard", "mouse", "ssd", "processor", "smartphone", "handphone", "tablet", "printer"}},
	{"Gaming", []string{"gaming", "game", "console", "playstation", "ps5", "ps4", "xbox", "nintendo", "joystick", "controller"}},
	{"Automotive", []string{"decal", "motor", "mobil", "helm", "sparepart", "velg", "knalpot", "oli", "aki"}},
	{"Fashion", []string{"baju", "kaos", "celana", "jaket", "sepatu", "tas", "dress", "kemeja", "hoodie", "topi"}},
}

// ExtractCategories scans every resolvable cached result, deduplicates
// products by id across queries, and collects category strings from
// badge titles (location type), label-group titles (product type,
// excluding sold-count labels), and keyword matches against product
// names. typeFilter selects all/product/location; queryFilter applies
// fuzzy-match extraction over the filtered set. The result is sorted
// alphabetically and truncated to limit.
func (a *Aggregator) ExtractCategories(ctx context.Context, typeFilter, queryFilter string, limit int) []models.Category {
	seenProducts := make(map[string]bool)
	found := make(map[models.Category]bool)

	for _, r := range a.resolveResults(ctx) {
		for _, p := range r.Products {
			if p.ID != "" {
				if seenProducts[p.ID] {
					continue
				}
				seenProducts[p.ID] = true
			}
			for _, c := range CategoriesFromProduct(p) {
				found[c] = true
			}
		}
	}

	var cats []models.Category
	for c := range found {
		if typeFilter != "" && typeFilter != TypeAll && c.Type != typeFilter {
			continue
		}
		cats = append(cats, c)
	}

	if queryFilter != "" {
		byName := make(map[string][]models.Category)
		names := make([]string, 0, len(cats))
		for _, c := range cats {
			if len(byName[c.Name]) == 0 {
				names = append(names, c.Name)
			}
			byName[c.Name] = append(byName[c.Name], c)
		}
		var kept []models.Category
		for _, name := range extractBest(queryFilter, names, 0) {
			kept = append(kept, byName[name]...)
		}
		cats = kept
	}

	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Name != cats[j].Name {
			return cats[i].Name < cats[j].Name
		}
		return cats[i].Type < cats[j].Type
	})

	if limit > 0 && len(cats) > limit {
		cats = cats[:limit]
	}
	return cats
}

// CategoriesFromProduct collects the category strings one product
// contributes. Exposed so a live batch can be categorized without
// going through the cache (the CLI categories command does this).
func CategoriesFromProduct(p models.Product) []models.Category {
	var out []models.Category

	for _, b := range p.Badges {
		title := strings.TrimSpace(b.Title)
		if len(title) > 2 {
			out = append(out, models.Category{Name: title, Type: TypeLocation})
		}
	}

	for _, lg := range p.LabelGroups {
		title := strings.TrimSpace(lg.Title)
		if len(title) <= 2 || strings.Contains(strings.ToLower(title), soldToken) {
			continue
		}
		out = append(out, models.Category{Name: title, Type: TypeProduct})
	}

	name := strings.ToLower(p.Name)
	for _, kc := range keywordCategories {
		for _, kw := range kc.Keywords {
			if strings.Contains(name, kw) {
				out = append(out, models.Category{Name: kc.Category, Type: TypeProduct})
				break
			}
		}
	}

	return out
}
