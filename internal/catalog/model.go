package catalog

import "strings"

type Product struct {
	ID       int64   `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int64   `json:"stock"`
	Status   string  `json:"status"`
	Image    string  `json:"image"`
}

func (p Product) InStock() bool { return p.Stock > 0 }

type Category struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ProductCount int64  `json:"product_count"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// ShowcaseItem is a tile of the storefront grid.
type ShowcaseItem struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Image         string   `json:"image"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"original_price"`
	Category      string   `json:"category"`
	Brand         string   `json:"brand"`
	InStock       bool     `json:"in_stock"`
	Featured      bool     `json:"featured"`
	Features      []string `json:"features"`
}

const (
	PlaceholderImage = "/placeholder.svg?height=60&width=60"

	defaultShowcaseCategory = "smartphones"
	defaultShowcaseBrand    = "apple"

	// listPriceMarkup is the crossed-out price shown next to a showcase price.
	listPriceMarkup = 1.2
)

var defaultFeatures = []string{"Producto", "De calidad", "Garantía"}

// FilterByCategory keeps the products whose category equals name, ignoring
// case and surrounding space.
func FilterByCategory(products []Product, name string) []Product {
	name = strings.TrimSpace(name)
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(strings.TrimSpace(p.Category), name) {
			out = append(out, p)
		}
	}
	return out
}

// ShowcaseFilter narrows the storefront grid. Zero fields match everything.
type ShowcaseFilter struct {
	Query        string
	Category     string
	Brand        string
	FeaturedOnly bool
}

// FilterShowcase keeps the items whose title contains Query (ignoring case)
// and whose category and brand equal the filter's.
func FilterShowcase(items []ShowcaseItem, f ShowcaseFilter) []ShowcaseItem {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]ShowcaseItem, 0, len(items))
	for _, it := range items {
		switch {
		case q != "" && !strings.Contains(strings.ToLower(it.Title), q):
		case f.Category != "" && it.Category != f.Category:
		case f.Brand != "" && it.Brand != f.Brand:
		case f.FeaturedOnly && !it.Featured:
		default:
			out = append(out, it)
		}
	}
	return out
}

// ShowcaseFacets lists the distinct categories and brands of items in first
// seen order.
type ShowcaseFacets struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
}

func Facets(items []ShowcaseItem) ShowcaseFacets {
	f := ShowcaseFacets{Categories: []string{}, Brands: []string{}}
	seenCat := map[string]bool{}
	seenBrand := map[string]bool{}
	for _, it := range items {
		if !seenCat[it.Category] {
			seenCat[it.Category] = true
			f.Categories = append(f.Categories, it.Category)
		}
		if !seenBrand[it.Brand] {
			seenBrand[it.Brand] = true
			f.Brands = append(f.Brands, it.Brand)
		}
	}
	return f
}

func imageURL(base, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return PlaceholderImage
	}
	return strings.TrimRight(base, "/") + "/" + name
}
