package mockapi

import "strings"

// Product is a catalog item surfaced in recommendations and carts. Price is
// in minor units.
type Product struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Price int64    `json:"price"`
	URL   string   `json:"url"`
	Stock int      `json:"-"`
	Tags  []string `json:"-"`
}

// DefaultCatalog returns the fixed catalog the harness sells
func DefaultCatalog() []Product {
	return []Product{
		{ID: "tote-01", Name: "Canvas Tote", Price: 2499, URL: "/products/canvas-tote", Stock: 12, Tags: []string{"bag", "tote", "canvas"}},
		{ID: "mug-01", Name: "Enamel Mug", Price: 1699, URL: "/products/enamel-mug", Stock: 30, Tags: []string{"mug", "cup", "coffee"}},
		{ID: "tee-01", Name: "Organic Tee", Price: 2899, URL: "/products/organic-tee", Stock: 8, Tags: []string{"shirt", "tee", "clothing"}},
		{ID: "cap-01", Name: "Wool Cap", Price: 1999, URL: "/products/wool-cap", Stock: 0, Tags: []string{"hat", "cap", "wool"}},
		{ID: "card-01", Name: "Gift Card", Price: 5000, URL: "/products/gift-card", Stock: 999, Tags: []string{"gift", "card"}},
	}
}

// Catalog answers product lookups for recommendations and carts
type Catalog struct {
	products []Product
}

// NewCatalog creates a catalog over the given products
func NewCatalog(products []Product) *Catalog {
	return &Catalog{products: products}
}

// Search returns products whose name or tags match the query, or the whole
// catalog for an empty query
func (c *Catalog) Search(query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]Product(nil), c.products...)
	}

	var matched []Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), query) {
			matched = append(matched, p)
			continue
		}
		for _, tag := range p.Tags {
			if strings.Contains(query, tag) || strings.Contains(tag, query) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}

// ByID returns the product with the given ID
func (c *Catalog) ByID(id string) (Product, bool) {
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
