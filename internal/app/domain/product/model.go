package product

import "github.com/commercekit/service-layer/internal/app/domain/audit"

// Category groups products for listing filters.
type Category string

const (
	CategoryClothes Category = "clothes"
	CategoryShoes   Category = "shoes"
	CategoryOthers  Category = "others"
)

// Categories lists every valid product category.
var Categories = []Category{CategoryClothes, CategoryShoes, CategoryOthers}

// Product is a sellable item. Price is stored in cents.
type Product struct {
	audit.Fields
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Image       string   `json:"image,omitempty"`
	Price       int64    `json:"price"`
	Description string   `json:"description,omitempty"`
}

// Reference renders the record for unique/exists checks.
func (p Product) Reference() map[string]any {
	ref := p.Fields.Reference()
	ref["name"] = p.Name
	ref["category"] = string(p.Category)
	ref["price"] = p.Price
	return ref
}
