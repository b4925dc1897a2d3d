package enums

import "fmt"

// ProductSort is the orderby filter accepted by the products listing.
type ProductSort string

const (
	ProductSortPopularity ProductSort = "popularity"
	ProductSortDate       ProductSort = "date"
	ProductSortPrice      ProductSort = "price"
	ProductSortPriceDesc  ProductSort = "price-desc"
	ProductSortRating     ProductSort = "rating"
)

var productSortLabels = map[ProductSort]string{
	ProductSortPopularity: "Popularity",
	ProductSortDate:       "Latest",
	ProductSortPrice:      "Lowest Price",
	ProductSortPriceDesc:  "Highest Price",
	ProductSortRating:     "Rating",
}

// ProductSorts lists the options in display order.
var ProductSorts = []ProductSort{
	ProductSortPopularity,
	ProductSortDate,
	ProductSortPrice,
	ProductSortPriceDesc,
	ProductSortRating,
}

// String implements fmt.Stringer.
func (p ProductSort) String() string {
	return string(p)
}

// Label is the human readable name of the option.
func (p ProductSort) Label() string {
	return productSortLabels[p]
}

// IsValid reports whether the value is a known ProductSort.
func (p ProductSort) IsValid() bool {
	_, ok := productSortLabels[p]
	return ok
}

// ParseProductSort converts raw input into a ProductSort.
func ParseProductSort(value string) (ProductSort, error) {
	candidate := ProductSort(value)
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}
