package catalog

import (
	"errors"
	"github.com/ariefcatur/go-storefront/internal/vntext"
	"sort"
)

type SortOption string

const (
	SortDefault   SortOption = "default"
	SortNameAsc   SortOption = "name-asc"
	SortNameDesc  SortOption = "name-desc"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
)

var ErrInvalidSort = errors.New("invalid sort option")

// ParseSort maps "" to SortDefault and rejects unknown options.
func ParseSort(s string) (SortOption, error) {
	switch o := SortOption(s); o {
	case "":
		return SortDefault, nil
	case SortDefault, SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc:
		return o, nil
	}
	return SortDefault, ErrInvalidSort
}

// listPrice is the price used for ordering: the cheapest variant, 0 when the
// product has none.
func listPrice(p Product) int64 {
	price, _ := p.MinPrice()
	return price
}

// SortProducts returns a sorted copy; SortDefault keeps the stored order.
func SortProducts(ps []Product, by SortOption) []Product {
	out := make([]Product, len(ps))
	copy(out, ps)

	var less func(a, b Product) bool
	switch by {
	case SortNameAsc:
		less = func(a, b Product) bool { return vntext.Compare(a.Name, b.Name) < 0 }
	case SortNameDesc:
		less = func(a, b Product) bool { return vntext.Compare(b.Name, a.Name) < 0 }
	case SortPriceAsc:
		less = func(a, b Product) bool { return listPrice(a) < listPrice(b) }
	case SortPriceDesc:
		less = func(a, b Product) bool { return listPrice(a) > listPrice(b) }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
