package search

import "github.com/ariefcatur/go-storefront/internal/vntext"

type synonymGroup struct {
	key   string
	terms []string
}

// Checked in order; the first key equal to the query wins.
var synonyms = []synonymGroup{
	{"áo", []string{"quần áo", "quần ao", "ao quan"}},
	{"giày", []string{"giay", "dep", "dép"}},
	{"laptop", []string{"may tinh", "máy tính", "may tinh xach tay", "máy tính xách tay"}},
	{"điện thoại", []string{"dien thoai", "dt", "phone", "smartphone"}},
	{"nước", []string{"nuoc", "nước uống", "nuoc uong"}},
}

func lookupSynonyms(query, folded string) ([]string, bool) {
	for _, g := range synonyms {
		if g.key == query || vntext.Fold(g.key) == folded {
			return g.terms, true
		}
	}
	return nil, false
}
