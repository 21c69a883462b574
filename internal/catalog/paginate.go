package catalog

const PerPage = 12

type Page struct {
	Items      []Product `json:"items"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	TotalItems int       `json:"total_items"`
}

// Paginate slices ps into 1-based pages. A page past the end yields an empty
// Items slice; callers decide whether to redirect (see LastPage).
func Paginate(ps []Product, page, perPage int) Page {
	if perPage <= 0 {
		perPage = PerPage
	}
	if page < 1 {
		page = 1
	}
	total := len(ps)
	pages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	items := make([]Product, end-start)
	copy(items, ps[start:end])
	return Page{Items: items, Page: page, TotalPages: pages, TotalItems: total}
}

// LastPage reports the page to redirect to when page is beyond the listing,
// or 0 when page is in range (an empty listing has no last page).
func LastPage(total, page, perPage int) int {
	if perPage <= 0 {
		perPage = PerPage
	}
	pages := (total + perPage - 1) / perPage
	if pages > 0 && page > pages {
		return pages
	}
	return 0
}
