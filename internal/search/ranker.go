// Package search ranks catalog products against a free-text query.
//
// Names are matched in three tiers (exact 100, prefix 80, substring 60),
// accent-insensitively, against a handful of query variants: the query, its
// folded form and up to two synonyms.
package search

import (
	"errors"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/vntext"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MinQueryLen = 2
	MaxQueryLen = 100

	// candidates kept after ranking, then results returned
	candidateCap = 50
	resultCap    = 30

	MsgQueryTooShort = "Vui lòng nhập ít nhất 2 ký tự"
	MsgQueryTooLong  = "Từ khóa tìm kiếm quá dài"
	MsgSearchFailed  = "Có lỗi xảy ra khi tìm kiếm"
)

const (
	ScoreExact    = 100
	ScorePrefix   = 80
	ScoreContains = 60
)

var ErrQueryTooLong = errors.New("search query too long")

type Hit struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Price       int64    `json:"price"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

type Result struct {
	Products []Hit  `json:"products"`
	Total    int    `json:"total"`
	Message  string `json:"message,omitempty"`
}

func emptyResult(msg string) Result {
	return Result{Products: []Hit{}, Message: msg}
}

// Check validates a raw query before any catalog read. It returns the
// trimmed, lowercased query, or ok=false together with the result to send
// back as is.
func Check(raw string) (query string, early Result, ok bool, err error) {
	if utf8.RuneCountInString(raw) > MaxQueryLen {
		return "", Result{}, false, ErrQueryTooLong
	}
	q := strings.TrimSpace(raw)
	switch n := utf8.RuneCountInString(q); {
	case n == 0:
		return "", emptyResult(""), false, nil
	case n < MinQueryLen:
		return "", emptyResult(MsgQueryTooShort), false, nil
	}
	return strings.ToLower(q), Result{}, true, nil
}

// Variants expands a checked query into the strings names are matched
// against.
func Variants(query string) []string {
	folded := vntext.Fold(query)
	out := []string{query}
	if folded != query {
		out = append(out, folded)
	}
	if syn, ok := lookupSynonyms(query, folded); ok {
		if len(syn) > 2 {
			syn = syn[:2]
		}
		out = append(out, syn...)
	}
	return out
}

// Score returns the best tier any variant reaches against name, 0 for no
// match. name is compared lowercased and folded.
func Score(name string, variants []string) int {
	name = strings.ToLower(name)
	folded := vntext.Fold(name)

	best := 0
	for _, v := range variants {
		fv := vntext.Fold(v)
		var s int
		switch {
		case name == v || folded == fv:
			s = ScoreExact
		case strings.HasPrefix(name, v) || strings.HasPrefix(folded, fv):
			s = ScorePrefix
		case strings.Contains(name, v) || strings.Contains(folded, fv):
			s = ScoreContains
		}
		if s > best {
			best = s
		}
	}
	return best
}

// Rank scores every product against query (already checked), keeps matches
// best first with ties in catalog order, and maps the survivors to hits.
func Rank(query string, products []catalog.Product) Result {
	variants := Variants(query)

	type scored struct {
		p     catalog.Product
		score int
	}
	matches := make([]scored, 0)
	for _, p := range products {
		if s := Score(p.Name, variants); s > 0 {
			matches = append(matches, scored{p: p, score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > candidateCap {
		matches = matches[:candidateCap]
	}

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		h, ok := toHit(m.p)
		if !ok {
			continue
		}
		hits = append(hits, h)
		if len(hits) == resultCap {
			break
		}
	}
	return Result{Products: hits, Total: len(hits)}
}

func toHit(p catalog.Product) (Hit, bool) {
	price, ok := p.MinPrice()
	if p.Name == "" || !ok {
		return Hit{}, false
	}
	images := make([]string, 0, len(p.Images))
	for _, u := range p.Images {
		if strings.TrimSpace(u) != "" {
			images = append(images, u)
		}
	}
	return Hit{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.DisplaySlug(),
		Price:       price,
		Description: p.Description,
		Images:      images,
	}, true
}
