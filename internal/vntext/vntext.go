// Package vntext holds the Vietnamese-aware text helpers shared by catalog,
// search and notification code: accent folding, slugs, collation and đồng
// formatting.
package vntext

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"strings"
	"sync"
	"unicode"
)

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// Fold lowercases s, decomposes it (NFD), drops combining marks and maps đ to d.
// "Giày Thể Thao" folds to "giay the thao".
func Fold(s string) string {
	s = strings.ToLower(s)
	out, _, err := transform.String(transform.Chain(norm.NFD, stripMarks), s)
	if err != nil {
		out = s
	}
	return strings.ReplaceAll(out, "đ", "d")
}

// Slug folds s and collapses every run of characters outside [a-z0-9] into a
// single hyphen, trimming hyphens at both ends.
func Slug(s string) string {
	f := Fold(s)
	var b strings.Builder
	b.Grow(len(f))
	pendingDash := false
	for _, r := range f {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// collate.Collator is not safe for concurrent use.
var (
	collMu sync.Mutex
	coll   = collate.New(language.Vietnamese)
)

// Compare orders a and b with Vietnamese collation after lowercasing, so
// "Áo" sorts among the A's instead of after Z.
func Compare(a, b string) int {
	collMu.Lock()
	defer collMu.Unlock()
	return coll.CompareString(strings.ToLower(a), strings.ToLower(b))
}

var viPrinter = message.NewPrinter(language.Vietnamese)

// FormatVND renders an amount of đồng the way the storefront displays it: 1.234.000₫
func FormatVND(n int64) string {
	return viPrinter.Sprintf("%d", n) + "₫"
}
