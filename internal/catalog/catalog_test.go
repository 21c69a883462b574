package catalog

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func product(id, name string, prices ...int64) Product {
	p := Product{ID: id, Name: name, Images: ImageRefs{}}
	for i, price := range prices {
		p.Variants = append(p.Variants, Variant{ID: id + "-v" + string(rune('a'+i)), ProductID: id, Price: price})
	}
	return p
}

func names(ps []Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestRecordNormalize(t *testing.T) {
	raw := `{
		"id": "rec1",
		"fields": {
			"name": "Áo thun",
			"images": [{"url": "https://img/1.jpg"}, "https://img/2.jpg", {"url": ""}],
			"category": ["cat1"],
			"featured": true,
			"variants": ["recA", "recB"],
			"variant_name": ["S", "M"],
			"variant_price": [120000, 99000],
			"variant_inhouse": [3],
			"variant_image": [{"url": "https://img/s.jpg"}]
		}
	}`
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	p, err := rec.Normalize()
	require.NoError(t, err)
	assert.Equal(t, ImageRefs{"https://img/1.jpg", "https://img/2.jpg"}, p.Images)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, Variant{ID: "recA", ProductID: "rec1", Name: "S", Price: 120000, OnHand: 3, Image: "https://img/s.jpg"}, p.Variants[0])
	assert.Equal(t, Variant{ID: "recB", ProductID: "rec1", Name: "M", Price: 99000}, p.Variants[1])
	assert.Equal(t, []string{"cat1"}, p.Categories)
	assert.True(t, p.Featured)
}

func TestRecordNormalizeMisalignedPrices(t *testing.T) {
	rec := Record{ID: "rec1", Fields: RecordFields{Variants: []string{"a", "b"}, VariantPrice: []int64{1}}}
	_, err := rec.Normalize()
	assert.Error(t, err)
}

func TestImageRefsTolerateNonArrays(t *testing.T) {
	var refs ImageRefs
	require.NoError(t, json.Unmarshal([]byte(`null`), &refs))
	assert.Empty(t, refs)

	b, err := json.Marshal(ImageRefs(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestMinPriceAndSlug(t *testing.T) {
	p := product("p1", "Giày Thể Thao Nam", 300, 150, 200)
	price, ok := p.MinPrice()
	assert.True(t, ok)
	assert.EqualValues(t, 150, price)
	assert.Equal(t, "giay-the-thao-nam", p.DisplaySlug())

	p.Slug = "custom"
	assert.Equal(t, "custom", p.DisplaySlug())

	_, ok = product("p2", "empty").MinPrice()
	assert.False(t, ok)
}

func TestSortByNameUsesVietnameseCollation(t *testing.T) {
	ps := []Product{product("1", "Zip"), product("2", "Áo khoác"), product("3", "Bút"), product("4", "An")}

	asc := SortProducts(ps, SortNameAsc)
	assert.Equal(t, []string{"An", "Áo khoác", "Bút", "Zip"}, names(asc))

	desc := SortProducts(ps, SortNameDesc)
	assert.Equal(t, []string{"Zip", "Bút", "Áo khoác", "An"}, names(desc))

	// input untouched
	assert.Equal(t, "Zip", ps[0].Name)
}

func TestSortByPriceUsesMinimumVariantPrice(t *testing.T) {
	ps := []Product{
		product("1", "first-listed-cheap", 500, 50),
		product("2", "mid", 100),
		product("3", "expensive", 1000, 900),
	}
	assert.Equal(t, []string{"first-listed-cheap", "mid", "expensive"}, names(SortProducts(ps, SortPriceAsc)))
	assert.Equal(t, []string{"expensive", "mid", "first-listed-cheap"}, names(SortProducts(ps, SortPriceDesc)))
	assert.Equal(t, names(ps), names(SortProducts(ps, SortDefault)))
}

func TestParseSort(t *testing.T) {
	o, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortDefault, o)

	o, err = ParseSort("price-desc")
	require.NoError(t, err)
	assert.Equal(t, SortPriceDesc, o)

	_, err = ParseSort("random")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestPaginate(t *testing.T) {
	var ps []Product
	for i := 0; i < 25; i++ {
		ps = append(ps, product(string(rune('a'+i)), "p"))
	}

	pg := Paginate(ps, 1, PerPage)
	assert.Len(t, pg.Items, 12)
	assert.Equal(t, 3, pg.TotalPages)
	assert.Equal(t, 25, pg.TotalItems)

	pg = Paginate(ps, 3, PerPage)
	assert.Len(t, pg.Items, 1)

	pg = Paginate(ps, 9, PerPage)
	assert.Empty(t, pg.Items)

	assert.Equal(t, 3, LastPage(25, 9, PerPage))
	assert.Equal(t, 0, LastPage(25, 2, PerPage))
	assert.Equal(t, 0, LastPage(0, 4, PerPage))
}

func TestFilterByCategory(t *testing.T) {
	a := product("1", "a")
	a.Categories = []string{"shoes"}
	b := product("2", "b")
	out := FilterByCategory([]Product{a, b}, "shoes")
	assert.Equal(t, []string{"a"}, names(out))
}

func TestRenderDescription(t *testing.T) {
	html, err := RenderDescription(`**Chất liệu:** cotton\nGiặt máy`)
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Chất liệu:</strong>")
	assert.Contains(t, html, "<br")

	html, err = RenderDescription("   ")
	require.NoError(t, err)
	assert.Empty(t, html)
}
