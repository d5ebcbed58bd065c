package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCategories_PreservesInsertionOrder(t *testing.T) {
	var cats Categories
	cats.Set("zeta", Category{Name: "Zeta"})
	cats.Set("alpha", Category{Name: "Alpha"})
	cats.Set("mid", Category{Name: "Mid"})
	cats.Set("zeta", Category{Name: "Zeta 2"})

	if got := strings.Join(cats.Keys(), ","); got != "zeta,alpha,mid" {
		t.Fatalf("unexpected key order %s", got)
	}
	if cat, _ := cats.Get("zeta"); cat.Name != "Zeta 2" {
		t.Fatalf("expected replacement in place, got %q", cat.Name)
	}

	if !cats.Delete("alpha") {
		t.Fatalf("expected delete to report existing key")
	}
	if cats.Delete("alpha") {
		t.Fatalf("expected second delete to report missing key")
	}
	if got := strings.Join(cats.Keys(), ","); got != "zeta,mid" {
		t.Fatalf("unexpected key order after delete %s", got)
	}
}

func TestCategories_JSONKeepsMemberOrder(t *testing.T) {
	input := `{"z":{"name":"Z","products":[]},"a":{"name":"A"},"m":{"name":"M","products":[{"id":3,"name":"p","price":10,"description":"","image":"🎀"}]}}`

	var cats Categories
	if err := json.Unmarshal([]byte(input), &cats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := strings.Join(cats.Keys(), ","); got != "z,a,m" {
		t.Fatalf("unexpected key order %s", got)
	}
	a, _ := cats.Get("a")
	if a.Products == nil {
		t.Fatalf("expected missing products to normalise to empty slice")
	}
	m, _ := cats.Get("m")
	if m.Products[0].Gallery == nil {
		t.Fatalf("expected missing gallery to normalise to empty slice")
	}

	encoded, err := json.Marshal(cats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	zIdx := strings.Index(string(encoded), `"z"`)
	aIdx := strings.Index(string(encoded), `"a"`)
	mIdx := strings.Index(string(encoded), `"m"`)
	if !(zIdx < aIdx && aIdx < mIdx) {
		t.Fatalf("expected encoded order z,a,m in %s", encoded)
	}
}

func TestCategories_UnmarshalRejectsNonObject(t *testing.T) {
	var cats Categories
	if err := json.Unmarshal([]byte(`["toys"]`), &cats); err == nil {
		t.Fatalf("expected error for array categories")
	}
	if err := json.Unmarshal([]byte(`null`), &cats); err != nil {
		t.Fatalf("expected null to decode, got %v", err)
	}
	if cats.Len() != 0 {
		t.Fatalf("expected empty categories after null")
	}
}

func TestProduct_UnmarshalLenientNumbers(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id":7.0,"price":null,"name":"x","image":"💧"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != 7 || p.Price != 0 {
		t.Fatalf("unexpected id/price %d/%d", p.ID, p.Price)
	}
	if err := json.Unmarshal([]byte(`{"id":1,"price":1999.6}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Price != 2000 {
		t.Fatalf("expected rounded price 2000, got %d", p.Price)
	}
	if err := json.Unmarshal([]byte(`{"id":"one"}`), &p); err == nil {
		t.Fatalf("expected error for string id")
	}
}

func TestStoreDocument_NextProductIDReusesFreedIDs(t *testing.T) {
	doc := DefaultStoreDocument()

	if got := doc.NextProductID(); got != 6 {
		t.Fatalf("expected next id 6, got %d", got)
	}

	cat, _ := doc.Categories.Get("toys")
	cat.Products = append(cat.Products, NewProduct(doc.NextProductID()))
	doc.Categories.Set("toys", cat)
	if _, key, ok := doc.FindProduct(6); !ok || key != "toys" {
		t.Fatalf("expected product 6 in toys, got %q %v", key, ok)
	}

	lube, _ := doc.Categories.Get("lubricants")
	lube.Products = nil
	doc.Categories.Set("lubricants", lube)
	cat.Products = cat.Products[:2]
	doc.Categories.Set("toys", cat)

	if got := doc.NextProductID(); got != 3 {
		t.Fatalf("expected next id 3 after deleting 5 and 6, got %d", got)
	}

	var empty StoreDocument
	if got := empty.NextProductID(); got != 1 {
		t.Fatalf("expected 1 for empty document, got %d", got)
	}
}

func TestStoreDocument_CloneIsDeep(t *testing.T) {
	original := DefaultStoreDocument()
	clone := original.Clone()

	clone.FeaturedBanner.Gallery[0] = Glyph("x")
	toys, _ := clone.Categories.Get("toys")
	toys.Products[0].Name = "changed"
	toys.Products[0].Gallery[0] = Glyph("y")
	clone.Categories.Set("extra", Category{Name: "Extra"})

	if original.FeaturedBanner.Gallery[0].Kind() != ImageKindLinked {
		t.Fatalf("banner gallery shared with clone")
	}
	origToys, _ := original.Categories.Get("toys")
	if origToys.Products[0].Name != "Premium Vibrator" || origToys.Products[0].Gallery[0].Kind() != ImageKindLinked {
		t.Fatalf("products shared with clone")
	}
	if original.Categories.Has("extra") {
		t.Fatalf("category keys shared with clone")
	}
}

func TestDefaultStoreDocument_FreshEachCall(t *testing.T) {
	a := DefaultStoreDocument()
	a.Name = "mutated"
	a.Categories.Delete("toys")

	b := DefaultStoreDocument()
	if b.Name != "Pleasure Palace" || !b.Categories.Has("toys") {
		t.Fatalf("default document leaked mutations")
	}
	if got := strings.Join(b.Categories.Keys(), ","); got != "toys,lubricants" {
		t.Fatalf("unexpected default key order %s", got)
	}
}
