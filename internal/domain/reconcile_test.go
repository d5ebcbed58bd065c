package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReconcile_AbsentInputReturnsDefaults(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "null"} {
		raw := raw
		t.Run("input="+raw, func(t *testing.T) {
			t.Parallel()
			got, report, err := Reconcile(DefaultStoreDocument(), []byte(raw))
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if !report.Absent {
				t.Fatalf("expected report to flag absent payload")
			}
			if diff := cmp.Diff(DefaultStoreDocument(), got); diff != "" {
				t.Fatalf("unexpected document (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReconcile_EmptyObjectCoversEveryField(t *testing.T) {
	got, report, err := Reconcile(DefaultStoreDocument(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Absent || len(report.Fallbacks) != 0 {
		t.Fatalf("unexpected report %#v", report)
	}
	if diff := cmp.Diff(DefaultStoreDocument(), got); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
}

func TestReconcile_FullDocumentOverrides(t *testing.T) {
	raw := `{
		"name": "Night Shop",
		"logo": "data:image/jpeg;base64,/9j/",
		"featuredBanner": {
			"title": "Deal",
			"image": "🔥",
			"description": "Weekly deal",
			"gallery": ["https://img.test/1.jpg", "https://img.test/2.jpg"]
		},
		"categories": {
			"b": {"name": "B", "products": [{"id": 9, "name": "Nine", "price": 900, "description": "d", "image": "🎀", "gallery": []}]},
			"a": {"name": "A", "products": []}
		},
		"footer": {"mainText": "Main", "copyrightText": "Copy"}
	}`

	got, report, err := Reconcile(DefaultStoreDocument(), []byte(raw))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(report.Fallbacks) != 0 {
		t.Fatalf("unexpected fallbacks %v", report.Fallbacks)
	}

	want := StoreDocument{
		Name: "Night Shop",
		Logo: EmbeddedImage("image/jpeg", []byte{0xff, 0xd8, 0xff}),
		FeaturedBanner: FeaturedBanner{
			Title:       "Deal",
			Image:       Glyph("🔥"),
			Description: "Weekly deal",
			Gallery:     []ImageRef{LinkedImage("https://img.test/1.jpg"), LinkedImage("https://img.test/2.jpg")},
		},
		Categories: NewCategories(
			CategoryEntry{Key: "b", Category: Category{Name: "B", Products: []Product{{ID: 9, Name: "Nine", Price: 900, Description: "d", Image: Glyph("🎀"), Gallery: []ImageRef{}}}}},
			CategoryEntry{Key: "a", Category: Category{Name: "A", Products: []Product{}}},
		),
		Footer: Footer{MainText: "Main", CopyrightText: "Copy"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
}

func TestReconcile_PartialNestedObjectsMergeFieldByField(t *testing.T) {
	raw := `{"featuredBanner":{"title":"Only title"},"footer":{"copyrightText":"© 2024"}}`
	got, _, err := Reconcile(DefaultStoreDocument(), []byte(raw))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	defaults := DefaultStoreDocument()
	want := defaults.Clone()
	want.FeaturedBanner.Title = "Only title"
	want.Footer.CopyrightText = "© 2024"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
}

func TestReconcile_EmptyGalleryFallsBackToDefault(t *testing.T) {
	got, _, err := Reconcile(DefaultStoreDocument(), []byte(`{"featuredBanner":{"gallery":[]}}`))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if diff := cmp.Diff(DefaultStoreDocument().FeaturedBanner.Gallery, got.FeaturedBanner.Gallery); diff != "" {
		t.Fatalf("expected default gallery (-want +got):\n%s", diff)
	}
}

func TestReconcile_CategoriesTakenWholesale(t *testing.T) {
	got, _, err := Reconcile(DefaultStoreDocument(), []byte(`{"categories":{"solo":{"name":"Solo"}}}`))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := strings.Join(got.Categories.Keys(), ","); got != "solo" {
		t.Fatalf("expected only stored categories, got %s", got)
	}
	solo, _ := got.Categories.Get("solo")
	if solo.Products == nil {
		t.Fatalf("expected products normalised to empty slice")
	}
}

func TestReconcile_NullFieldsCountAsAbsent(t *testing.T) {
	got, report, err := Reconcile(DefaultStoreDocument(), []byte(`{"name":null,"categories":null,"footer":null,"featuredBanner":{"gallery":null}}`))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(report.Fallbacks) != 0 {
		t.Fatalf("null values must not be reported as fallbacks: %v", report.Fallbacks)
	}
	if diff := cmp.Diff(DefaultStoreDocument(), got); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
}

func TestReconcile_TypeMismatchFallsBackAndReports(t *testing.T) {
	raw := `{"name":42,"logo":"🛍","featuredBanner":"oops","categories":["x"],"footer":{"mainText":true,"copyrightText":"c"}}`
	got, report, err := Reconcile(DefaultStoreDocument(), []byte(raw))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	defaults := DefaultStoreDocument()
	if got.Name != defaults.Name {
		t.Fatalf("expected default name, got %q", got.Name)
	}
	if got.Logo.Text() != "🛍" {
		t.Fatalf("expected stored logo, got %q", got.Logo.String())
	}
	if got.Footer.MainText != defaults.Footer.MainText || got.Footer.CopyrightText != "c" {
		t.Fatalf("unexpected footer %#v", got.Footer)
	}
	wantFallbacks := []string{"name", "featuredBanner", "categories", "footer.mainText"}
	if diff := cmp.Diff(wantFallbacks, report.Fallbacks); diff != "" {
		t.Fatalf("unexpected fallbacks (-want +got):\n%s", diff)
	}
}

func TestReconcile_LegacyFeaturedModelKey(t *testing.T) {
	got, report, err := Reconcile(DefaultStoreDocument(), []byte(`{"featuredModel":{"title":"Legacy","gallery":["🎁"]}}`))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !report.LegacyFeaturedKey {
		t.Fatalf("expected legacy key to be reported")
	}
	if got.FeaturedBanner.Title != "Legacy" || len(got.FeaturedBanner.Gallery) != 1 {
		t.Fatalf("unexpected banner %#v", got.FeaturedBanner)
	}

	got, report, err = Reconcile(DefaultStoreDocument(), []byte(`{"featuredBanner":{"title":"New"},"featuredModel":{"title":"Old"}}`))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.LegacyFeaturedKey || got.FeaturedBanner.Title != "New" {
		t.Fatalf("expected current key to win, got %q", got.FeaturedBanner.Title)
	}
}

func TestReconcile_NonObjectTopLevelIsError(t *testing.T) {
	for _, raw := range []string{`[]`, `"text"`, `12`, `{broken`} {
		_, _, err := Reconcile(DefaultStoreDocument(), []byte(raw))
		if !errors.Is(err, ErrDocumentNotObject) {
			t.Fatalf("input %s: expected ErrDocumentNotObject, got %v", raw, err)
		}
	}
}

func TestReconcile_DoesNotMutateDefaults(t *testing.T) {
	defaults := DefaultStoreDocument()
	got, _, err := Reconcile(defaults, []byte(`{}`))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	got.FeaturedBanner.Gallery[0] = Glyph("x")
	toys, _ := got.Categories.Get("toys")
	toys.Products[0].Name = "changed"

	if defaults.FeaturedBanner.Gallery[0].Kind() != ImageKindLinked {
		t.Fatalf("defaults gallery mutated")
	}
	origToys, _ := defaults.Categories.Get("toys")
	if origToys.Products[0].Name != "Premium Vibrator" {
		t.Fatalf("defaults products mutated")
	}
}
