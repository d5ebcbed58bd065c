package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDocumentNotObject reports a stored payload whose top-level JSON value is not an object.
var ErrDocumentNotObject = errors.New("store document must be a JSON object")

const legacyFeaturedBannerKey = "featuredModel"

// ReconcileReport describes how a stored payload was merged.
type ReconcileReport struct {
	// Absent is true when there was no stored payload and the defaults were returned unchanged.
	Absent bool
	// Fallbacks lists the JSON paths whose stored value had the wrong type and was replaced by the default.
	Fallbacks []string
	// LegacyFeaturedKey is true when the banner was read from the "featuredModel" key.
	LegacyFeaturedKey bool
}

func (r *ReconcileReport) fallback(path string) {
	r.Fallbacks = append(r.Fallbacks, path)
}

// Reconcile merges a possibly partial or older stored payload over the defaults and returns a fully
// shaped document. Top-level fields, the featured banner and the footer are merged field by field;
// categories are taken whole when present. A featured gallery that is absent or empty keeps the
// default gallery. JSON null counts as absent.
//
// The defaults value is not modified.
func Reconcile(defaults StoreDocument, raw []byte) (StoreDocument, ReconcileReport, error) {
	var report ReconcileReport
	out := defaults.Clone()

	raw = bytes.TrimSpace(raw)
	if isAbsent(raw) {
		report.Absent = true
		out.Normalize()
		return out, report, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return StoreDocument{}, report, fmt.Errorf("%w: %v", ErrDocumentNotObject, err)
	}
	if top == nil {
		report.Absent = true
		out.Normalize()
		return out, report, nil
	}

	overrideField(top, "name", "name", &out.Name, &report)
	overrideField(top, "logo", "logo", &out.Logo, &report)

	bannerKey := "featuredBanner"
	if isAbsent(top[bannerKey]) && !isAbsent(top[legacyFeaturedBannerKey]) {
		bannerKey = legacyFeaturedBannerKey
		report.LegacyFeaturedKey = true
	}
	reconcileBanner(top[bannerKey], bannerKey, &out.FeaturedBanner, &report)

	if rawCategories := top["categories"]; !isAbsent(rawCategories) {
		var categories Categories
		if err := json.Unmarshal(rawCategories, &categories); err != nil {
			report.fallback("categories")
		} else {
			out.Categories = categories
		}
	}

	if fields, ok := objectFields(top["footer"], "footer", &report); ok {
		overrideField(fields, "mainText", "footer.mainText", &out.Footer.MainText, &report)
		overrideField(fields, "copyrightText", "footer.copyrightText", &out.Footer.CopyrightText, &report)
	}

	out.Normalize()
	return out, report, nil
}

func reconcileBanner(raw json.RawMessage, key string, banner *FeaturedBanner, report *ReconcileReport) {
	fields, ok := objectFields(raw, key, report)
	if !ok {
		return
	}
	overrideField(fields, "title", key+".title", &banner.Title, report)
	overrideField(fields, "image", key+".image", &banner.Image, report)
	overrideField(fields, "description", key+".description", &banner.Description, report)

	var gallery []ImageRef
	overrideField(fields, "gallery", key+".gallery", &gallery, report)
	if len(gallery) > 0 {
		banner.Gallery = gallery
	}
}

// objectFields splits a nested object into its members. Absent values report false silently,
// non-object values report false and are recorded as a fallback.
func objectFields(raw json.RawMessage, path string, report *ReconcileReport) (map[string]json.RawMessage, bool) {
	if isAbsent(raw) {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		report.fallback(path)
		return nil, false
	}
	return fields, true
}

func overrideField[T any](fields map[string]json.RawMessage, name, path string, dst *T, report *ReconcileReport) {
	raw, ok := fields[name]
	if !ok || isAbsent(raw) {
		return
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		report.fallback(path)
		return
	}
	*dst = value
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
