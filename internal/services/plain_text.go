package services

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

const maxSanitizePasses = 4

// plainTextSanitizer returns a func that strips markup and yields unescaped text. Entities are decoded
// and the result is sanitised again until it is stable, so entity-encoded tags never come back live.
func plainTextSanitizer() func(string) string {
	policy := bluemonday.StrictPolicy()
	return func(value string) string {
		for i := 0; i < maxSanitizePasses; i++ {
			next := html.UnescapeString(policy.Sanitize(value))
			if next == value {
				return next
			}
			value = next
		}
		// still unstable after nested encodings; keep it escaped
		return policy.Sanitize(value)
	}
}
