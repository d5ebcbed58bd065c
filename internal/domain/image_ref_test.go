package domain

import (
	"encoding/json"
	"testing"
)

func TestParseImageRef_ClassifiesByPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value string
		kind  ImageKind
	}{
		{name: "emoji", value: "💋", kind: ImageKindGlyph},
		{name: "empty", value: "", kind: ImageKindGlyph},
		{name: "https url", value: "https://picsum.photos/seed/featured/800/600", kind: ImageKindLinked},
		{name: "http url", value: "http://example.com/a.png", kind: ImageKindLinked},
		{name: "inline jpeg", value: "data:image/jpeg;base64,/9j/AA==", kind: ImageKindEmbedded},
		{name: "malformed data url", value: "data:nonsense", kind: ImageKindGlyph},
		{name: "bad base64", value: "data:image/png;base64,%%%", kind: ImageKindGlyph},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ref := ParseImageRef(tc.value)
			if ref.Kind() != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, ref.Kind())
			}
			if ref.String() != tc.value {
				t.Fatalf("expected legacy form %q to survive, got %q", tc.value, ref.String())
			}
		})
	}
}

func TestEmbeddedImage_LegacyForm(t *testing.T) {
	ref := EmbeddedImage("image/jpeg", []byte{0xff, 0xd8, 0xff})
	if got, want := ref.String(), "data:image/jpeg;base64,/9j/"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if ref.Size() != len(ref.String()) {
		t.Fatalf("size %d does not match encoded length %d", ref.Size(), len(ref.String()))
	}
	parsed := ParseImageRef(ref.String())
	if !parsed.Equal(ref) {
		t.Fatalf("expected round trip to be lossless")
	}
	if parsed.MIMEType() != "image/jpeg" || len(parsed.Data()) != 3 {
		t.Fatalf("unexpected parsed payload %q %v", parsed.MIMEType(), parsed.Data())
	}
}

func TestImageRef_JSON(t *testing.T) {
	var payload struct {
		Logo  ImageRef   `json:"logo"`
		Items []ImageRef `json:"items"`
	}
	if err := json.Unmarshal([]byte(`{"logo":null,"items":["✨","https://a.test/x.png"]}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Logo.Kind() != ImageKindGlyph || payload.Logo.Text() != "" {
		t.Fatalf("expected null logo to decode as empty glyph, got %#v", payload.Logo)
	}
	if payload.Items[1].Kind() != ImageKindLinked {
		t.Fatalf("expected linked image, got %s", payload.Items[1].Kind())
	}

	encoded, err := json.Marshal(payload.Items)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `["✨","https://a.test/x.png"]` {
		t.Fatalf("unexpected encoding %s", encoded)
	}

	var bad ImageRef
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Fatalf("expected error for non-string image reference")
	}
}
