package storage

import "testing"

func TestBuildProductGalleryPath(t *testing.T) {
	path, err := BuildObjectPath(PurposeProductGallery, PathParams{
		ProductID: "12",
		UploadID:  "01hx",
		FileName:  "image.jpg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "media/products/12/gallery/01hx/image.jpg"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildLogoPathIgnoresProduct(t *testing.T) {
	path, err := BuildObjectPath(PurposeLogo, PathParams{UploadID: "u1", FileName: "logo.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "media/store/logo/u1/logo.jpg" {
		t.Fatalf("unexpected path %s", path)
	}
}

func TestBuildObjectPathRejectsInvalidSegment(t *testing.T) {
	_, err := BuildObjectPath(PurposeProductImage, PathParams{
		ProductID: "../bad",
		UploadID:  "upload",
		FileName:  "file.jpg",
	})
	if err == nil {
		t.Fatalf("expected error for invalid segment")
	}
	if _, err := BuildObjectPath(AssetPurpose("unknown"), PathParams{}); err == nil {
		t.Fatalf("expected error for unknown purpose")
	}
}
