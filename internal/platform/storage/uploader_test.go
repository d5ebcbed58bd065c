package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

type recordingWriter struct {
	buf      bytes.Buffer
	closed   bool
	writeErr error
	closeErr error
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.writeErr != nil {
		return 0, w.writeErr
	}
	return w.buf.Write(p)
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func TestUploaderUploadWritesObjectAndReturnsURL(t *testing.T) {
	writer := &recordingWriter{}
	var gotBucket, gotObject, gotType string
	uploader, err := NewUploader(nil, "shop-media", WithWriterFactory(func(_ context.Context, bucket, object, contentType string) ObjectWriter {
		gotBucket, gotObject, gotType = bucket, object, contentType
		return writer
	}))
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}

	url, err := uploader.Upload(context.Background(), "/media/store/logo/u1/logo.jpg", "image/jpeg", []byte("jpeg"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if gotBucket != "shop-media" || gotObject != "media/store/logo/u1/logo.jpg" || gotType != "image/jpeg" {
		t.Fatalf("unexpected writer args %s %s %s", gotBucket, gotObject, gotType)
	}
	if writer.buf.String() != "jpeg" || !writer.closed {
		t.Fatalf("expected bytes written and writer closed")
	}
	if url != "https://storage.googleapis.com/shop-media/media/store/logo/u1/logo.jpg" {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestUploaderPublicBaseURL(t *testing.T) {
	uploader, err := NewUploader(nil, "shop-media",
		WithPublicBaseURL("https://cdn.example.com/"),
		WithWriterFactory(func(context.Context, string, string, string) ObjectWriter { return &recordingWriter{} }),
	)
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}
	if got := uploader.PublicURL("a/b.jpg"); got != "https://cdn.example.com/a/b.jpg" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestUploaderSurfacesFinalizeError(t *testing.T) {
	boom := errors.New("quota")
	uploader, _ := NewUploader(nil, "b", WithWriterFactory(func(context.Context, string, string, string) ObjectWriter {
		return &recordingWriter{closeErr: boom}
	}))
	if _, err := uploader.Upload(context.Background(), "x.jpg", "image/jpeg", nil); !errors.Is(err, boom) {
		t.Fatalf("expected finalize error, got %v", err)
	}
}

func TestNewUploaderValidation(t *testing.T) {
	if _, err := NewUploader(nil, " "); !errors.Is(err, errInvalidBucket) {
		t.Fatalf("expected bucket error, got %v", err)
	}
	if _, err := NewUploader(nil, "bucket"); err == nil {
		t.Fatalf("expected error without client or writer factory")
	}
}
