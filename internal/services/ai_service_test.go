package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type stubContentGenerator struct {
	text     string
	textErr  error
	mimeType string
	image    []byte
	imageErr error
	models   []string
	prompts  []string
}

func (s *stubContentGenerator) GenerateText(_ context.Context, model, prompt string) (string, error) {
	s.models = append(s.models, model)
	s.prompts = append(s.prompts, prompt)
	return s.text, s.textErr
}

func (s *stubContentGenerator) GenerateImage(_ context.Context, model, prompt string) (string, []byte, error) {
	s.models = append(s.models, model)
	s.prompts = append(s.prompts, prompt)
	return s.mimeType, s.image, s.imageErr
}

func TestAIServiceDisabledWithoutGenerator(t *testing.T) {
	svc := NewAIService(AIServiceDeps{})
	if svc.Enabled() {
		t.Fatalf("expected disabled service")
	}
	if _, err := svc.GenerateDescription(context.Background(), "Ring"); !errors.Is(err, ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}
	if _, err := svc.GenerateImage(context.Background(), "Ring", "desc"); !errors.Is(err, ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}
	if got := NoticeForError(ErrAIUnavailable).Message; got != "API key is not configured." {
		t.Fatalf("unexpected notice %q", got)
	}
}

func TestAIServiceCleansTextOutput(t *testing.T) {
	gen := &stubContentGenerator{text: "  \"**Silk Whisper**\"\n"}
	svc := NewAIService(AIServiceDeps{Generator: gen})

	title, err := svc.SuggestTitle(context.Background(), "soft and quiet")
	if err != nil {
		t.Fatalf("SuggestTitle: %v", err)
	}
	if title != "Silk Whisper" {
		t.Fatalf("unexpected title %q", title)
	}
	if gen.models[0] != "gemini-2.5-flash" {
		t.Fatalf("unexpected model %s", gen.models[0])
	}
	if !strings.Contains(gen.prompts[0], `"soft and quiet"`) || !strings.Contains(gen.prompts[0], "2-4 words max") {
		t.Fatalf("unexpected prompt %q", gen.prompts[0])
	}

	gen.text = "<b>Pure</b> *bliss*"
	desc, err := svc.GenerateDescription(context.Background(), "Ring")
	if err != nil {
		t.Fatalf("GenerateDescription: %v", err)
	}
	if desc != "Pure bliss" {
		t.Fatalf("unexpected description %q", desc)
	}
	if !strings.Contains(gen.prompts[1], "under 30 words") {
		t.Fatalf("unexpected prompt %q", gen.prompts[1])
	}

	gen.text = "&lt;img src=x onerror=alert(1)&gt;Calm &amp; quiet"
	desc, err = svc.GenerateDescription(context.Background(), "Ring")
	if err != nil {
		t.Fatalf("GenerateDescription: %v", err)
	}
	if desc != "Calm & quiet" {
		t.Fatalf("entity-encoded markup survived: %q", desc)
	}
}

func TestAIServiceFailures(t *testing.T) {
	svc := NewAIService(AIServiceDeps{Generator: &stubContentGenerator{textErr: errors.New("quota")}})
	_, err := svc.SuggestTitle(context.Background(), "x")
	if !errors.Is(err, ErrAIFailed) {
		t.Fatalf("expected ErrAIFailed, got %v", err)
	}
	if got := NoticeForError(err).Message; got != "AI Suggestion Failed" {
		t.Fatalf("unexpected notice %q", got)
	}

	svc = NewAIService(AIServiceDeps{Generator: &stubContentGenerator{text: `"**"`}})
	if _, err := svc.SuggestTitle(context.Background(), "x"); !errors.Is(err, ErrAIFailed) {
		t.Fatalf("expected ErrAIFailed for empty output, got %v", err)
	}

	svc = NewAIService(AIServiceDeps{Generator: &stubContentGenerator{textErr: context.Canceled}})
	if _, err := svc.SuggestTitle(context.Background(), "x"); !errors.Is(err, context.Canceled) || errors.Is(err, ErrAIFailed) {
		t.Fatalf("expected bare context error, got %v", err)
	}
}

func TestAIServiceGenerateImage(t *testing.T) {
	gen := &stubContentGenerator{image: []byte{0x89, 'P', 'N', 'G'}}
	svc := NewAIService(AIServiceDeps{Generator: gen, ImageModel: "custom-image"})

	src, err := svc.GenerateImage(context.Background(), "Ring", "A ring")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if src.ContentType != "image/png" {
		t.Fatalf("expected png fallback content type, got %s", src.ContentType)
	}
	data, _ := io.ReadAll(src.Reader)
	if len(data) != 4 {
		t.Fatalf("unexpected payload %v", data)
	}
	if gen.models[0] != "custom-image" || !strings.Contains(gen.prompts[0], "Generate a square image.") {
		t.Fatalf("unexpected call %v %q", gen.models, gen.prompts[0])
	}

	gen.image = nil
	if _, err := svc.GenerateImage(context.Background(), "Ring", "A ring"); !errors.Is(err, ErrAIFailed) {
		t.Fatalf("expected ErrAIFailed without image data, got %v", err)
	}
}
