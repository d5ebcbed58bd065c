package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/lacereza/storefront/internal/media"
)

const (
	defaultAITextModel  = "gemini-2.5-flash"
	defaultAIImageModel = "gemini-2.5-flash-image"
)

var (
	// ErrAIUnavailable indicates no generative model is configured.
	ErrAIUnavailable = errors.New("ai service: not configured")
	// ErrAIFailed indicates the model call failed or returned nothing usable.
	ErrAIFailed = errors.New("ai service: generation failed")
)

// ContentGenerator is the model surface used by the AI helpers.
type ContentGenerator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
	GenerateImage(ctx context.Context, model, prompt string) (mimeType string, data []byte, err error)
}

// AIServiceDeps wires the AI helpers. A nil Generator disables them.
type AIServiceDeps struct {
	Generator  ContentGenerator
	TextModel  string
	ImageModel string
	Logger     func(context.Context, string, map[string]any)
}

type aiService struct {
	generator  ContentGenerator
	textModel  string
	imageModel string
	sanitize   func(string) string
	logger     func(context.Context, string, map[string]any)
}

// NewAIService constructs the AI helpers.
func NewAIService(deps AIServiceDeps) AIService {
	textModel := strings.TrimSpace(deps.TextModel)
	if textModel == "" {
		textModel = defaultAITextModel
	}
	imageModel := strings.TrimSpace(deps.ImageModel)
	if imageModel == "" {
		imageModel = defaultAIImageModel
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &aiService{
		generator:  deps.Generator,
		textModel:  textModel,
		imageModel: imageModel,
		sanitize:   plainTextSanitizer(),
		logger:     logger,
	}
}

func (s *aiService) Enabled() bool {
	return s.generator != nil
}

// GenerateDescription writes a short product blurb (under 30 words).
func (s *aiService) GenerateDescription(ctx context.Context, productName string) (string, error) {
	prompt := fmt.Sprintf("Generate a seductive and appealing product description for an adult toy named %q. "+
		"The description should be short, enticing, and focus on pleasure and excitement. Keep it under 30 words. "+
		"Do not use explicit or vulgar language.", strings.TrimSpace(productName))
	return s.text(ctx, "ai.description", prompt)
}

// SuggestTitle proposes a 2-4 word product name for a description.
func (s *aiService) SuggestTitle(ctx context.Context, description string) (string, error) {
	prompt := fmt.Sprintf("Based on the following adult toy description, suggest a short, catchy, and evocative "+
		"product name (2-4 words max): %q", strings.TrimSpace(description))
	return s.text(ctx, "ai.title", prompt)
}

// GenerateImage renders a square product shot. The result still has to go through the normaliser.
func (s *aiService) GenerateImage(ctx context.Context, productName, description string) (media.Source, error) {
	if !s.Enabled() {
		return media.Source{}, ErrAIUnavailable
	}
	prompt := fmt.Sprintf(`Generate a professional, high-quality, visually appealing e-commerce product image for an adult toy.
Product Name: %q
Description: %q
Style requirements: The product should be the central focus, placed on a clean, minimalist, and elegant background (like marble, silk, or a soft gradient). The lighting should be soft and sophisticated, highlighting the product's texture and shape. The overall mood should be luxurious and sensual, not explicit. Avoid any human elements or distracting props. Generate a square image.`,
		strings.TrimSpace(productName), strings.TrimSpace(description))

	mimeType, data, err := s.generator.GenerateImage(ctx, s.imageModel, prompt)
	if err != nil {
		return media.Source{}, s.failure(ctx, "ai.image", err)
	}
	if len(data) == 0 {
		return media.Source{}, s.failure(ctx, "ai.image", errors.New("no image data in response"))
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	s.logger(ctx, "ai.image.generated", map[string]any{"model": s.imageModel, "bytes": len(data)})
	return media.BytesSource("generated", mimeType, data), nil
}

func (s *aiService) text(ctx context.Context, event, prompt string) (string, error) {
	if !s.Enabled() {
		return "", ErrAIUnavailable
	}
	out, err := s.generator.GenerateText(ctx, s.textModel, prompt)
	if err != nil {
		return "", s.failure(ctx, event, err)
	}
	cleaned := strings.TrimSpace(stripQuotesAndStars(s.sanitize(strings.TrimSpace(out))))
	if cleaned == "" {
		return "", s.failure(ctx, event, errors.New("empty response"))
	}
	return cleaned, nil
}

func (s *aiService) failure(ctx context.Context, event string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.logger(ctx, event+".failed", map[string]any{"error": err.Error()})
	return fmt.Errorf("%w: %w", ErrAIFailed, err)
}

func stripQuotesAndStars(value string) string {
	return strings.NewReplacer(`"`, "", "*", "").Replace(value)
}

// GenAIGenerator calls Gemini through the Google Gen AI SDK.
type GenAIGenerator struct {
	client *genai.Client
}

// NewGenAIGenerator creates a Gemini API client for the supplied key.
func NewGenAIGenerator(ctx context.Context, apiKey string) (*GenAIGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrAIUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai service: create client: %w", err)
	}
	return &GenAIGenerator{client: client}, nil
}

// GenerateText returns the concatenated text parts of the first candidate.
func (g *GenAIGenerator) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GenerateImage returns the first inline image part of the response.
func (g *GenAIGenerator) GenerateImage(ctx context.Context, model, prompt string) (string, []byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return "", nil, err
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.MIMEType, part.InlineData.Data, nil
			}
		}
	}
	return "", nil, errors.New("no image data found in response")
}
