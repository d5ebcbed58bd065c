package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const chatBaseURL = "https://wa.me/"

var (
	// ErrCheckoutEmptyCart indicates a cart link was requested without products.
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	// ErrCheckoutNotConfigured indicates no chat number is configured.
	ErrCheckoutNotConfigured = errors.New("checkout: chat number is not configured")
)

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Documents      DocumentSource
	ChatNumber     string
	CurrencyLocale string
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	documents DocumentSource
	number    string
	printer   *message.Printer
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs a checkout service that prices carts against the published document.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Documents == nil {
		return nil, errors.New("checkout service: document source is required")
	}
	number := digitsOnly(deps.ChatNumber)
	if number == "" {
		return nil, ErrCheckoutNotConfigured
	}
	tag := language.Make("es-CO")
	if locale := strings.TrimSpace(deps.CurrencyLocale); locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("checkout service: invalid currency locale %q: %w", locale, err)
		}
		tag = parsed
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &checkoutService{
		documents: deps.Documents,
		number:    number,
		printer:   message.NewPrinter(tag),
		logger:    logger,
	}, nil
}

// CartLink totals the cart and builds the order message. Repeated ids count as separate units.
func (s *checkoutService) CartLink(ctx context.Context, cmd CartLinkCommand) (CheckoutLink, error) {
	if len(cmd.ProductIDs) == 0 {
		return CheckoutLink{}, ErrCheckoutEmptyCart
	}
	doc, err := s.documents.Published(ctx)
	if err != nil {
		return CheckoutLink{}, err
	}

	items := make([]Product, 0, len(cmd.ProductIDs))
	var total int64
	for _, id := range cmd.ProductIDs {
		product, _, ok := doc.FindProduct(id)
		if !ok {
			return CheckoutLink{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		items = append(items, product.Clone())
		total += product.Price
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s ($%s)", item.Name, s.price(item.Price)))
	}
	text := fmt.Sprintf("Hello! I want to order:\n\n%s\n\nTotal: $%s", strings.Join(lines, "\n"), s.price(total))

	s.logger(ctx, "checkout.cart_link", map[string]any{"items": len(items), "total": total})
	return CheckoutLink{URL: s.chatURL(text), Message: text, Total: total, Items: items}, nil
}

func (s *checkoutService) InquiryLink(ctx context.Context, productID int64) (CheckoutLink, error) {
	doc, err := s.documents.Published(ctx)
	if err != nil {
		return CheckoutLink{}, err
	}
	product, _, ok := doc.FindProduct(productID)
	if !ok {
		return CheckoutLink{}, ErrProductNotFound
	}
	text := "Hello! I'm interested in: " + product.Name
	return CheckoutLink{
		URL:     s.chatURL(text),
		Message: text,
		Total:   product.Price,
		Items:   []Product{product.Clone()},
	}, nil
}

// ContactLink opens a general conversation that is not tied to a product.
func (s *checkoutService) ContactLink(ctx context.Context) (CheckoutLink, error) {
	text := "Hello! I have a question"
	s.logger(ctx, "checkout.contact_link", nil)
	return CheckoutLink{URL: s.chatURL(text), Message: text}, nil
}

func (s *checkoutService) price(amount int64) string {
	return s.printer.Sprintf("%d", amount)
}

// chatURL percent-encodes spaces as %20 rather than '+'.
func (s *checkoutService) chatURL(text string) string {
	return chatBaseURL + s.number + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
