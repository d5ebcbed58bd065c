package domain

// DefaultStoreDocument returns the canonical seed document. Each call builds a fresh value.
func DefaultStoreDocument() StoreDocument {
	return StoreDocument{
		Name: "Pleasure Palace",
		Logo: Glyph("💋"),
		FeaturedBanner: FeaturedBanner{
			Title:       "Model of the Month",
			Image:       LinkedImage("https://picsum.photos/seed/featured/800/600"),
			Description: "Discover our exclusive collection of the month with special discounts.",
			Gallery: []ImageRef{
				LinkedImage("https://picsum.photos/seed/gallery1/800/600"),
				LinkedImage("https://picsum.photos/seed/gallery2/800/600"),
				LinkedImage("https://picsum.photos/seed/gallery3/800/600"),
			},
		},
		Categories: NewCategories(
			CategoryEntry{Key: "toys", Category: Category{
				Name: "Toys",
				Products: []Product{
					{
						ID:          1,
						Name:        "Premium Vibrator",
						Price:       45000,
						Description: "High-quality vibrator with multiple speeds.",
						Image:       Glyph("🎀"),
						Gallery: []ImageRef{
							LinkedImage("https://picsum.photos/seed/toy1/400"),
							LinkedImage("https://picsum.photos/seed/toy2/400"),
						},
					},
					{
						ID:          2,
						Name:        "Vibrating Ring",
						Price:       25000,
						Description: "Vibrating ring for couples.",
						Image:       Glyph("💍"),
						Gallery:     []ImageRef{},
					},
				},
			}},
			CategoryEntry{Key: "lubricants", Category: Category{
				Name: "Lubricants",
				Products: []Product{
					{
						ID:          5,
						Name:        "Water-Based Lubricant",
						Price:       15000,
						Description: "100ml, water-based.",
						Image:       Glyph("💧"),
						Gallery:     []ImageRef{},
					},
				},
			}},
		),
		Footer: Footer{
			MainText:      "Discreet shipping guaranteed.",
			CopyrightText: "All rights reserved.",
		},
	}
}

// NewProduct returns the placeholder product appended by the editor.
func NewProduct(id int64) Product {
	return Product{
		ID:          id,
		Name:        "New Product",
		Price:       0,
		Description: "Product description",
		Image:       Glyph("✨"),
		Gallery:     []ImageRef{},
	}
}
