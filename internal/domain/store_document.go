package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// StoreDocument is the single persisted aggregate describing the shop.
type StoreDocument struct {
	Name           string         `json:"name"`
	Logo           ImageRef       `json:"logo"`
	FeaturedBanner FeaturedBanner `json:"featuredBanner"`
	Categories     Categories     `json:"categories"`
	Footer         Footer         `json:"footer"`
}

// FeaturedBanner is the hero section shown above the catalog. The gallery is displayed cyclically.
type FeaturedBanner struct {
	Title       string     `json:"title"`
	Image       ImageRef   `json:"image"`
	Description string     `json:"description"`
	Gallery     []ImageRef `json:"gallery"`
}

// Category groups products under a display name.
type Category struct {
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// Product is a sellable catalog item. Price is expressed in the smallest currency unit.
type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Price       int64      `json:"price"`
	Description string     `json:"description"`
	Image       ImageRef   `json:"image"`
	Gallery     []ImageRef `json:"gallery"`
}

// Footer holds the closing texts of the page.
type Footer struct {
	MainText      string `json:"mainText"`
	CopyrightText string `json:"copyrightText"`
}

// Categories is an insertion-ordered mapping from category key to Category.
// The zero value is an empty, ready to use mapping.
type Categories struct {
	keys    []string
	entries map[string]Category
}

// NewCategories builds an ordered mapping from entries, keeping their order.
func NewCategories(pairs ...CategoryEntry) Categories {
	var c Categories
	for _, pair := range pairs {
		c.Set(pair.Key, pair.Category)
	}
	return c
}

// CategoryEntry pairs a key with its category, used for ordered iteration.
type CategoryEntry struct {
	Key      string
	Category Category
}

// Len returns the number of categories.
func (c Categories) Len() int { return len(c.keys) }

// Keys returns the keys in display order.
func (c Categories) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Entries returns the key/category pairs in display order.
func (c Categories) Entries() []CategoryEntry {
	out := make([]CategoryEntry, 0, len(c.keys))
	for _, key := range c.keys {
		out = append(out, CategoryEntry{Key: key, Category: c.entries[key]})
	}
	return out
}

// Get looks up a category by key.
func (c Categories) Get(key string) (Category, bool) {
	cat, ok := c.entries[key]
	return cat, ok
}

// Has reports whether the key exists.
func (c Categories) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Set replaces an existing category in place or appends a new key at the end.
func (c *Categories) Set(key string, cat Category) {
	if c.entries == nil {
		c.entries = make(map[string]Category)
	}
	if _, ok := c.entries[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.entries[key] = cat
}

// Delete removes a key, keeping the order of the remaining keys. It reports whether the key existed.
func (c *Categories) Delete(key string) bool {
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i:i], c.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns a deep copy.
func (c Categories) Clone() Categories {
	out := Categories{
		keys:    make([]string, len(c.keys)),
		entries: make(map[string]Category, len(c.entries)),
	}
	copy(out.keys, c.keys)
	for key, cat := range c.entries {
		out.entries[key] = cat.Clone()
	}
	return out
}

// Equal reports whether both mappings hold equal categories in the same order.
func (c Categories) Equal(other Categories) bool {
	if len(c.keys) != len(other.keys) {
		return false
	}
	for i, key := range c.keys {
		if other.keys[i] != key {
			return false
		}
		if !c.entries[key].Equal(other.entries[key]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes an object whose members follow display order.
func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedCat, err := json.Marshal(c.entries[key])
		if err != nil {
			return nil, fmt.Errorf("encode category %q: %w", key, err)
		}
		buf.Write(encodedCat)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping the member order of the input. Null yields an empty mapping.
// A repeated member keeps its first position and its last value.
func (c *Categories) UnmarshalJSON(data []byte) error {
	*c = Categories{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("categories must be a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.New("categories key must be a string")
		}
		var cat Category
		if err := dec.Decode(&cat); err != nil {
			return fmt.Errorf("decode category %q: %w", key, err)
		}
		cat.normalize()
		c.Set(key, cat)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Equal reports whether two categories have the same name and products.
func (c Category) Equal(other Category) bool {
	if c.Name != other.Name || len(c.Products) != len(other.Products) {
		return false
	}
	for i := range c.Products {
		if !c.Products[i].Equal(other.Products[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (c Category) Clone() Category {
	out := Category{Name: c.Name, Products: make([]Product, len(c.Products))}
	for i, p := range c.Products {
		out.Products[i] = p.Clone()
	}
	return out
}

func (c *Category) normalize() {
	if c.Products == nil {
		c.Products = []Product{}
	}
	for i := range c.Products {
		if c.Products[i].Gallery == nil {
			c.Products[i].Gallery = []ImageRef{}
		}
	}
}

// UnmarshalJSON accepts fractional or null numbers for id and price, which older editors could store.
// Fractions are rounded to the nearest integer; null decodes as zero.
func (p *Product) UnmarshalJSON(data []byte) error {
	type productAlias Product
	var aux struct {
		productAlias
		ID    *float64 `json:"id"`
		Price *float64 `json:"price"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Product(aux.productAlias)
	p.ID = roundNumber(aux.ID)
	p.Price = roundNumber(aux.Price)
	return nil
}

func roundNumber(v *float64) int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return int64(math.Round(*v))
}

// Equal compares every field, including gallery order.
func (p Product) Equal(other Product) bool {
	return p.ID == other.ID &&
		p.Name == other.Name &&
		p.Price == other.Price &&
		p.Description == other.Description &&
		p.Image.Equal(other.Image) &&
		imageRefsEqual(p.Gallery, other.Gallery)
}

func imageRefsEqual(a, b []ImageRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the product.
func (p Product) Clone() Product {
	p.Gallery = cloneImageRefs(p.Gallery)
	return p
}

// Clone returns a deep copy of the document. Embedded image bytes are shared because ImageRef is immutable.
func (d StoreDocument) Clone() StoreDocument {
	out := d
	out.FeaturedBanner.Gallery = cloneImageRefs(d.FeaturedBanner.Gallery)
	out.Categories = d.Categories.Clone()
	return out
}

// Normalize replaces nil collections with empty ones so that the document encodes without nulls.
func (d *StoreDocument) Normalize() {
	if d.FeaturedBanner.Gallery == nil {
		d.FeaturedBanner.Gallery = []ImageRef{}
	}
	for _, key := range d.Categories.keys {
		cat := d.Categories.entries[key]
		cat.normalize()
		d.Categories.entries[key] = cat
	}
}

// NextProductID returns one more than the highest product id in the document, or 1 when there are none.
// Ids freed by deleting the highest product are handed out again.
func (d StoreDocument) NextProductID() int64 {
	var highest int64
	for _, key := range d.Categories.keys {
		for _, p := range d.Categories.entries[key].Products {
			if p.ID > highest {
				highest = p.ID
			}
		}
	}
	return highest + 1
}

// FindProduct locates a product anywhere in the document.
func (d StoreDocument) FindProduct(id int64) (Product, string, bool) {
	for _, key := range d.Categories.keys {
		for _, p := range d.Categories.entries[key].Products {
			if p.ID == id {
				return p, key, true
			}
		}
	}
	return Product{}, "", false
}

// EncodedSize returns the size in bytes of the JSON form persisted by the repositories.
func (d StoreDocument) EncodedSize() (int, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}
