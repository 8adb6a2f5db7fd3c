package storefront

import (
	"context"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Service exposes the storefront queries used by the homepage.
type Service interface {
	// FeaturedCollection returns the most recently updated collection.
	FeaturedCollection(ctx context.Context, ic InContext) (Collection, error)
	// FeaturedCollections returns up to three recently updated collections.
	FeaturedCollections(ctx context.Context, ic InContext) ([]Collection, error)
	// RecommendedProducts returns up to four recently updated products.
	RecommendedProducts(ctx context.Context, ic InContext) ([]Product, error)
}

// Image mirrors the Storefront API Image fields selected by the queries.
type Image struct {
	ID      string `json:"id" yaml:"id"`
	URL     string `json:"url" yaml:"url"`
	AltText string `json:"altText" yaml:"alt_text"`
	Width   int    `json:"width" yaml:"width"`
	Height  int    `json:"height" yaml:"height"`
}

// Collection is a FeaturedCollection fragment.
type Collection struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Image  *Image `json:"image"`
	Handle string `json:"handle"`
}

// MoneyV2 is an amount with its ISO 4217 currency code.
type MoneyV2 struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// PriceRange holds the minimum variant price of a product.
type PriceRange struct {
	MinVariantPrice MoneyV2 `json:"minVariantPrice"`
}

// ImageConnection wraps image nodes.
type ImageConnection struct {
	Nodes []Image `json:"nodes"`
}

// Product is a RecommendedProduct fragment.
type Product struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Handle     string          `json:"handle"`
	PriceRange PriceRange      `json:"priceRange"`
	Images     ImageConnection `json:"images"`
}

// FeaturedImage returns the first product image, or nil.
func (p Product) FeaturedImage() *Image {
	if len(p.Images.Nodes) == 0 {
		return nil
	}
	img := p.Images.Nodes[0]
	return &img
}

type collectionsPayload struct {
	Collections struct {
		Nodes []Collection `json:"nodes"`
	} `json:"collections"`
}

type productsPayload struct {
	Products struct {
		Nodes []Product `json:"nodes"`
	} `json:"products"`
}

var titlePolicy = bluemonday.StrictPolicy()

// plainText strips markup from merchant-entered text.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(titlePolicy.Sanitize(s)))
}

func normalizeCollection(c Collection) Collection {
	c.Title = plainText(c.Title)
	c.Handle = strings.TrimSpace(c.Handle)
	if c.Image != nil {
		img := *c.Image
		img.AltText = plainText(img.AltText)
		c.Image = &img
	}
	return c
}

func normalizeProduct(p Product) Product {
	p.Title = plainText(p.Title)
	p.Handle = strings.TrimSpace(p.Handle)
	for i := range p.Images.Nodes {
		p.Images.Nodes[i].AltText = plainText(p.Images.Nodes[i].AltText)
	}
	return p
}
