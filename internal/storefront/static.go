package storefront

import (
	"context"
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/storefront.yaml
var fixtureFS embed.FS

const (
	defaultFixture           = "fixtures/storefront.yaml"
	featuredCollectionsLimit = 3
	recommendedProductsLimit = 4
)

// StaticService serves fixture data when no store domain is configured.
type StaticService struct {
	collections []Collection
	products    []Product
}

type fixtureFile struct {
	Collections []fixtureCollection `yaml:"collections"`
	Products    []fixtureProduct    `yaml:"products"`
}

type fixtureCollection struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Handle    string    `yaml:"handle"`
	UpdatedAt time.Time `yaml:"updated_at"`
	Image     *Image    `yaml:"image"`
}

type fixtureProduct struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Handle    string    `yaml:"handle"`
	UpdatedAt time.Time `yaml:"updated_at"`
	Price     struct {
		Amount       string `yaml:"amount"`
		CurrencyCode string `yaml:"currency_code"`
	} `yaml:"price"`
	Images []Image `yaml:"images"`
}

// NewStaticService loads the fixture at path, or the embedded fixture when path is empty.
func NewStaticService(path string) (*StaticService, error) {
	var (
		data []byte
		err  error
	)
	path = strings.TrimSpace(path)
	if path == "" {
		data, err = fixtureFS.ReadFile(defaultFixture)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("storefront: read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes YAML fixture data. Collections and products are ordered by
// updated_at descending, matching the UPDATED_AT reverse sort of the live queries.
func ParseFixture(data []byte) (*StaticService, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("storefront: parse fixture: %w", err)
	}

	sort.SliceStable(file.Collections, func(i, j int) bool {
		return file.Collections[i].UpdatedAt.After(file.Collections[j].UpdatedAt)
	})
	sort.SliceStable(file.Products, func(i, j int) bool {
		return file.Products[i].UpdatedAt.After(file.Products[j].UpdatedAt)
	})

	svc := &StaticService{}
	for _, c := range file.Collections {
		svc.collections = append(svc.collections, normalizeCollection(Collection{
			ID:     c.ID,
			Title:  c.Title,
			Handle: c.Handle,
			Image:  c.Image,
		}))
	}
	for _, p := range file.Products {
		svc.products = append(svc.products, normalizeProduct(Product{
			ID:     p.ID,
			Title:  p.Title,
			Handle: p.Handle,
			PriceRange: PriceRange{MinVariantPrice: MoneyV2{
				Amount:       p.Price.Amount,
				CurrencyCode: p.Price.CurrencyCode,
			}},
			Images: ImageConnection{Nodes: append([]Image(nil), p.Images...)},
		}))
	}
	return svc, nil
}

// FeaturedCollection returns the most recently updated fixture collection.
func (s *StaticService) FeaturedCollection(ctx context.Context, _ InContext) (Collection, error) {
	if err := ctx.Err(); err != nil {
		return Collection{}, &DataFetchError{Query: FeaturedCollectionQuery.Name, Err: err}
	}
	if len(s.collections) == 0 {
		return Collection{}, &DataFetchError{Query: FeaturedCollectionQuery.Name, Err: ErrEmptyResult}
	}
	return s.collections[0], nil
}

// FeaturedCollections returns up to three fixture collections.
func (s *StaticService) FeaturedCollections(ctx context.Context, _ InContext) ([]Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DataFetchError{Query: FeaturedCollectionsQuery.Name, Err: err}
	}
	if len(s.collections) == 0 {
		return nil, &DataFetchError{Query: FeaturedCollectionsQuery.Name, Err: ErrEmptyResult}
	}
	n := min(len(s.collections), featuredCollectionsLimit)
	return append([]Collection(nil), s.collections[:n]...), nil
}

// RecommendedProducts returns up to four fixture products.
func (s *StaticService) RecommendedProducts(ctx context.Context, _ InContext) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DataFetchError{Query: RecommendedProductsQuery.Name, Err: err}
	}
	n := min(len(s.products), recommendedProductsLimit)
	return append([]Product(nil), s.products[:n]...), nil
}
