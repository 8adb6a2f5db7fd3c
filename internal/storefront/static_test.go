package storefront

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticServiceEmbeddedFixture(t *testing.T) {
	t.Parallel()

	svc, err := NewStaticService("")
	require.NoError(t, err)
	ctx := context.Background()

	featured, err := svc.FeaturedCollection(ctx, DefaultInContext)
	require.NoError(t, err)
	require.Equal(t, "winter-essentials", featured.Handle)

	collections, err := svc.FeaturedCollections(ctx, DefaultInContext)
	require.NoError(t, err)
	require.Len(t, collections, 3)
	require.Equal(t, []string{"winter-essentials", "trail-running", "home-studio"}, collectionHandles(collections))

	products, err := svc.RecommendedProducts(ctx, DefaultInContext)
	require.NoError(t, err)
	require.Len(t, products, 4)
	require.Equal(t, "merino-crew-sweater", products[0].Handle)
	require.Equal(t, "128.00", products[0].PriceRange.MinVariantPrice.Amount)
	require.NotNil(t, products[0].FeaturedImage())
}

func TestParseFixtureSortsByUpdatedAt(t *testing.T) {
	t.Parallel()

	svc, err := ParseFixture([]byte(`
collections:
  - id: old
    title: Old
    handle: old
    updated_at: 2020-01-01T00:00:00Z
  - id: new
    title: "<em>New</em>"
    handle: new
    updated_at: 2024-01-01T00:00:00Z
`))
	require.NoError(t, err)

	featured, err := svc.FeaturedCollection(context.Background(), DefaultInContext)
	require.NoError(t, err)
	require.Equal(t, "new", featured.ID)
	require.Equal(t, "New", featured.Title)

	products, err := svc.RecommendedProducts(context.Background(), DefaultInContext)
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestStaticServiceEmptyCollections(t *testing.T) {
	t.Parallel()

	svc, err := ParseFixture([]byte("collections: []\n"))
	require.NoError(t, err)

	_, err = svc.FeaturedCollections(context.Background(), DefaultInContext)
	require.ErrorIs(t, err, ErrEmptyResult)
}

func TestStaticServiceHonoursCancellation(t *testing.T) {
	t.Parallel()

	svc, err := NewStaticService("")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.RecommendedProducts(ctx, DefaultInContext)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStaticServiceFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
collections:
  - id: only
    title: Only
    handle: only
    updated_at: 2024-01-01T00:00:00Z
`), 0o600))

	svc, err := NewStaticService(path)
	require.NoError(t, err)
	collections, err := svc.FeaturedCollections(context.Background(), DefaultInContext)
	require.NoError(t, err)
	require.Equal(t, []string{"only"}, collectionHandles(collections))

	_, err = NewStaticService(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestInContextFromLocale(t *testing.T) {
	t.Parallel()

	cases := []struct {
		locale string
		want   InContext
	}{
		{"", DefaultInContext},
		{"en-us", InContext{Country: "US", Language: "EN"}},
		{"ja-JP", InContext{Country: "JP", Language: "JA"}},
		{"en_CA", InContext{Country: "CA", Language: "EN"}},
		{"fr-fr", InContext{Country: "FR", Language: "FR"}},
	}
	for _, tc := range cases {
		got, err := InContextFromLocale(tc.locale)
		require.NoError(t, err, tc.locale)
		require.Equal(t, tc.want, got, tc.locale)
	}

	_, err := InContextFromLocale("not a locale!")
	require.Error(t, err)
}

func collectionHandles(collections []Collection) []string {
	out := make([]string, 0, len(collections))
	for _, c := range collections {
		out = append(out, c.Handle)
	}
	return out
}
