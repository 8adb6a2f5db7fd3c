package storefront

// Document is a named GraphQL operation sent to the Storefront API.
type Document struct {
	Name   string
	Source string
}

// FeaturedCollectionQuery fetches the most recently updated collection.
var FeaturedCollectionQuery = Document{
	Name:   "FeaturedCollection",
	Source: featuredCollectionSource,
}

// FeaturedCollectionsQuery fetches the three most recently updated collections.
var FeaturedCollectionsQuery = Document{
	Name:   "FeaturedCollections",
	Source: featuredCollectionsSource,
}

// RecommendedProductsQuery fetches the four most recently updated products.
var RecommendedProductsQuery = Document{
	Name:   "RecommendedProducts",
	Source: recommendedProductsSource,
}

const featuredCollectionsSource = `#graphql
  fragment FeaturedCollection on Collection {
    id
    title
    image {
      id
      url
      altText
      width
      height
    }
    handle
  }
  query FeaturedCollections($country: CountryCode, $language: LanguageCode)
  @inContext(country: $country, language: $language) {
    collections(first: 3, sortKey: UPDATED_AT, reverse: true) {
      nodes {
        ...FeaturedCollection
      }
    }
  }
`

const featuredCollectionSource = `#graphql
  fragment FeaturedCollection on Collection {
    id
    title
    image {
      id
      url
      altText
      width
      height
    }
    handle
  }
  query FeaturedCollection($country: CountryCode, $language: LanguageCode)
    @inContext(country: $country, language: $language) {
    collections(first: 1, sortKey: UPDATED_AT, reverse: true) {
      nodes {
        ...FeaturedCollection
      }
    }
  }
`

const recommendedProductsSource = `#graphql
  fragment RecommendedProduct on Product {
    id
    title
    handle
    priceRange {
      minVariantPrice {
        amount
        currencyCode
      }
    }
    images(first: 1) {
      nodes {
        id
        url
        altText
        width
        height
      }
    }
  }
  query RecommendedProducts($country: CountryCode, $language: LanguageCode)
    @inContext(country: $country, language: $language) {
    products(first: 4, sortKey: UPDATED_AT, reverse: true) {
      nodes {
        ...RecommendedProduct
      }
    }
  }
`
