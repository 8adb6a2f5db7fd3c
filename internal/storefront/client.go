package storefront

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 8 * time.Second
	defaultAPIVersion = "2024-01"
	defaultCacheTTL   = 10 * time.Second
	defaultRate       = 10
	defaultBurst      = 20

	tokenHeader        = "X-Shopify-Storefront-Access-Token"
	requestGroupHeader = "custom-storefront-request-group-id"
	instrumentationKey = "finitefield.org/storefront-web/internal/storefront"
)

var (
	tracer = otel.Tracer(instrumentationKey)

	errMissingDomain = errors.New("storefront: missing store domain")
	errMissingToken  = errors.New("storefront: missing storefront api token")
)

// Client executes Storefront API GraphQL documents.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   *zap.Logger
	// timeout bounds a shared flight, which outlives any single caller.
	timeout  time.Duration

	cache   *cache.Cache
	group   singleflight.Group
	limiter *rate.Limiter

	latency          metric.Float64Histogram
	latencyEnabled   bool
	cacheHits        metric.Int64Counter
	cacheHitsEnabled bool
}

type clientConfig struct {
	apiVersion string
	httpClient *http.Client
	logger     *zap.Logger
	meter      metric.Meter
	cacheTTL   time.Duration
	rps        float64
	burst      int
	scheme     string
}

// Option customises Client construction.
type Option func(*clientConfig)

// WithAPIVersion overrides the Storefront API version segment.
func WithAPIVersion(version string) Option {
	return func(cfg *clientConfig) {
		cfg.apiVersion = strings.TrimSpace(version)
	}
}

// WithHTTPClient injects the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = client
	}
}

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *clientConfig) {
		cfg.meter = m
	}
}

// WithCacheTTL sets how long successful responses are reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cfg *clientConfig) {
		cfg.cacheTTL = ttl
	}
}

// WithRateLimit bounds outbound requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cfg *clientConfig) {
		cfg.rps = perSecond
		cfg.burst = burst
	}
}

// WithInsecureScheme targets plain http, for local mocks.
func WithInsecureScheme() Option {
	return func(cfg *clientConfig) {
		cfg.scheme = "http"
	}
}

// NewClient builds a client for the given store domain, e.g. "shop.example.com".
func NewClient(domain, token string, opts ...Option) (*Client, error) {
	cfg := clientConfig{
		apiVersion: defaultAPIVersion,
		cacheTTL:   defaultCacheTTL,
		rps:        defaultRate,
		burst:      defaultBurst,
		scheme:     "https",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	host := strings.TrimSpace(domain)
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	host = strings.TrimRight(host, "/")
	if host == "" {
		return nil, errMissingDomain
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errMissingToken
	}
	if cfg.apiVersion == "" {
		cfg.apiVersion = defaultAPIVersion
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	meter := cfg.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationKey)
	}

	latency, latencyErr := meter.Float64Histogram(
		"storefront.query.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for storefront queries"),
	)
	if latencyErr != nil {
		cfg.logger.Warn("storefront: unable to register latency metric", zap.Error(latencyErr))
	}
	cacheHits, cacheErr := meter.Int64Counter(
		"storefront.query.cache_hits",
		metric.WithDescription("Count of storefront queries served from cache"),
	)
	if cacheErr != nil {
		cfg.logger.Warn("storefront: unable to register cache hit metric", zap.Error(cacheErr))
	}

	c := &Client{
		endpoint:         fmt.Sprintf("%s://%s/api/%s/graphql.json", cfg.scheme, host, cfg.apiVersion),
		token:            token,
		http:             cfg.httpClient,
		timeout:          flightTimeout(cfg.httpClient),
		logger:           cfg.logger.Named("storefront"),
		latency:          latency,
		latencyEnabled:   latencyErr == nil,
		cacheHits:        cacheHits,
		cacheHitsEnabled: cacheErr == nil,
	}
	if cfg.cacheTTL > 0 {
		// No janitor goroutine: keys are bounded by query and InContext,
		// and each flight drops expired entries before storing.
		c.cache = cache.New(cfg.cacheTTL, 0)
	}
	if cfg.rps > 0 {
		burst := cfg.burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.rps), burst)
	}
	return c, nil
}

// Endpoint returns the GraphQL URL the client posts to.
func (c *Client) Endpoint() string { return c.endpoint }

// FeaturedCollection returns the most recently updated collection.
func (c *Client) FeaturedCollection(ctx context.Context, ic InContext) (Collection, error) {
	var payload collectionsPayload
	if err := c.Query(ctx, FeaturedCollectionQuery, ic.Variables(), &payload); err != nil {
		return Collection{}, err
	}
	nodes := payload.Collections.Nodes
	if len(nodes) == 0 {
		return Collection{}, &DataFetchError{Query: FeaturedCollectionQuery.Name, Err: ErrEmptyResult}
	}
	return normalizeCollection(nodes[0]), nil
}

// FeaturedCollections returns up to three recently updated collections.
func (c *Client) FeaturedCollections(ctx context.Context, ic InContext) ([]Collection, error) {
	var payload collectionsPayload
	if err := c.Query(ctx, FeaturedCollectionsQuery, ic.Variables(), &payload); err != nil {
		return nil, err
	}
	nodes := payload.Collections.Nodes
	if len(nodes) == 0 {
		return nil, &DataFetchError{Query: FeaturedCollectionsQuery.Name, Err: ErrEmptyResult}
	}
	out := make([]Collection, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, normalizeCollection(node))
	}
	return out, nil
}

// RecommendedProducts returns up to four recently updated products.
func (c *Client) RecommendedProducts(ctx context.Context, ic InContext) ([]Product, error) {
	var payload productsPayload
	if err := c.Query(ctx, RecommendedProductsQuery, ic.Variables(), &payload); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(payload.Products.Nodes))
	for _, node := range payload.Products.Nodes {
		out = append(out, normalizeProduct(node))
	}
	return out, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors GraphQLErrors   `json:"errors"`
}

// Query executes doc and decodes its data object into out.
// Identical concurrent queries share one request and successful results are cached.
// The shared request is detached from ctx, so one caller giving up does not
// fail the others; ctx only bounds how long this caller waits.
func (c *Client) Query(ctx context.Context, doc Document, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: doc.Source, Variables: vars})
	if err != nil {
		return &DataFetchError{Query: doc.Name, Err: err}
	}
	sum := sha256.Sum256(body)
	key := hex.EncodeToString(sum[:])

	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.recordCacheHit(ctx, doc.Name)
			return decodeData(doc.Name, cached.([]byte), out)
		}
	}

	flight := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		data, err := c.execute(fctx, doc, body)
		if err == nil && c.cache != nil {
			c.cache.DeleteExpired()
			c.cache.SetDefault(key, data)
		}
		return data, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return &DataFetchError{Query: doc.Name, Err: ctx.Err()}
	case res = <-flight:
	}
	if res.Err != nil {
		return res.Err
	}
	data := res.Val.([]byte)
	if res.Shared {
		c.logger.Debug("storefront query coalesced", zap.String("query", doc.Name))
	}
	return decodeData(doc.Name, data, out)
}

func (c *Client) execute(ctx context.Context, doc Document, body []byte) (_ []byte, err error) {
	ctx, span := tracer.Start(ctx, "storefront."+doc.Name, trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()
	status := 0
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		span.End()
		c.recordLatency(ctx, doc.Name, time.Since(start), err == nil)
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &DataFetchError{Query: doc.Name, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &DataFetchError{Query: doc.Name, Err: err}
	}
	groupID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(tokenHeader, c.token)
	req.Header.Set(requestGroupHeader, groupID)
	span.SetAttributes(attribute.String("storefront.request_group_id", groupID))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &DataFetchError{Query: doc.Name, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	if resp.StatusCode >= 300 {
		return nil, &DataFetchError{Query: doc.Name, Status: resp.StatusCode, Err: errors.New(drainError(resp.Body))}
	}

	var payload graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &DataFetchError{Query: doc.Name, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(payload.Errors) > 0 {
		return nil, &DataFetchError{Query: doc.Name, Status: resp.StatusCode, Err: payload.Errors}
	}
	if len(payload.Data) == 0 || string(payload.Data) == "null" {
		return nil, &DataFetchError{Query: doc.Name, Status: resp.StatusCode, Err: ErrEmptyResult}
	}
	return []byte(payload.Data), nil
}

func flightTimeout(client *http.Client) time.Duration {
	if client != nil && client.Timeout > 0 {
		return client.Timeout
	}
	return defaultTimeout
}

func decodeData(name string, data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DataFetchError{Query: name, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func (c *Client) recordLatency(ctx context.Context, name string, d time.Duration, ok bool) {
	if !c.latencyEnabled {
		return
	}
	c.latency.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("query", name),
		attribute.Bool("success", ok),
	))
}

func (c *Client) recordCacheHit(ctx context.Context, name string) {
	if !c.cacheHitsEnabled {
		return
	}
	c.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("query", name)))
}

func drainError(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return "unexpected response"
	}
	return msg
}
