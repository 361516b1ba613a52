package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fivetwenty-io/notion-client/internal/auth"
	"github.com/fivetwenty-io/notion-client/internal/constants"
	"github.com/fivetwenty-io/notion-client/internal/http"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Client implements the notion.Client interface.
type Client struct {
	*DatabasesClient
	*PagesClient

	httpClient   *http.Client
	tokenManager auth.TokenManager
	logger       notion.Logger
}

var _ notion.Client = (*Client)(nil)

// New creates a client from config. The token is wrapped in a static token
// manager; nothing is read from the environment.
func New(ctx context.Context, config *notion.Config) (*Client, error) {
	if config == nil {
		return nil, notion.ErrConfigRequired
	}

	credential, err := auth.NewCredential(config.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", notion.ErrTokenRequired, err)
	}

	return NewWithTokenManager(config, auth.NewStaticTokenManager(credential))
}

// NewWithTokenManager creates a client with a custom token manager.
func NewWithTokenManager(config *notion.Config, tokenManager auth.TokenManager, extra ...http.Option) (*Client, error) {
	if config == nil {
		return nil, notion.ErrConfigRequired
	}

	if tokenManager == nil {
		return nil, ErrNoTokenManagerConfigured
	}

	httpOpts, err := createHTTPClientOptions(config)
	if err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}

	httpClient := http.NewClient(baseURL, tokenManager, append(httpOpts, extra...)...)

	pagination := notion.DefaultPaginationOptions()
	if config.PageSize > 0 {
		pagination.PageSize = config.PageSize
	}

	if config.MaxPages > 0 {
		pagination.MaxPages = config.MaxPages
	}

	calls := &tracer{logger: config.Logger}

	return &Client{
		DatabasesClient: NewDatabasesClient(httpClient, calls, pagination),
		PagesClient:     NewPagesClient(httpClient, calls),
		httpClient:      httpClient,
		tokenManager:    tokenManager,
		logger:          config.Logger,
	}, nil
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *notion.Config) ([]http.Option, error) {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 || config.RetryWaitMin > 0 || config.RetryWaitMax > 0 {
		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	rps, burst := config.RateLimit, config.RateBurst
	if rps == 0 {
		rps = constants.DefaultRateLimit
	}

	if burst == 0 {
		burst = constants.DefaultRateBurst
	}

	httpOpts = append(httpOpts, http.WithRateLimit(rps, burst))

	httpOpts = append(httpOpts, http.WithInterceptors(newInterceptorChain(config)))

	if config.MetricsRegisterer != nil {
		collector, err := notion.NewMetricsCollector(config.MetricsRegisterer)
		if err != nil {
			return nil, err
		}

		httpOpts = append(httpOpts, http.WithMetrics(collector))
	}

	return httpOpts, nil
}

// newInterceptorChain installs call logging in debug mode, then static
// headers, then the caller's interceptors.
func newInterceptorChain(config *notion.Config) *notion.InterceptorChain {
	chain := notion.NewInterceptorChain()

	if config.Debug && config.Logger != nil {
		chain.AddRequestInterceptor(notion.LoggingInterceptor(config.Logger))
		chain.AddResponseInterceptor(notion.LoggingResponseInterceptor(config.Logger))
	}

	if len(config.Headers) > 0 {
		chain.AddRequestInterceptor(notion.HeaderInterceptor(config.Headers))
	}

	for _, interceptor := range config.RequestInterceptors {
		chain.AddRequestInterceptor(interceptor)
	}

	for _, interceptor := range config.ResponseInterceptors {
		chain.AddResponseInterceptor(interceptor)
	}

	return chain
}

// tracer tags every operation with a correlation id and logs its outcome.
type tracer struct {
	logger notion.Logger
}

type call struct {
	id        string
	operation string
	started   time.Time
	fields    map[string]interface{}
	logger    notion.Logger
}

func (t *tracer) start(ctx context.Context, operation string, fields map[string]interface{}) (context.Context, *call) {
	c := &call{
		id:        uuid.NewString(),
		operation: operation,
		started:   time.Now(),
		fields:    fields,
		logger:    t.logger,
	}

	if c.fields == nil {
		c.fields = make(map[string]interface{})
	}

	c.fields["operation"] = operation
	c.fields["call_id"] = c.id

	if c.logger != nil {
		c.logger.Debug("Operation started", c.fields)
	}

	return http.ContextWithCallID(ctx, c.id), c
}

func (c *call) finish(err error) {
	if c.logger == nil {
		return
	}

	c.fields["duration"] = time.Since(c.started).String()

	if err != nil {
		c.fields["error"] = err.Error()
		c.fields["kind"] = string(notion.KindOf(err))
		c.logger.Warn("Operation failed", c.fields)

		return
	}

	c.logger.Info("Operation completed", c.fields)
}

// escapeRef makes an entity reference a single path segment. References are
// opaque, so separators, query markers and dot segments are escaped.
func escapeRef(ref string) string {
	if ref == "." || ref == ".." {
		return strings.ReplaceAll(ref, ".", "%2E")
	}

	return url.PathEscape(ref)
}
