package notion

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatabasesClient lists and resolves databases shared with the integration.
type DatabasesClient interface {
	ListDatabases(ctx context.Context) ([]Database, error)
	GetDatabase(ctx context.Context, ref string) (*Database, error)
	FindDatabase(ctx context.Context, name string) (*Database, error)
	QueryDatabase(ctx context.Context, ref string, filter *Filter, sorts []Sort) ([]Page, error)
}

// PagesClient manages pages inside databases.
type PagesClient interface {
	GetPage(ctx context.Context, ref string) (*Page, error)
	CreatePage(ctx context.Context, parentRef string, props map[string]Value) (*Page, error)
	UpdatePage(ctx context.Context, ref string, props map[string]Value) (*Page, error)
	DeletePage(ctx context.Context, ref string) error
}

// Client is the operation surface of the adapter. Every method runs to
// completion, including retries and pagination, before returning.
type Client interface {
	DatabasesClient
	PagesClient
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a notion.Client.
//
// The token is the only credential. It is passed to the transport at
// construction and sent as a Bearer token on every request; the client never
// reads it from the environment.
//
// # Retries
//
// Rate limited (429), unavailable (5xx) and unanswered requests are retried
// with exponential backoff: RetryWaitMin, doubled per attempt, capped at
// RetryWaitMax, for at most RetryMax attempts in total. A Retry-After header
// on a 429 replaces the computed delay. Page creates, updates and archives are
// never retried when no response was received.
type Config struct {
	// Token: integration token. Required.
	Token string

	// BaseURL: service root, defaults to https://api.notion.com. Overridden in tests.
	BaseURL string

	// HTTPTimeout: per-attempt timeout of the underlying http.Client.
	HTTPTimeout time.Duration
	// RetryMax: total attempts per logical call including the first. 0 uses the default of 3.
	RetryMax int
	// RetryWaitMin: delay before the first retry.
	RetryWaitMin time.Duration
	// RetryWaitMax: upper bound of any computed delay.
	RetryWaitMax time.Duration

	// RateLimit: client-side request pacing in requests per second. 0 uses the
	// default; a negative value disables pacing.
	RateLimit float64
	// RateBurst: burst allowed by the pacer.
	RateBurst int

	// PageSize: results requested per page when draining listings (max 100).
	PageSize int
	// MaxPages: caps the pages fetched by one listing; 0 drains everything.
	MaxPages int

	// Headers: static headers added to every call. The credential, the
	// pinned Notion-Version and Content-Type always win over these.
	Headers map[string]string
	// RequestInterceptors and ResponseInterceptors run once per logical call,
	// after the built-in logging and metrics interceptors.
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor

	UserAgent string
	// Debug: enables per-attempt and per-call request/response logging when a
	// Logger is provided.
	Debug  bool
	Logger Logger

	// MetricsRegisterer: when set, transport metrics are registered on it.
	MetricsRegisterer prometheus.Registerer
}
