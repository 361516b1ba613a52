package constants

import "time"

// Service protocol constants.
const (
	// DefaultBaseURL is the public Notion API host.
	DefaultBaseURL = "https://api.notion.com"

	// APIVersion is the pinned Notion-Version header value. It is a protocol
	// constant and is not exposed through configuration.
	APIVersion = "2022-06-28"

	// APIVersionHeader carries APIVersion on every request.
	APIVersionHeader = "Notion-Version"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "notion-client-go/1.0"
)

// API paths.
const (
	PathSearch    = "/v1/search"
	PathPages     = "/v1/pages"
	PathDatabases = "/v1/databases"
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for a single HTTP attempt.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry and backoff defaults.
const (
	// DefaultMaxAttempts is the attempt cap, inclusive of the first try.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the first backoff delay.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// DefaultRetryMaxDelay caps a single computed backoff delay.
	DefaultRetryMaxDelay = 8 * time.Second

	// ExponentialBackoffBase is the backoff multiplier.
	ExponentialBackoffBase = 2
)

// Client-side request pacing. The service documents an average of three
// requests per second per integration.
const (
	DefaultRateLimit = 3.0
	DefaultRateBurst = 3
)

// Pagination limits.
const (
	// MaxPageSize is the largest page_size the service accepts.
	MaxPageSize = 100

	// DefaultPageSize is used when the caller does not choose one.
	DefaultPageSize = 100
)

// Property limits.
const (
	// MaxRichTextContentLength is the largest content string of one rich text item.
	MaxRichTextContentLength = 2000
)

// Cache defaults.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultCacheBucket is the NATS KV bucket and redis key prefix.
	DefaultCacheBucket = "notion_directory"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// JSONIndentSize is the number of spaces for JSON and YAML indentation.
	JSONIndentSize = 2

	// StringTruncationLength is the default length for truncating table cells.
	StringTruncationLength = 60

	// KeyValueSplitParts is the number of parts when splitting key=value strings.
	KeyValueSplitParts = 2
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
