package constants

import "errors"

// Configuration errors.
var (
	ErrNoTokenConfigured = errors.New("no integration token configured, use 'notion login' or set NOTION_TOKEN")
	ErrEmptyToken        = errors.New("integration token must not be empty")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
)

// Argument errors.
var (
	ErrInvalidPropertyAssignment = errors.New("invalid property assignment, expected NAME=VALUE")
	ErrUnknownProperty           = errors.New("property not found in database schema")
	ErrInvalidSortSpec           = errors.New("invalid sort, expected PROPERTY[:asc|:desc]")
	ErrInvalidNumber             = errors.New("invalid number value")
	ErrInvalidBoolean            = errors.New("invalid checkbox value, expected true or false")
	ErrInvalidDateRange          = errors.New("invalid date range, expected START..END with at least one bound")
	ErrNoPropertiesGiven         = errors.New("at least one --set NAME=VALUE is required")
	ErrNoTitleProperty           = errors.New("database has no title property")
)

// Cache errors.
var (
	ErrCacheEndpointRequired = errors.New("cache endpoint is required for this cache type")
)
