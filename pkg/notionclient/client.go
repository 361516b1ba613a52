package notionclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/notion-client/internal/client"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// New creates a Notion API client from config.
func New(ctx context.Context, config *notion.Config) (notion.Client, error) {
	if config == nil {
		return nil, notion.ErrConfigRequired
	}

	cfg := *config
	cfg.BaseURL = normalizeBaseURL(cfg.BaseURL)

	c, err := client.New(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a client for the public API with default settings.
func NewWithToken(ctx context.Context, token string) (notion.Client, error) {
	return New(ctx, &notion.Config{Token: token})
}

// NewWithBaseURL creates a client for a specific API root, e.g. a proxy.
func NewWithBaseURL(ctx context.Context, baseURL, token string) (notion.Client, error) {
	return New(ctx, &notion.Config{BaseURL: baseURL, Token: token})
}

// normalizeBaseURL trims trailing slashes and defaults the scheme to https.
// An empty URL stays empty so the default host applies.
func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return ""
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}
