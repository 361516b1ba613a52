package notion_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

var errInterceptor = errors.New("interceptor error")

type captureLogger struct {
	messages []string
	fields   []map[string]interface{}
}

func (l *captureLogger) log(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
	l.fields = append(l.fields, fields)
}

func (l *captureLogger) Debug(msg string, fields map[string]interface{}) { l.log(msg, fields) }
func (l *captureLogger) Info(msg string, fields map[string]interface{})  { l.log(msg, fields) }
func (l *captureLogger) Warn(msg string, fields map[string]interface{})  { l.log(msg, fields) }
func (l *captureLogger) Error(msg string, fields map[string]interface{}) { l.log(msg, fields) }

func TestInterceptorChain_Order(t *testing.T) {
	t.Parallel()

	chain := notion.NewInterceptorChain()
	ctx := context.Background()

	var order []string

	chain.AddRequestInterceptor(func(context.Context, *notion.Request) error {
		order = append(order, "first")

		return nil
	})
	chain.AddRequestInterceptor(func(context.Context, *notion.Request) error {
		order = append(order, "second")

		return nil
	})
	chain.AddResponseInterceptor(func(context.Context, *notion.Request, *notion.Response) error {
		order = append(order, "response")

		return nil
	})

	req := &notion.Request{Method: http.MethodGet, Path: "/v1/pages/p"}
	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &notion.Response{StatusCode: http.StatusOK}))

	assert.Equal(t, []string{"first", "second", "response"}, order)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	chain := notion.NewInterceptorChain()
	called := false

	chain.AddRequestInterceptor(func(context.Context, *notion.Request) error { return errInterceptor })
	chain.AddRequestInterceptor(func(context.Context, *notion.Request) error {
		called = true

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &notion.Request{})
	require.ErrorIs(t, err, errInterceptor)
	assert.False(t, called)
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	req := &notion.Request{}
	require.NoError(t, notion.HeaderInterceptor(map[string]string{"X-Trace": "abc"})(context.Background(), req))
	assert.Equal(t, "abc", req.Headers.Get("X-Trace"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &captureLogger{}
	req := &notion.Request{CallID: "call-1", Method: http.MethodPost, Path: "/v1/pages"}

	require.NoError(t, notion.LoggingInterceptor(logger)(context.Background(), req))
	require.NoError(t, notion.LoggingResponseInterceptor(logger)(context.Background(), req, &notion.Response{
		StatusCode: http.StatusNotFound,
		Attempts:   1,
		Error:      &notion.APIError{Kind: notion.KindNotFound},
	}))

	assert.Equal(t, []string{"API Request", "API Response Error"}, logger.messages)
	assert.Equal(t, string(notion.KindNotFound), logger.fields[1]["kind"])
	assert.Equal(t, "call-1", logger.fields[0]["call_id"])
	assert.Equal(t, false, logger.fields[0]["idempotent"])
}

func TestMetricsCollector(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()

	collector, err := notion.NewMetricsCollector(registry)
	require.NoError(t, err)

	again, err := notion.NewMetricsCollector(registry)
	require.NoError(t, err, "registering twice reuses the collectors")

	ctx := context.Background()
	req := &notion.Request{Method: http.MethodGet}

	require.NoError(t, notion.MetricsRequestInterceptor(collector)(ctx, req))
	assert.False(t, req.Started.IsZero())
	require.NoError(t, notion.MetricsResponseInterceptor(collector)(ctx, req, &notion.Response{StatusCode: http.StatusOK}))
	require.NoError(t, notion.MetricsResponseInterceptor(again)(ctx, req, &notion.Response{
		Error: &notion.APIError{Kind: notion.KindRateLimited},
	}))
	require.NoError(t, notion.MetricsResponseInterceptor(collector)(ctx, req, &notion.Response{Error: context.Canceled}))

	again.ObserveRetry(notion.KindServiceUnavailable)

	assert.InDelta(t, 1, testutil.ToFloat64(collector.Requests().WithLabelValues(http.MethodGet, "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(collector.Requests().WithLabelValues(http.MethodGet, string(notion.KindRateLimited))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(collector.Requests().WithLabelValues(http.MethodGet, "canceled")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(collector.Retries().WithLabelValues(string(notion.KindServiceUnavailable))), 0)
}
