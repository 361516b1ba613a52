package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request is a logical API call as seen by interceptors. Retries of the same
// call share one Request.
type Request struct {
	// CallID correlates the request with the façade call that issued it.
	CallID     string
	Method     string
	Path       string
	Headers    http.Header
	Body       []byte
	Idempotent bool
	// Started is set by MetricsRequestInterceptor.
	Started time.Time
}

// Response is the outcome of a logical API call after retries.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Attempts   int
	Error      error
}

// RequestInterceptor is called before a request is sent.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called after the final response is received.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain runs interceptors in registration order, once per logical
// call. The zero value is an empty chain.
type InterceptorChain struct {
	before []RequestInterceptor
	after  []ResponseInterceptor
}

// NewInterceptorChain returns an empty chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor appends an interceptor run before the first attempt.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.before = append(c.before, interceptor)
}

// AddResponseInterceptor appends an interceptor run after the last attempt.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.after = append(c.after, interceptor)
}

// ExecuteRequestInterceptors stops at the first failing interceptor; the
// call is then not sent.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	for i, intercept := range c.before {
		if err := intercept(ctx, req); err != nil {
			return fmt.Errorf("request interceptor %d on %s %s: %w", i, req.Method, req.Path, err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors stops at the first failing interceptor.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	for i, intercept := range c.after {
		if err := intercept(ctx, req, resp); err != nil {
			return fmt.Errorf("response interceptor %d on %s %s: %w", i, req.Method, req.Path, err)
		}
	}

	return nil
}

// LoggingInterceptor logs each call before it is sent.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("API Request", map[string]interface{}{
			"call_id":    req.CallID,
			"method":     req.Method,
			"path":       req.Path,
			"idempotent": req.Idempotent,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs the outcome of each call, failures at
// error level.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"call_id":     req.CallID,
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
			"attempts":    resp.Attempts,
		}

		if resp.Error != nil {
			fields["kind"] = string(KindOf(resp.Error))
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// HeaderInterceptor sets static headers on every call.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// MetricsCollector exports API call metrics to Prometheus.
type MetricsCollector struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsCollector creates a collector and registers it on reg.
func NewMetricsCollector(reg prometheus.Registerer) (*MetricsCollector, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notion",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Logical API calls by method and outcome kind.",
	}, []string{"method", "kind"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notion",
		Subsystem: "client",
		Name:      "retries_total",
		Help:      "Retried attempts by the kind of the failed attempt.",
	}, []string{"kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "notion",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Duration of logical API calls including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	var (
		m   MetricsCollector
		err error
	)

	if m.requests, err = register(reg, requests); err != nil {
		return nil, err
	}

	if m.retries, err = register(reg, retries); err != nil {
		return nil, err
	}

	if m.duration, err = register(reg, duration); err != nil {
		return nil, err
	}

	return &m, nil
}

// register returns the already registered collector when reg has an
// identical one, so several clients can share a registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	are := prometheus.AlreadyRegisteredError{}
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	var zero T

	return zero, fmt.Errorf("registering notion metrics: %w", err)
}

// ObserveRetry counts one retry caused by a failure of the given kind.
func (m *MetricsCollector) ObserveRetry(kind ErrorKind) {
	m.retries.WithLabelValues(string(kind)).Inc()
}

// Requests returns the request counter, mainly for tests.
func (m *MetricsCollector) Requests() *prometheus.CounterVec {
	return m.requests
}

// Retries returns the retry counter, mainly for tests.
func (m *MetricsCollector) Retries() *prometheus.CounterVec {
	return m.retries
}

// MetricsRequestInterceptor stamps the call start for the duration histogram.
func MetricsRequestInterceptor(_ *MetricsCollector) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		req.Started = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor counts the call by outcome kind ("ok" on success,
// "canceled" for context errors) and observes its duration.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		kind := "ok"
		if resp.Error != nil {
			kind = string(KindOf(resp.Error))
			if kind == "" {
				kind = "canceled"
			}
		}

		collector.requests.WithLabelValues(req.Method, kind).Inc()

		if !req.Started.IsZero() {
			collector.duration.WithLabelValues(req.Method).Observe(time.Since(req.Started).Seconds())
		}

		return nil
	}
}
