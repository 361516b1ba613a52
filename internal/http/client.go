package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/notion-client/internal/auth"
	"github.com/fivetwenty-io/notion-client/internal/constants"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// Request is one logical API call.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
	// Idempotent requests are retried when no response was received.
	// Creates and updates leave it false so an ambiguous failure is never replayed.
	Idempotent bool
}

// Response is the final response of a logical call.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Attempts   int
}

// Client performs logical API calls with retries, pacing and classification.
// It is safe for concurrent use; retry state lives in each call.
type Client struct {
	baseURL      string
	tokenManager auth.TokenManager
	httpClient   *http.Client
	logger       notion.Logger
	debug        bool
	userAgent    string
	policy       BackoffPolicy
	sleep        Sleeper
	limiter      *rate.Limiter
	interceptors *notion.InterceptorChain
	metrics      *notion.MetricsCollector
	now          func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger notion.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables per-attempt request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout sets the per-attempt timeout of the underlying http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithBackoffPolicy sets the retry schedule.
func WithBackoffPolicy(policy BackoffPolicy) Option {
	return func(c *Client) {
		c.policy = policy.withDefaults()
	}
}

// WithRetryConfig sets the attempt cap and the delay bounds, keeping the
// default multiplier.
func WithRetryConfig(maxAttempts int, baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.policy = BackoffPolicy{
			BaseDelay:   baseDelay,
			Multiplier:  constants.ExponentialBackoffBase,
			MaxDelay:    maxDelay,
			MaxAttempts: maxAttempts,
		}.withDefaults()
	}
}

// WithSleeper replaces the wait used between attempts.
func WithSleeper(sleep Sleeper) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithRateLimit paces attempts to rps requests per second. A non-positive rps
// disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil

			return
		}

		if burst <= 0 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithInterceptors runs chain once per logical call.
func WithInterceptors(chain *notion.InterceptorChain) Option {
	return func(c *Client) {
		if chain != nil {
			c.interceptors = chain
		}
	}
}

// WithMetrics records call and retry metrics on collector.
func WithMetrics(collector *notion.MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// NewClient creates a client for baseURL. A nil token manager sends requests
// without an Authorization header.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		httpClient:   httpClient,
		userAgent:    constants.DefaultUserAgent,
		policy:       DefaultBackoffPolicy(),
		sleep:        SleepContext,
		interceptors: notion.NewInterceptorChain(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.metrics != nil {
		client.interceptors.AddRequestInterceptor(notion.MetricsRequestInterceptor(client.metrics))
		client.interceptors.AddResponseInterceptor(notion.MetricsResponseInterceptor(client.metrics))
	}

	if client.limiter != nil {
		paced := *client.httpClient

		next := paced.Transport
		if next == nil {
			next = http.DefaultTransport
		}

		paced.Transport = &pacedTransport{next: next, limiter: client.limiter}
		client.httpClient = &paced
	}

	return client
}

// Do performs a logical call. Non-2xx outcomes are returned as a
// *notion.APIError together with the final response when one was received.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	headers, err := c.buildHeaders(ctx, req, body != nil)
	if err != nil {
		return nil, err
	}

	call := &notion.Request{
		CallID:     CallIDFromContext(ctx),
		Method:     req.Method,
		Path:       req.Path,
		Headers:    headers,
		Body:       body,
		Idempotent: req.Idempotent,
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, call)
	if err != nil {
		return nil, err
	}

	if call.Headers == nil {
		call.Headers = make(http.Header)
	}

	pinHeaders(call.Headers, body != nil)

	if bearer := headers.Get("Authorization"); bearer != "" {
		call.Headers.Set("Authorization", bearer)
	}

	resp, err := c.send(ctx, req, call)

	outcome := &notion.Response{Error: err}
	if resp != nil {
		outcome.StatusCode = resp.StatusCode
		outcome.Headers = resp.Headers
		outcome.Body = resp.Body
		outcome.Attempts = resp.Attempts
	}

	ierr := c.interceptors.ExecuteResponseInterceptors(ctx, call, outcome)
	if ierr != nil && err == nil {
		return resp, ierr
	}

	return resp, err
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query, Idempotent: true})
}

// Post performs a POST request that is not replayed on transport failures.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Patch performs a PATCH request that is not replayed on transport failures.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// FetchPage posts one page request of a listing. Listings are reads, so they
// are retried like any idempotent call.
func (c *Client) FetchPage(ctx context.Context, path string, body map[string]any) ([]byte, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, Idempotent: true})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// callState is the retry bookkeeping of one logical call.
type callState struct {
	attempts   int
	nextWait   time.Duration
	lastStatus int
}

func (c *Client) send(ctx context.Context, req *Request, call *notion.Request) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var rawBody interface{}
	if call.Body != nil {
		rawBody = call.Body
	}

	rreq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, rawBody)
	if err != nil {
		return nil, &notion.APIError{Kind: notion.KindValidation, Message: "building request", Err: err}
	}

	for key, values := range call.Headers {
		rreq.Header[key] = values
	}

	state := &callState{}
	rc := &retryablehttp.Client{
		HTTPClient:      c.httpClient,
		RetryWaitMin:    c.policy.BaseDelay,
		RetryWaitMax:    c.policy.MaxDelay,
		RetryMax:        c.policy.MaxAttempts - 1,
		CheckRetry:      c.checkRetry(req.Idempotent, state),
		Backoff:         c.backoff(ctx, req, state),
		ErrorHandler:    retryablehttp.PassthroughErrorHandler,
		RequestLogHook:  c.requestLogHook(ctx),
		ResponseLogHook: c.responseLogHook(ctx),
		PrepareRetry: func(r *http.Request) error {
			return c.sleep(r.Context(), state.nextWait)
		},
	}

	httpResp, err := rc.Do(rreq)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s canceled after %d attempt(s): %w", req.Method, req.Path, state.attempts, ctxErr)
		}

		return nil, &notion.APIError{
			Kind:     notion.KindTransport,
			Message:  fmt.Sprintf("%s %s: no response", req.Method, req.Path),
			Attempts: state.attempts,
			Err:      err,
		}
	}

	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &notion.APIError{
			Kind:       notion.KindTransport,
			StatusCode: httpResp.StatusCode,
			Message:    "reading response body",
			Attempts:   state.attempts,
			Err:        err,
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
		Attempts:   state.attempts,
	}

	if httpResp.StatusCode >= http.StatusOK && httpResp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}

	return resp, c.classify(resp)
}

// checkRetry retries 429 and 5xx responses, and missing responses of
// idempotent requests. Context cancellation stops immediately.
func (c *Client) checkRetry(idempotent bool, state *callState) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		state.attempts++

		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}

		if err != nil {
			state.lastStatus = 0

			return idempotent, nil
		}

		state.lastStatus = resp.StatusCode

		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError, nil
	}
}

// backoff records the wait for PrepareRetry and returns zero so that the
// injected sleeper, not retryablehttp's timer, does the waiting.
func (c *Client) backoff(ctx context.Context, req *Request, state *callState) retryablehttp.Backoff {
	return func(_, _ time.Duration, attemptNum int, resp *http.Response) time.Duration {
		wait := c.policy.Delay(attemptNum + 1)
		kind := notion.KindTransport

		if resp != nil {
			kind = notion.KindForStatus(resp.StatusCode)

			if resp.StatusCode == http.StatusTooManyRequests {
				if hint, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), c.now()); ok {
					wait = hint
				}
			}
		}

		state.nextWait = wait

		if c.metrics != nil {
			c.metrics.ObserveRetry(kind)
		}

		if c.logger != nil {
			c.logger.Warn("Retrying request", map[string]interface{}{
				"method":  req.Method,
				"path":    req.Path,
				"attempt": attemptNum + 1,
				"status":  state.lastStatus,
				"kind":    string(kind),
				"wait":    wait.String(),
				"call_id": CallIDFromContext(ctx),
			})
		}

		return 0
	}
}

func (c *Client) requestLogHook(ctx context.Context) retryablehttp.RequestLogHook {
	return func(_ retryablehttp.Logger, r *http.Request, retry int) {
		if !c.debug || c.logger == nil {
			return
		}

		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  r.Method,
			"url":     r.URL.String(),
			"attempt": retry + 1,
			"call_id": CallIDFromContext(ctx),
		})
	}
}

func (c *Client) responseLogHook(ctx context.Context) retryablehttp.ResponseLogHook {
	return func(_ retryablehttp.Logger, resp *http.Response) {
		if !c.debug || c.logger == nil {
			return
		}

		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":  resp.StatusCode,
			"url":     resp.Request.URL.String(),
			"call_id": CallIDFromContext(ctx),
		})
	}
}

func (c *Client) buildHeaders(ctx context.Context, req *Request, hasBody bool) (http.Header, error) {
	headers := make(http.Header)
	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", c.userAgent)

	for key, value := range req.Headers {
		headers.Set(key, value)
	}

	pinHeaders(headers, hasBody)

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, &notion.APIError{Kind: notion.KindAuthentication, Message: "no usable credential", Err: err}
		}

		headers.Set("Authorization", "Bearer "+token)
	}

	return headers, nil
}

func (c *Client) classify(resp *Response) error {
	apiErr := &notion.APIError{
		Kind:       notion.KindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Attempts:   resp.Attempts,
	}

	svcErr, err := notion.ParseServiceError(resp.Body)
	if err == nil && (svcErr.Code != "" || svcErr.Message != "") {
		apiErr.Code = svcErr.Code
		apiErr.Message = svcErr.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if hint, ok := ParseRetryAfter(resp.Headers.Get("Retry-After"), c.now()); ok {
			apiErr.RetryAfter = hint
		}
	}

	return apiErr
}

// pinHeaders sets the protocol headers callers may not override.
func pinHeaders(headers http.Header, hasBody bool) {
	headers.Set(constants.APIVersionHeader, constants.APIVersion)

	if hasBody {
		headers.Set("Content-Type", "application/json")
	} else {
		headers.Del("Content-Type")
	}
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, &notion.APIError{Kind: notion.KindValidation, Message: "request body cannot be encoded", Err: err}
	}

	return data, nil
}

// pacedTransport waits on the limiter before every attempt.
type pacedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	err := t.limiter.Wait(req.Context())
	if err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	return t.next.RoundTrip(req)
}

type callIDKey struct{}

// ContextWithCallID tags ctx with a correlation id that appears in transport logs.
func ContextWithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey{}, id)
}

// CallIDFromContext returns the correlation id of ctx, or "".
func CallIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)

	return id
}
