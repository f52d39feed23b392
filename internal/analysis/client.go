package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/litescript/ls-transit/internal/logging"
	"github.com/litescript/ls-transit/internal/metrics"
	"github.com/litescript/ls-transit/internal/planet"
)

const (
	// DefaultEndpoint is the local development analysis service.
	DefaultEndpoint = "http://localhost:8000/analyze"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 60 * time.Second

	maxResponseBytes = 16 << 20
)

var (
	// ErrStatus wraps non-2xx responses.
	ErrStatus = errors.New("unexpected status")
	// ErrThrottled is returned when the local rate limit can't be met before
	// the context ends.
	ErrThrottled = errors.New("analysis rate limit")
)

// Request is the POST body.
type Request struct {
	Mappings []Mapping  `json:"arrayPosicion"`
	CSVData  [][]string `json:"csvData"`
}

// Metadata describes an analysis run.
type Metadata struct {
	TotalCandidates int       `json:"totalCandidates"`
	ProcessedAt     Timestamp `json:"processedAt"`
}

// timestampLayouts are tried in order. Offset-less forms are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is an ISO 8601 string from the endpoint. Raw is always kept;
// Time is zero when no known layout matches. Decoding never fails.
type Timestamp struct {
	Raw  string
	Time time.Time
}

// ParseTimestamp parses s with the first matching layout.
func ParseTimestamp(s string) Timestamp {
	ts := Timestamp{Raw: s}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			break
		}
	}
	return ts
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Not a string: keep the literal for display, unless it's null.
		*ts = Timestamp{}
		if string(data) != "null" {
			ts.Raw = string(data)
		}
		return nil
	}
	*ts = ParseTimestamp(s)
	return nil
}

// MarshalJSON writes Raw back unchanged.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Raw == "" && !ts.Time.IsZero() {
		return json.Marshal(ts.Time.Format(time.RFC3339Nano))
	}
	return json.Marshal(ts.Raw)
}

// IsZero reports whether the timestamp could not be parsed.
func (ts Timestamp) IsZero() bool {
	return ts.Time.IsZero()
}

// Response is the endpoint's reply.
type Response struct {
	Planets  []planet.Data `json:"planets"`
	Metadata *Metadata     `json:"metadata,omitempty"`
}

// Observer records call outcomes. The metrics collector implements it.
type Observer interface {
	AnalysisObserved(outcome string, d time.Duration)
}

// Client calls the analysis endpoint.
type Client struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	limiter  *rate.Limiter
	observer Observer
	log      *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint sets the endpoint URL.
func WithEndpoint(url string) ClientOption {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithRateLimit allows at most r requests per second with the given burst.
// A zero r disables limiting.
func WithRateLimit(r float64, burst int) ClientOption {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithObserver sets the outcome observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *logging.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates an analysis client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		timeout:  DefaultTimeout,
		limiter:  rate.NewLimiter(rate.Limit(1), 2),
		log:      logging.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// Result contains the outcome of one call.
type Result struct {
	Response    *Response
	RequestedAt time.Time
	Duration    time.Duration
	// Skipped counts returned planets dropped for invalid features.
	Skipped int
	Error   error
}

// Analyze posts CSV rows and mappings and returns the classified candidates.
func (c *Client) Analyze(ctx context.Context, req Request) Result {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{RequestedAt: time.Now(), Error: fmt.Errorf("encode request: %w", err)}
	}
	return c.do(ctx, http.MethodPost, body)
}

// AnalyzeCSV parses raw CSV, auto-maps its header unless mappings are given,
// and calls Analyze.
func (c *Client) AnalyzeCSV(ctx context.Context, r io.Reader, mappings []Mapping) Result {
	rows, err := ParseCSV(r)
	if err != nil {
		return Result{RequestedAt: time.Now(), Error: err}
	}
	if mappings == nil {
		mappings = AutoMap(rows[0])
	}
	if err := ValidateMappings(mappings, len(rows[0])); err != nil {
		return Result{RequestedAt: time.Now(), Error: err}
	}
	return c.Analyze(ctx, Request{Mappings: mappings, CSVData: rows})
}

// Fetch retrieves an already-computed planet list with GET.
func (c *Client) Fetch(ctx context.Context) Result {
	return c.do(ctx, http.MethodGet, nil)
}

func (c *Client) do(ctx context.Context, method string, body []byte) Result {
	start := time.Now()
	result := Result{RequestedAt: start}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			result.Error = fmt.Errorf("%w: %v", ErrThrottled, err)
			result.Duration = time.Since(start)
			c.observe(metrics.OutcomeThrottled, result.Duration)
			return result
		}
	}

	raw, outcome, err := c.roundTrip(ctx, method, body)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		c.observe(outcome, result.Duration)
		c.log.Warn("%s %s failed after %s: %v", method, c.endpoint, result.Duration, err)
		return result
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		result.Error = fmt.Errorf("decode response: %w", err)
		c.observe(metrics.OutcomeDecodeError, result.Duration)
		return result
	}
	result.Skipped = normalize(&resp)
	result.Response = &resp
	c.observe(metrics.OutcomeOK, result.Duration)
	c.log.Info("%s %s: %d planets (%d skipped) in %s", method, c.endpoint, len(resp.Planets), result.Skipped, result.Duration)
	return result
}

func (c *Client) roundTrip(ctx context.Context, method string, body []byte) ([]byte, string, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint, rd)
	if err != nil {
		return nil, metrics.OutcomeTransport, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, metrics.OutcomeTransport, fmt.Errorf("call analysis endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, metrics.OutcomeHTTPError, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, metrics.OutcomeTransport, fmt.Errorf("read response body: %w", err)
	}
	return raw, metrics.OutcomeOK, nil
}

func (c *Client) observe(outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.AnalysisObserved(outcome, d)
	}
}

// normalize gives every planet an ID and drops those with invalid features.
// It returns the number dropped. A nil planet list becomes empty.
func normalize(resp *Response) int {
	kept := make([]planet.Data, 0, len(resp.Planets))
	seen := make(map[string]bool, len(resp.Planets))
	for _, p := range resp.Planets {
		if err := p.Features.Validate(); err != nil {
			continue
		}
		if p.ID == "" || seen[p.ID] {
			p.ID = planet.NewID()
		}
		seen[p.ID] = true
		kept = append(kept, p)
	}
	skipped := len(resp.Planets) - len(kept)
	resp.Planets = kept
	return skipped
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}
