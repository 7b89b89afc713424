// internal/adapters/soarfare/client.go
package soarfare

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"soarfare/internal/adapters/observability"
	"soarfare/internal/domain"
)

const (
	EndpointLogin          = "/login"
	EndpointRegister       = "/register"
	EndpointProfile        = "/user/profile"
	EndpointFAQs           = "/faqs"
	EndpointTestimonials   = "/testimonials"
	EndpointFlightSearch   = "/flight-search"
	EndpointUserPoints     = "/user/points"
	EndpointPurchasePoints = "/points/purchase"
	EndpointFareSourceCode = "/flights/fare-source-code"
	EndpointBookings       = "/my-bookings"
	EndpointInvoices       = "/my-invoices"
)

const maxBody = 4 << 20

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if rps <= 0 {
		rps = 20
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Call describes one request to the backend. At most one of Form and JSON is used.
type Call struct {
	Method string
	Path   string
	Token  string
	Query  url.Values
	Form   url.Values
	JSON   any
}

// Reply is the backend response, untouched.
type Reply = domain.Relay

var _ domain.Backend = (*Client)(nil)

// APIError is a backend failure: a non-2xx status or an envelope with success=false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("soarfare: status %d", e.Status)
	}
	return fmt.Sprintf("soarfare: status %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// ---- Pass-through ----

// Forward performs a single attempt and relays whatever the backend answered.
// Only transport failures are returned as errors.
func (c *Client) Forward(ctx context.Context, call Call) (Reply, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return Reply{}, err
	}
	req, err := c.newRequest(ctx, call)
	if err != nil {
		return Reply{}, err
	}
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("soarfare", call.Path, 0, time.Since(start))
		return Reply{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	observability.ObserveExternal("soarfare", call.Path, resp.StatusCode, time.Since(start))
	if err != nil {
		return Reply{}, err
	}
	return Reply{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Header: resp.Header, Body: body}, nil
}

// ---- Typed API ----

func (c *Client) FAQs(ctx context.Context) ([]map[string]any, error) {
	data, err := c.getData(ctx, Call{Method: http.MethodGet, Path: EndpointFAQs})
	if err != nil {
		return nil, err
	}
	return listFrom(data, "faqs")
}

func (c *Client) Testimonials(ctx context.Context) ([]map[string]any, error) {
	data, err := c.getData(ctx, Call{Method: http.MethodGet, Path: EndpointTestimonials})
	if err != nil {
		return nil, err
	}
	return listFrom(data, "testimonials")
}

func (c *Client) Profile(ctx context.Context, token string) (map[string]any, error) {
	data, err := c.getData(ctx, Call{Method: http.MethodGet, Path: EndpointProfile, Token: token})
	if err != nil {
		return nil, err
	}
	return objectFrom(data)
}

func (c *Client) UserPoints(ctx context.Context, token string) (map[string]any, error) {
	data, err := c.getData(ctx, Call{Method: http.MethodGet, Path: EndpointUserPoints, Token: token})
	if err != nil {
		return nil, err
	}
	return objectFrom(data)
}

func (c *Client) PurchasePoints(ctx context.Context, token string, amount int64) (map[string]any, error) {
	form := url.Values{"points": {strconv.FormatInt(amount, 10)}}
	data, err := c.sendData(ctx, Call{Method: http.MethodPost, Path: EndpointPurchasePoints, Token: token, Form: form})
	if err != nil {
		return nil, err
	}
	return objectFrom(data)
}

func (c *Client) FareSourceCode(ctx context.Context, token, flightID string) (map[string]any, error) {
	form := url.Values{"flight_id": {flightID}}
	data, err := c.sendData(ctx, Call{Method: http.MethodPost, Path: EndpointFareSourceCode, Token: token, Form: form})
	if err != nil {
		return nil, err
	}
	return objectFrom(data)
}

// SearchFlights forwards a validated search form once; the reply is relayed as-is.
func (c *Client) SearchFlights(ctx context.Context, token string, form url.Values) (Reply, error) {
	return c.Forward(ctx, Call{Method: http.MethodPost, Path: EndpointFlightSearch, Token: token, Form: form})
}

func (c *Client) Bookings(ctx context.Context, token string, q domain.ListQuery) (map[string]any, error) {
	return c.datatable(ctx, EndpointBookings, token, q)
}

func (c *Client) Invoices(ctx context.Context, token string, q domain.ListQuery) (map[string]any, error) {
	return c.datatable(ctx, EndpointInvoices, token, q)
}

// datatable returns the whole decoded body: these endpoints answer in the
// DataTables shape (recordsTotal, data) with or without an envelope.
func (c *Client) datatable(ctx context.Context, path, token string, q domain.ListQuery) (map[string]any, error) {
	query := url.Values{
		"start":  {strconv.Itoa(q.Start)},
		"length": {strconv.Itoa(q.Length)},
		"search": {q.Search},
	}
	var out map[string]any
	reply, err := c.Forward(ctx, Call{Method: http.MethodGet, Path: path, Token: token, Query: query})
	if err != nil {
		return nil, err
	}
	if err := statusErr(reply); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(reply.Body, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if ok, present := out["success"].(bool); present && !ok {
		msg, _ := out["message"].(string)
		return nil, &APIError{Status: reply.Status, Message: msg}
	}
	return out, nil
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("soarfare: %w", domain.ErrNotFound)
	ErrUnauthorized = fmt.Errorf("soarfare: %w", domain.ErrUnauthorized)
	ErrForbidden    = fmt.Errorf("soarfare: %w", domain.ErrForbidden)
)

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	u := c.base + call.Path
	if len(call.Query) > 0 {
		u += "?" + call.Query.Encode()
	}
	var body io.Reader
	contentType := ""
	switch {
	case call.Form != nil:
		body = strings.NewReader(call.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case call.JSON != nil:
		b, err := json.Marshal(call.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "soarfare-web/1.0")
	return req, nil
}

// sendData is a single-attempt call returning the envelope's data.
func (c *Client) sendData(ctx context.Context, call Call) (json.RawMessage, error) {
	reply, err := c.Forward(ctx, call)
	if err != nil {
		return nil, err
	}
	return unwrap(reply)
}

// getData performs an idempotent GET with retries and returns the envelope's data.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) getData(ctx context.Context, call Call) (json.RawMessage, error) {
	var lastErr error
	for i := 0; i < 4; i++ {
		reply, err := c.Forward(ctx, call)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}

		switch reply.Status {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			lastErr = &APIError{Status: reply.Status, Message: messageOf(reply.Body)}
			wait := retryAfter(reply.Header)
			if wait == 0 {
				wait = backoff(i)
			}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		default:
			return unwrap(reply)
		}
	}
	return nil, lastErr
}

func statusErr(reply Reply) error {
	switch {
	case reply.OK():
		return nil
	case reply.Status == http.StatusNotFound:
		return ErrNotFound
	case reply.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case reply.Status == http.StatusForbidden:
		return ErrForbidden
	default:
		return &APIError{Status: reply.Status, Message: messageOf(reply.Body)}
	}
}

func unwrap(reply Reply) (json.RawMessage, error) {
	if err := statusErr(reply); err != nil {
		return nil, err
	}
	if reply.Status == http.StatusNoContent || len(bytes.TrimSpace(reply.Body)) == 0 {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(reply.Body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{Status: reply.Status, Message: env.Message}
	}
	return env.Data, nil
}

// messageOf extracts "message" from a JSON error body, else a trimmed prefix of the body.
func messageOf(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

// listFrom accepts either a bare array or an object holding the array under key (or "data").
func listFrom(data json.RawMessage, key string) ([]map[string]any, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var list []map[string]any
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	for _, k := range []string{key, "data", "items"} {
		if raw, ok := obj[k]; ok {
			return listFrom(raw, key)
		}
	}
	return nil, errors.New("decode " + key + ": no list in payload")
}

func objectFrom(data json.RawMessage) (map[string]any, error) {
	out := map[string]any{}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return out, nil
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (100ms, 200ms, 400ms...) with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
