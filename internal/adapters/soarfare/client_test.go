package soarfare_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"soarfare/internal/adapters/soarfare"
	"soarfare/internal/domain"
)

func TestClient_FAQs_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(503)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    []map[string]any{{"id": 1.0, "question": "Q?", "answer": "A."}},
			})
		}
	}))
	defer ts.Close()

	cl, err := soarfare.New(ts.URL, 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := cl.FAQs(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0]["question"] != "Q?" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Testimonials_NestedList(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"testimonials":[{"name":"Ana"}]}}`)
	}))
	defer ts.Close()

	cl, _ := soarfare.New(ts.URL, 100)
	got, err := cl.Testimonials(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0]["name"] != "Ana" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClient_UserPoints_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, err := soarfare.New(ts.URL, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = cl.UserPoints(ctx, "tok")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClient_PurchasePoints_FormAndBearer(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization header: %q", got)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type: %q", ct)
		}
		_ = r.ParseForm()
		if r.PostForm.Get("points") != "50" {
			t.Errorf("points form value: %q", r.PostForm.Get("points"))
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"transaction_id":"tx-9","points":650}}`)
	}))
	defer ts.Close()

	cl, _ := soarfare.New(ts.URL, 100)
	got, err := cl.PurchasePoints(context.Background(), "tok-1", 50)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["transaction_id"] != "tx-9" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if hits != 1 {
		t.Fatalf("expected a single attempt, got %d", hits)
	}
}

func TestClient_PurchasePoints_NoRetryOnFailure(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	cl, _ := soarfare.New(ts.URL, 100)
	_, err := cl.PurchasePoints(context.Background(), "tok", 10)
	var apiErr *soarfare.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected APIError 503, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("mutating call must not retry, got %d hits", hits)
	}
}

func TestClient_EnvelopeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"Flight not available"}`)
	}))
	defer ts.Close()

	cl, _ := soarfare.New(ts.URL, 100)
	_, err := cl.FareSourceCode(context.Background(), "tok", "f-1")
	var apiErr *soarfare.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Flight not available" {
		t.Fatalf("expected envelope failure, got %v", err)
	}
}

func TestClient_Forward_RelaysVerbatim(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"success":false,"message":"bad"}`)
	}))
	defer ts.Close()

	cl, _ := soarfare.New(ts.URL, 100)
	reply, err := cl.Forward(context.Background(), soarfare.Call{
		Method: http.MethodPost,
		Path:   soarfare.EndpointLogin,
		Form:   url.Values{"email": {"a@b.c"}},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if reply.Status != http.StatusUnprocessableEntity || string(reply.Body) != `{"success":false,"message":"bad"}` {
		t.Fatalf("unexpected reply: %d %s", reply.Status, reply.Body)
	}
}

func TestClient_Bookings_Datatable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start") != "20" || q.Get("length") != "10" || q.Get("search") != "NYC" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"recordsTotal":31,"data":[{"id":1}]}`)
	}))
	defer ts.Close()

	cl, _ := soarfare.New(ts.URL, 100)
	out, err := cl.Bookings(context.Background(), "tok", domain.ListQuery{Start: 20, Length: 10, Search: "NYC"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out["recordsTotal"].(float64) != 31 {
		t.Fatalf("unexpected body: %+v", out)
	}
}

func TestMockFlightSearch(t *testing.T) {
	reply := soarfare.MockFlightSearch(url.Values{"from": {"jfk"}, "to": {"lax"}, "travel_date": {"2030-01-02"}})
	if reply.Status != http.StatusOK {
		t.Fatalf("status %d", reply.Status)
	}
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Flights []map[string]any `json:"flights"`
		} `json:"data"`
	}
	if err := json.Unmarshal(reply.Body, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Data.Flights) != 3 {
		t.Fatalf("unexpected mock: %+v", body)
	}
	origin := body.Data.Flights[0]["origin"].(map[string]any)
	if origin["code"] != "JFK" {
		t.Fatalf("unexpected origin: %+v", origin)
	}
}
