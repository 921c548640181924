package spot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func zones(t *testing.T) (*time.Location, *time.Location) {
	t.Helper()
	hel, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	sto, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return hel, sto
}

func TestFetchPrices(t *testing.T) {
	hel, _ := zones(t)

	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		fmt.Fprint(w, `[
			{"DateTime": "2024-05-10T02:00:00+03:00", "Price": 4.2},
			{"DateTime": "2024-05-10T01:00:00+03:00", "Price": 3.1}
		]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, hel, ClientConfig{})
	now := time.Date(2024, 5, 10, 13, 50, 0, 0, hel)

	series, err := c.FetchPrices(context.Background(), now)
	if err != nil {
		t.Fatalf("FetchPrices failed: %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	if !series.IsSorted() {
		t.Error("series not sorted ascending")
	}
	if series[0].Price != 3.1 {
		t.Errorf("expected earliest price 3.1, got %f", series[0].Price)
	}

	q := gotQuery.Load().(url.Values)
	if got := q.Get("start"); got != "2024-05-08T21:00:00Z" {
		t.Errorf("unexpected start: %s", got)
	}
	if got := q.Get("end"); got != "2024-05-11T20:00:00Z" {
		t.Errorf("unexpected end: %s", got)
	}
	if got := q.Get("timeFormat"); got != "Europe/Helsinki" {
		t.Errorf("unexpected timeFormat: %s", got)
	}
}

func TestFetchPricesValidation(t *testing.T) {
	hel, _ := zones(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing price", `[{"DateTime": "2024-05-10T01:00:00+03:00"}]`},
		{"missing timestamp", `[{"Price": 1.0}]`},
		{"unparseable timestamp", `[{"DateTime": "tomorrow-ish", "Price": 1.0}]`},
		{"non-numeric price", `[{"DateTime": "2024-05-10T01:00:00+03:00", "Price": "cheap"}]`},
		{"not an array", `{"DateTime": "2024-05-10T01:00:00+03:00", "Price": 1.0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, 5*time.Second, hel, ClientConfig{})
			if _, err := c.FetchPrices(context.Background(), time.Now()); err == nil {
				t.Error("non-conforming response accepted")
			}
		})
	}
}

func TestFetchPricesRetriesServerErrors(t *testing.T) {
	hel, _ := zones(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[{"DateTime": "2024-05-10T01:00:00+03:00", "Price": 1.0}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, hel, ClientConfig{MaxRetries: 3, RetryDelayBase: time.Millisecond})
	series, err := c.FetchPrices(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if len(series) != 1 {
		t.Errorf("expected 1 point, got %d", len(series))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetchPricesGivesUpAfterMaxRetries(t *testing.T) {
	hel, _ := zones(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// One backoff between the two attempts and none after the last one, so
	// the hard failure surfaces well before a second delay would elapse.
	c := NewClient(srv.URL, 5*time.Second, hel, ClientConfig{MaxRetries: 2, RetryDelayBase: 300 * time.Millisecond})
	started := time.Now()
	if _, err := c.FetchPrices(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if elapsed := time.Since(started); elapsed > 700*time.Millisecond {
		t.Errorf("failure took %v, backoff ran after the final attempt", elapsed)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestMockFetcherReleaseGating(t *testing.T) {
	hel, sto := zones(t)
	m := &MockFetcher{Zone: hel, PriceZone: sto, ReleaseHour: 14, ReleaseMinute: 0}

	before, err := m.FetchPrices(context.Background(), time.Date(2024, 5, 10, 13, 0, 0, 0, hel))
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 48 {
		t.Errorf("before release: expected 48 points, got %d", len(before))
	}

	after, err := m.FetchPrices(context.Background(), time.Date(2024, 5, 10, 14, 30, 0, 0, hel))
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 72 {
		t.Errorf("after release: expected 72 points, got %d", len(after))
	}

	m.HoldTomorrow = true
	held, err := m.FetchPrices(context.Background(), time.Date(2024, 5, 10, 14, 30, 0, 0, hel))
	if err != nil {
		t.Fatal(err)
	}
	if len(held) != 48 {
		t.Errorf("held release: expected 48 points, got %d", len(held))
	}
}
