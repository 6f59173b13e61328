package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestClient_GetDecodesResultAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/depth" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %q", got)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("header X-Test = %q", got)
		}
		w.Write([]byte(`{"lastUpdateId": 42}`))
	}))
	defer server.Close()

	client, err := NewInstrumentedClient(
		WithBaseURL(server.URL),
		WithProviderName("test"),
		WithHeaders(map[string]string{"X-Test": "1"}),
	)
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}

	var out struct {
		LastUpdateID int64 `json:"lastUpdateId"`
	}
	resp, err := client.NewRequest().
		SetQueryParam("symbol", "BTCUSDT").
		SetResult(&out).
		Get(context.Background(), "/api/v3/depth")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Result() == nil || out.LastUpdateID != 42 {
		t.Errorf("result not decoded: %+v", out)
	}
}

func TestClient_ErrorHandlerRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"code":-1003,"msg":"Too many requests"}`))
	}))
	defer server.Close()

	client, err := NewInstrumentedClient(WithBaseURL(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	sentinel := errors.New("rate limited")
	_, err = client.NewRequestWithOptions(
		WithResponseErrorHandler(func(status int, body []byte) error {
			if status == http.StatusTooManyRequests {
				return sentinel
			}
			return nil
		}),
	).Get(context.Background(), "/")
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want sentinel", err)
	}
}

func TestClient_RespectsContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, err := NewInstrumentedClient(WithBaseURL(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.NewRequest().Get(ctx, "/slow"); err == nil {
		t.Fatal("expected deadline error")
	}
}

func TestClient_RecordsRequestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	reader := sdkmetric.NewManualReader()
	client, err := NewInstrumentedClient(
		WithBaseURL(server.URL),
		WithProviderName("kraken"),
		WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))),
	)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := client.NewRequest().Get(context.Background(), "/0/public/Time"); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != metricRequestCounter {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s data = %T", m.Name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 2 {
		t.Errorf("%s = %d, want 2", metricRequestCounter, total)
	}
}
