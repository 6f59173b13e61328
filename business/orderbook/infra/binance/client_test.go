package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

var restDepth = DepthResponse{
	LastUpdateID: 12345,
	Bids:         [][]string{{"64000.10", "0.5"}, {"63999.00", "0"}, {"63998.50", "1.2"}},
	Asks:         [][]string{{"64001.00", "0.8"}, {"64002.50", "2.0"}},
}

func newDepthServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pingEndpoint:
			w.Write([]byte(`{}`))
		case depthEndpoint:
			if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
				t.Errorf("symbol = %s, want BTCUSDT", got)
			}
			if got := r.URL.Query().Get("limit"); got != "5" {
				t.Errorf("limit = %s, want 5", got)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(restDepth)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRESTClient_FetchOrderBook(t *testing.T) {
	server := newDepthServer(t)
	defer server.Close()

	client, err := NewRESTClient(RESTConfig{BaseURL: server.URL, FeeRate: decimal.RequireFromString("0.001")}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewRESTClient: %v", err)
	}
	defer client.Close()

	snap, err := client.FetchOrderBook(context.Background(), "BTC/USDT", 5)
	if err != nil {
		t.Fatalf("FetchOrderBook: %v", err)
	}

	if snap.Venue != "binance" || snap.Symbol != "BTC/USDT" {
		t.Errorf("snapshot header = %s/%s", snap.Venue, snap.Symbol)
	}
	if len(snap.Bids) != 2 {
		t.Errorf("len(Bids) = %d, zero-quantity level should be skipped", len(snap.Bids))
	}
	if best, _ := snap.BestAsk(); !best.Price.Equal(decimal.RequireFromString("64001")) {
		t.Errorf("best ask = %s", best.Price)
	}

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	fee, _ := client.FetchFeeRate(context.Background())
	if !fee.Equal(decimal.RequireFromString("0.001")) {
		t.Errorf("fee = %s", fee)
	}
}

func TestRESTClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"code":-1003,"msg":"Too much request weight used"}`))
	}))
	defer server.Close()

	client, err := NewRESTClient(RESTConfig{BaseURL: server.URL}, &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.FetchOrderBook(context.Background(), "BTC/USDT", 5)
	if !apperror.HasCode(err, apperror.CodeVenueAPIError) {
		t.Fatalf("err = %v, want VENUE_API_ERROR", err)
	}
	if !strings.Contains(err.Error(), "-1003") {
		t.Errorf("error should carry the Binance code: %v", err)
	}
}

func TestHelpers(t *testing.T) {
	if got := Symbol("btc/usdt"); got != "BTCUSDT" {
		t.Errorf("Symbol = %s", got)
	}
	if got := DepthStream("BTCUSDT", 5, 100); got != "btcusdt@depth5@100ms" {
		t.Errorf("DepthStream = %s", got)
	}
	if got := DepthStream("ETHUSDT", 12, 1000); got != "ethusdt@depth20@1000ms" {
		t.Errorf("DepthStream = %s", got)
	}
	for depth, want := range map[int]int{1: 5, 5: 5, 6: 10, 30: 50, 9999: 5000} {
		if got := restLimit(depth); got != want {
			t.Errorf("restLimit(%d) = %d, want %d", depth, got, want)
		}
	}
}

func TestStreamClient_ServesStreamThenFallsBack(t *testing.T) {
	rest := newDepthServer(t)
	defer rest.Close()

	frame, _ := json.Marshal(DepthResponse{
		LastUpdateID: 99,
		Bids:         [][]string{{"70000.00", "1"}},
		Asks:         [][]string{{"70001.00", "1"}},
	})
	ws := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/btcusdt@depth5@100ms" {
			t.Errorf("stream path = %s", r.URL.Path)
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		conn.Write(r.Context(), websocket.MessageText, frame)
		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				return
			}
		}
	}))
	defer ws.Close()

	client, err := NewStreamClient(StreamConfig{
		REST:         RESTConfig{BaseURL: rest.URL},
		WebSocketURL: "ws" + strings.TrimPrefix(ws.URL, "http"),
		Symbol:       "BTC/USDT",
		Depth:        5,
		StaleTimeout: 300 * time.Millisecond,
	}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	defer client.Close()

	// Not connected yet: REST.
	snap, err := client.FetchOrderBook(context.Background(), "BTC/USDT", 5)
	if err != nil {
		t.Fatal(err)
	}
	if best, _ := snap.BestBid(); !best.Price.Equal(decimal.RequireFromString("64000.10")) {
		t.Errorf("pre-connect best bid = %s, want REST data", best.Price)
	}

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for client.fresh(time.Now()) == nil {
		if time.Now().After(deadline) {
			t.Fatal("no stream frame received")
		}
		time.Sleep(10 * time.Millisecond)
	}

	snap, err = client.FetchOrderBook(context.Background(), "BTC/USDT", 5)
	if err != nil {
		t.Fatal(err)
	}
	if best, _ := snap.BestBid(); !best.Price.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("stream best bid = %s, want 70000", best.Price)
	}

	time.Sleep(400 * time.Millisecond)
	snap, err = client.FetchOrderBook(context.Background(), "BTC/USDT", 5)
	if err != nil {
		t.Fatal(err)
	}
	if best, _ := snap.BestBid(); !best.Price.Equal(decimal.RequireFromString("64000.10")) {
		t.Errorf("stale stream should fall back to REST, best bid = %s", best.Price)
	}
}
