package binance

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-scanner/business/orderbook/app"
	"github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/wsconn"
)

const (
	BaseWSURL = "wss://stream.binance.com:9443"

	defaultSpeedMs      = 100
	defaultStaleTimeout = 5 * time.Second
)

var (
	_ app.VenueClient = (*StreamClient)(nil)
	_ app.Pinger      = (*StreamClient)(nil)
)

// StreamConfig holds configuration for the streaming Binance client.
type StreamConfig struct {
	REST         RESTConfig
	WebSocketURL string        // stream base URL (empty = default)
	Symbol       string        // BASE/QUOTE the stream is opened for
	Depth        int           // levels per side
	SpeedMs      int           // 100 or 1000
	StaleTimeout time.Duration // older stream data falls back to REST
}

// StreamClient serves the latest partial-depth frame from the WebSocket
// stream and falls back to REST when the stream is stale or down.
type StreamClient struct {
	rest   *RESTClient
	ws     *wsconn.Client
	symbol string
	depth  int
	stale  time.Duration
	logger logger.LoggerInterface

	mu     sync.RWMutex
	latest *domain.Snapshot
}

// NewStreamClient creates the client; call Connect to open the stream.
func NewStreamClient(cfg StreamConfig, log logger.LoggerInterface) (*StreamClient, error) {
	rest, err := NewRESTClient(cfg.REST, log)
	if err != nil {
		return nil, err
	}

	if cfg.WebSocketURL == "" {
		cfg.WebSocketURL = BaseWSURL
	}
	if cfg.Depth <= 0 {
		cfg.Depth = domain.DefaultDepth
	}
	if cfg.SpeedMs == 0 {
		cfg.SpeedMs = defaultSpeedMs
	}
	if cfg.StaleTimeout == 0 {
		cfg.StaleTimeout = defaultStaleTimeout
	}

	venueSymbol := cfg.REST.Symbol
	if venueSymbol == "" {
		venueSymbol = Symbol(cfg.Symbol)
	}
	url := strings.TrimSuffix(cfg.WebSocketURL, "/") + "/ws/" + DepthStream(venueSymbol, cfg.Depth, cfg.SpeedMs)

	ws, err := wsconn.New(wsconn.DefaultConfig(url, rest.ID()))
	if err != nil {
		return nil, err
	}

	s := &StreamClient{
		rest:   rest,
		ws:     ws,
		symbol: cfg.Symbol,
		depth:  cfg.Depth,
		stale:  cfg.StaleTimeout,
		logger: log,
	}
	ws.OnMessage(s.handleMessage)
	ws.OnStateChange(func(state wsconn.State, err error) {
		log.Info(context.Background(), "binance stream state", "venue", rest.ID(), "state", string(state), "error", err)
	})
	return s, nil
}

// Connect opens the stream. Until it succeeds FetchOrderBook uses REST.
func (s *StreamClient) Connect(ctx context.Context) error {
	return s.ws.Connect(ctx)
}

func (s *StreamClient) handleMessage(ctx context.Context, data []byte) {
	var event DepthResponse
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn(ctx, "undecodable depth frame", "venue", s.rest.ID(), "error", err)
		return
	}
	bids, asks, err := event.Levels()
	if err != nil {
		s.logger.Warn(ctx, "invalid depth frame", "venue", s.rest.ID(), "error", err)
		return
	}

	snap := domain.NewSnapshot(s.rest.ID(), s.symbol, bids, asks, s.depth, time.Now())

	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
}

// fresh returns the latest stream snapshot if it is recent enough.
func (s *StreamClient) fresh(now time.Time) *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil || s.latest.Age(now) > s.stale {
		return nil
	}
	return s.latest
}

func (s *StreamClient) ID() string { return s.rest.ID() }

// FetchOrderBook returns the stream's latest frame, or a REST snapshot when
// the stream is stale, down or opened for another symbol.
func (s *StreamClient) FetchOrderBook(ctx context.Context, symbol string, depth int) (*domain.Snapshot, error) {
	span := trace.SpanFromContext(ctx)

	if symbol == s.symbol && depth <= s.depth {
		if snap := s.fresh(time.Now()); snap != nil {
			span.SetAttributes(attribute.String("binance.source", "websocket"))
			return domain.NewSnapshot(snap.Venue, snap.Symbol, snap.Bids, snap.Asks, depth, snap.Timestamp), nil
		}
	}

	span.SetAttributes(attribute.String("binance.source", "http_fallback"))
	s.logger.Debug(ctx, "stream data stale, using REST", "venue", s.rest.ID(), "connected", s.ws.IsConnected())
	return s.rest.FetchOrderBook(ctx, symbol, depth)
}

func (s *StreamClient) FetchFeeRate(ctx context.Context) (decimal.Decimal, error) {
	return s.rest.FetchFeeRate(ctx)
}

func (s *StreamClient) Ping(ctx context.Context) error {
	return s.rest.Ping(ctx)
}

// Connected reports whether the stream is up.
func (s *StreamClient) Connected() bool {
	return s.ws.IsConnected()
}

func (s *StreamClient) Close() error {
	s.ws.Close()
	return s.rest.Close()
}
