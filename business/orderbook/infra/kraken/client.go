// Package kraken implements the orderbook VenueClient for Kraken spot
// over the public REST API.
package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-scanner/business/orderbook/app"
	"github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/httpclient"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

const (
	BaseAPIURL = "https://api.kraken.com"

	depthEndpoint = "/0/public/Depth"
	timeEndpoint  = "/0/public/Time"

	httpTimeout = 10 * time.Second
)

var (
	_ app.VenueClient = (*Client)(nil)
	_ app.Pinger      = (*Client)(nil)
)

// Config holds configuration for the Kraken client.
type Config struct {
	ID      string          // registry id (empty = "kraken")
	BaseURL string          // API base URL (empty = default)
	Symbol  string          // venue-native pair override, e.g. XBTUSDT
	FeeRate decimal.Decimal // public taker fee
	Timeout time.Duration
}

// Client polls /0/public/Depth.
type Client struct {
	id      string
	symbol  string
	feeRate decimal.Decimal
	client  httpclient.Client
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClient creates a new Kraken client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.ID == "" {
		cfg.ID = "kraken"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = httpTimeout
	}

	tracer := otel.Tracer("kraken")

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName(cfg.ID),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTracer(tracer, false),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		id:      cfg.ID,
		symbol:  cfg.Symbol,
		feeRate: cfg.FeeRate,
		client:  client,
		logger:  log,
		tracer:  tracer,
	}, nil
}

// Pair maps BASE/QUOTE to Kraken's pair name. Kraken lists bitcoin as XBT.
func Pair(symbol string) string {
	base, quote, ok := strings.Cut(strings.ToUpper(symbol), "/")
	if !ok {
		return strings.ToUpper(symbol)
	}
	if base == "BTC" {
		base = "XBT"
	}
	return base + quote
}

// envelope is Kraken's {"error": [...], "result": {...}} wrapper.
type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// book is one pair's depth: entries are [price, volume, timestamp].
type book struct {
	Asks [][]json.RawMessage `json:"asks"`
	Bids [][]json.RawMessage `json:"bids"`
}

func (c *Client) ID() string { return c.id }

// call performs a GET and unwraps the envelope.
func (c *Client) call(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	var env envelope
	req := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", path)),
		httpclient.WithResponseErrorHandler(func(status int, body []byte) error {
			if status >= 400 {
				return fmt.Errorf("HTTP %d: %s", status, string(body))
			}
			return nil
		}),
	).SetResult(&env)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(ctx, path)
	if err != nil {
		return nil, apperror.New(apperror.CodeOrderbookFetchFailed,
			apperror.WithVenue(c.id), apperror.WithCause(err), apperror.WithContext(path))
	}
	if resp.Result() == nil {
		return nil, apperror.New(apperror.CodeInvalidOrderbook,
			apperror.WithVenue(c.id), apperror.WithContext("undecodable body from "+path))
	}
	if len(env.Error) > 0 {
		return nil, apperror.New(apperror.CodeVenueAPIError,
			apperror.WithVenue(c.id), apperror.WithContext(strings.Join(env.Error, "; ")))
	}
	return env.Result, nil
}

// FetchOrderBook returns the top depth levels for symbol.
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, depth int) (*domain.Snapshot, error) {
	pair := c.symbol
	if pair == "" {
		pair = Pair(symbol)
	}

	ctx, span := c.tracer.Start(ctx, "kraken.http.get_depth",
		trace.WithAttributes(attribute.String("pair", pair), attribute.Int("count", depth)))
	defer span.End()

	raw, err := c.call(ctx, depthEndpoint, map[string]string{
		"pair":  pair,
		"count": strconv.Itoa(depth),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Result is keyed by Kraken's canonical pair name, which may differ from
	// the requested alias; one pair was requested, so take the only entry.
	var books map[string]book
	if err := json.Unmarshal(raw, &books); err != nil || len(books) != 1 {
		return nil, apperror.New(apperror.CodeInvalidOrderbook,
			apperror.WithVenue(c.id), apperror.WithContext("unexpected depth result shape"), apperror.WithCause(err))
	}

	var b book
	for _, v := range books {
		b = v
	}

	bids, err := parseLevels(b.Bids)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidOrderbook, apperror.WithVenue(c.id), apperror.WithCause(err))
	}
	asks, err := parseLevels(b.Asks)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidOrderbook, apperror.WithVenue(c.id), apperror.WithCause(err))
	}

	span.SetAttributes(attribute.Int("bids", len(bids)), attribute.Int("asks", len(asks)))
	c.logger.Debug(ctx, "fetched depth", "venue", c.id, "pair", pair, "bids", len(bids), "asks", len(asks))

	return domain.NewSnapshot(c.id, symbol, bids, asks, depth, time.Now()), nil
}

// parseLevels reads [price, volume, timestamp] entries, skipping zero volume.
func parseLevels(raw [][]json.RawMessage) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			continue
		}
		var price, volume string
		if err := json.Unmarshal(entry[0], &price); err != nil {
			return nil, fmt.Errorf("price: %w", err)
		}
		if err := json.Unmarshal(entry[1], &volume); err != nil {
			return nil, fmt.Errorf("volume: %w", err)
		}
		lvl, err := domain.NewPriceLevel(price, volume)
		if err != nil {
			return nil, err
		}
		if lvl.Quantity.IsZero() {
			continue
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

// FetchFeeRate returns the configured public taker fee; the account fee
// endpoint needs credentials.
func (c *Client) FetchFeeRate(context.Context) (decimal.Decimal, error) {
	return c.feeRate, nil
}

// Ping probes /0/public/Time.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, timeEndpoint, nil)
	return err
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
