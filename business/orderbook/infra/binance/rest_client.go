package binance

import (
	"context"
	"fmt"
	"strconv"
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
	BaseAPIURL = "https://api.binance.com"

	depthEndpoint = "/api/v3/depth"
	pingEndpoint  = "/api/v3/ping"

	httpTimeout = 10 * time.Second
	tracerName  = "binance"
)

var (
	_ app.VenueClient = (*RESTClient)(nil)
	_ app.Pinger      = (*RESTClient)(nil)
)

// RESTConfig holds configuration for the Binance REST client.
type RESTConfig struct {
	ID      string          // registry id (empty = "binance")
	BaseURL string          // API base URL (empty = default)
	Symbol  string          // venue-native symbol override
	FeeRate decimal.Decimal // public taker fee
	Timeout time.Duration   // HTTP client timeout
}

// RESTClient polls /api/v3/depth.
type RESTClient struct {
	id      string
	symbol  string
	feeRate decimal.Decimal
	client  httpclient.Client
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewRESTClient creates a new Binance REST client.
func NewRESTClient(cfg RESTConfig, log logger.LoggerInterface) (*RESTClient, error) {
	if cfg.ID == "" {
		cfg.ID = "binance"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = httpTimeout
	}

	tracer := otel.Tracer(tracerName)

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

	return &RESTClient{
		id:      cfg.ID,
		symbol:  cfg.Symbol,
		feeRate: cfg.FeeRate,
		client:  client,
		logger:  log,
		tracer:  tracer,
	}, nil
}

func (c *RESTClient) ID() string { return c.id }

func (c *RESTClient) venueSymbol(symbol string) string {
	if c.symbol != "" {
		return c.symbol
	}
	return Symbol(symbol)
}

// GetDepth fetches the raw depth response.
func (c *RESTClient) GetDepth(ctx context.Context, symbol string, limit int) (*DepthResponse, error) {
	ctx, span := c.tracer.Start(ctx, "binance.http.get_depth",
		trace.WithAttributes(
			attribute.String("symbol", symbol),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	var result DepthResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(
			httpclient.NewLabel("endpoint", "depth"),
			httpclient.NewLabel("symbol", symbol),
		),
		httpclient.WithResponseErrorHandler(errorHandler),
	).
		SetQueryParam("symbol", symbol).
		SetQueryParam("limit", strconv.Itoa(restLimit(limit))).
		SetResult(&result).
		Get(ctx, depthEndpoint)

	if err != nil {
		span.RecordError(err)
		code := apperror.CodeOrderbookFetchFailed
		if _, ok := err.(*APIError); ok {
			code = apperror.CodeVenueAPIError
		}
		return nil, apperror.New(code,
			apperror.WithVenue(c.id),
			apperror.WithCause(err),
			apperror.WithContext("depth request"))
	}
	if resp.Result() == nil {
		return nil, apperror.New(apperror.CodeInvalidOrderbook,
			apperror.WithVenue(c.id),
			apperror.WithContext("undecodable depth body"))
	}

	span.SetAttributes(
		attribute.Int("bids", len(result.Bids)),
		attribute.Int("asks", len(result.Asks)),
		attribute.Int64("last_update_id", result.LastUpdateID),
	)

	return &result, nil
}

// FetchOrderBook returns the top depth levels for symbol.
func (c *RESTClient) FetchOrderBook(ctx context.Context, symbol string, depth int) (*domain.Snapshot, error) {
	raw, err := c.GetDepth(ctx, c.venueSymbol(symbol), depth)
	if err != nil {
		return nil, err
	}

	bids, asks, err := raw.Levels()
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidOrderbook, apperror.WithVenue(c.id), apperror.WithCause(err))
	}

	c.logger.Debug(ctx, "fetched depth via HTTP",
		"venue", c.id,
		"symbol", symbol,
		"bids", len(bids),
		"asks", len(asks))

	return domain.NewSnapshot(c.id, symbol, bids, asks, depth, time.Now()), nil
}

// FetchFeeRate returns the configured public taker fee; account fee
// endpoints need credentials.
func (c *RESTClient) FetchFeeRate(context.Context) (decimal.Decimal, error) {
	return c.feeRate, nil
}

// Ping probes /api/v3/ping.
func (c *RESTClient) Ping(ctx context.Context) error {
	_, err := c.client.NewRequestWithOptions(httpclient.WithResponseErrorHandler(errorHandler)).Get(ctx, pingEndpoint)
	return err
}

func (c *RESTClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
