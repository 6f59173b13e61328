// Package binance implements the orderbook VenueClient for Binance spot,
// over REST and over the partial-depth WebSocket stream.
package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
)

// DepthResponse is both the REST /api/v3/depth body and the payload of a
// <symbol>@depth<N> partial book stream.
type DepthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"` // [[price, qty], ...]
	Asks         [][]string `json:"asks"` // [[price, qty], ...]
}

// Levels parses both sides.
func (d *DepthResponse) Levels() (bids, asks []domain.PriceLevel, err error) {
	if bids, err = parseLevels(d.Bids); err != nil {
		return nil, nil, fmt.Errorf("bids: %w", err)
	}
	if asks, err = parseLevels(d.Asks); err != nil {
		return nil, nil, fmt.Errorf("asks: %w", err)
	}
	return bids, asks, nil
}

// parseLevels converts [[price, qty], ...], skipping zero-quantity levels.
func parseLevels(raw [][]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, r := range raw {
		if len(r) < 2 {
			continue
		}
		lvl, err := domain.NewPriceLevel(r[0], r[1])
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

// APIError represents an error response from the Binance API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

// errorHandler parses Binance API error responses.
func errorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}

// Symbol maps BASE/QUOTE to Binance's concatenated form, e.g. BTCUSDT.
func Symbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// restLimit rounds depth up to a limit the depth endpoint accepts.
func restLimit(depth int) int {
	for _, l := range []int{5, 10, 20, 50, 100, 500, 1000, 5000} {
		if depth <= l {
			return l
		}
	}
	return 5000
}

// streamLevels rounds depth up to a partial-book stream size (5, 10 or 20).
func streamLevels(depth int) int {
	switch {
	case depth <= 5:
		return 5
	case depth <= 10:
		return 10
	default:
		return 20
	}
}

// DepthStream returns the partial book depth stream name, e.g.
// btcusdt@depth5@100ms.
func DepthStream(symbol string, depth, speedMs int) string {
	return strings.ToLower(symbol) + "@depth" + strconv.Itoa(streamLevels(depth)) + "@" + strconv.Itoa(speedMs) + "ms"
}
