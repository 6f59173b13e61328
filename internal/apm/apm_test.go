package apm

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

func TestParseProvider(t *testing.T) {
	tests := map[string]Provider{
		"zipkin":    ZipkinProvider,
		"CONSOLE":   ConsoleProvider,
		"otlp":      OTLPGRPCProvider,
		"otlp_http": OTLPHTTPProvider,
		"":          EmptyProvider,
		"jaeger":    EmptyProvider,
	}
	for in, want := range tests {
		if got := ParseProvider(in); got != want {
			t.Errorf("ParseProvider(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithHeaders(t *testing.T) {
	opts := &TracerOptions{}
	WithHeaders("x-team=abc, x-dataset = scans,broken")(opts)

	if opts.headers["x-team"] != "abc" || opts.headers["x-dataset"] != "scans" {
		t.Errorf("headers = %v", opts.headers)
	}
	if len(opts.headers) != 2 {
		t.Errorf("malformed pair should be skipped: %v", opts.headers)
	}
}

func TestNewTraceProvider_EmptyIsNoop(t *testing.T) {
	tp := NewTraceProvider(logger.NewDiscard(), WithProvider(EmptyProvider))
	if err := tp.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	_, span := NewTracer("test").StartSpanFromContext(context.Background(), "cycle")
	span.NoticeError(errors.New("boom"))
	span.NoticeError(nil)
	span.End()
}
