package monolith

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/arbitrage-scanner/internal/config"
	"github.com/fd1az/arbitrage-scanner/internal/di"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type recordingModule struct {
	name  string
	order *[]string
}

func (m recordingModule) RegisterServices(c di.Container) error {
	c.Register(m.name, true)
	return nil
}

func (m recordingModule) Startup(_ context.Context, mono Monolith) error {
	if !mono.Services().Has(m.name) {
		return errors.New("service missing")
	}
	*m.order = append(*m.order, m.name)
	return nil
}

func TestApp_ModulesAndClose(t *testing.T) {
	app := New(&config.Config{}, logger.NewDiscard())

	var order []string
	a := recordingModule{"a", &order}
	b := recordingModule{"b", &order}
	if err := app.RegisterModules(a, b); err != nil {
		t.Fatal(err)
	}
	if err := app.StartModules(context.Background(), a, b); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("startup order = %v", order)
	}

	var closed []int
	boom := errors.New("boom")
	app.OnClose(closerFunc(func() error { closed = append(closed, 1); return nil }))
	app.OnClose(closerFunc(func() error { closed = append(closed, 2); return boom }))

	if err := app.Close(); !errors.Is(err, boom) {
		t.Errorf("Close err = %v, want boom", err)
	}
	if len(closed) != 2 || closed[0] != 2 || closed[1] != 1 {
		t.Errorf("close order = %v, want [2 1]", closed)
	}
}
