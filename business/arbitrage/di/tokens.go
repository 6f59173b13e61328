// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/arbitrage-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scanner = di.NewToken[*app.Scanner]("arbitrage.Scanner")
)

// Private dependency tokens - internal to arbitrage module
var (
	Strategy = di.NewToken[app.Strategy]("arbitrage:strategy")
	Reporter = di.NewToken[app.Reporter]("arbitrage:reporter")
	Injector = di.NewToken[*app.Injector]("arbitrage:injector")
)

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetStrategy(c di.ServiceRegistry) app.Strategy {
	return di.GetToken(c, Strategy)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetInjector(c di.ServiceRegistry) *app.Injector {
	return di.GetToken(c, Injector)
}
