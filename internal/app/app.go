// Package app wires every component into a running bot process: config and
// logger in, a started scan loop and HTTP server out.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/execution"
	"github.com/cryptoedge/bot/internal/repository"
	"github.com/cryptoedge/bot/internal/scanloop"
	"github.com/cryptoedge/bot/pkg/cache"
	"github.com/cryptoedge/bot/pkg/config"
	"github.com/cryptoedge/bot/pkg/healthprobe"
	"github.com/cryptoedge/bot/pkg/httpserver"
	"github.com/cryptoedge/bot/pkg/wallet"
	"github.com/cryptoedge/bot/pkg/wsfeed"
)

// App is the main application orchestrator for `bot run` / `bot run-once`.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	cache         cache.Cache
	repo          repository.Repository
	executor      *execution.Executor
	loop          *scanloop.Loop
	hub           *wsfeed.Hub
	signer        *wallet.Signer
	fresh         bool
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	Fresh bool // force a discovery refresh on the first tick, bypassing the cache
}
