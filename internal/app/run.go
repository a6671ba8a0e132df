package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.Bool("dry_run", a.cfg.DryRun),
		zap.String("storage_mode", a.cfg.StorageMode),
		zap.String("log_level", a.cfg.LogLevel))

	a.startComponents()

	a.healthChecker.SetReady(true)
	a.logger.Info("application-ready", zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
}

// RunOnce drives exactly one scan loop tick, for `bot run-once`. The
// websocket hub is started so the tick's events can be broadcast; the HTTP
// server is not started. The tick's outcome is the returned error.
func (a *App) RunOnce(fresh bool) error {
	go a.hub.Run()
	return a.loop.RunOnce(a.ctx, fresh)
}

func (a *App) startComponents() {
	a.wg.Add(1)
	go a.runHTTPServer()

	go a.hub.Run()

	a.wg.Add(1)
	go a.runScanLoop()

	time.Sleep(100 * time.Millisecond)
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runScanLoop() {
	defer a.wg.Done()
	if a.fresh {
		if err := a.loop.RunOnce(a.ctx, true); err != nil {
			a.logger.Error("initial-fresh-tick-failed", zap.Error(err))
		}
	}
	if err := a.loop.Run(a.ctx); err != nil {
		a.logger.Error("scan-loop-stopped", zap.Error(err))
		a.cancel()
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
