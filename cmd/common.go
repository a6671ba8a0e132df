package cmd

import (
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/repository"
	"github.com/cryptoedge/bot/pkg/config"
)

// newRepositoryFromConfig opens the storage backend named by
// cfg.StorageMode, mirroring internal/app's own repository setup for the
// standalone backtest commands that don't otherwise construct an App.
func newRepositoryFromConfig(cfg *config.Config, logger *zap.Logger) (repository.Repository, error) {
	if cfg.StorageMode == "postgres" {
		return repository.NewPostgresRepository(&repository.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return repository.NewConsoleRepository(logger), nil
}
