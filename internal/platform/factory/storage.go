// Package factory wires concrete adapters from configuration.
package factory

import (
	"fmt"

	"github.com/confidant-ai/confidant/internal/config"
	"github.com/confidant-ai/confidant/internal/store"
	"github.com/confidant-ai/confidant/internal/store/postgres"
	"github.com/confidant-ai/confidant/internal/store/sqlite"
)

// NewStore selects the store adapter based on cfg.DBDriver.
func NewStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
