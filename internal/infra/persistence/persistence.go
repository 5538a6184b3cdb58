// Package persistence selects a concrete persistent store backend from
// environment configuration.
package persistence

import (
	"fmt"
	"os"

	"recipealmanac/internal/core"
	"recipealmanac/internal/infra/persistence/postgres"
	"recipealmanac/internal/infra/persistence/sqlite"
	"recipealmanac/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// Open selects a backend using environment variables. Defaults to sqlite
// when unset.
//
//	ALMANAC_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	ALMANAC_SQLITE_PATH: path to sqlite file (default ./almanac.db)
//	ALMANAC_POSTGRES_DSN: postgres DSN when driver=postgres
func Open(engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := os.Getenv("ALMANAC_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return core.NewMemoryStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("ALMANAC_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("ALMANAC_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
