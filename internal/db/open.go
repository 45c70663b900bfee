package db

import (
	"context"
	"fmt"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the store selected by driver. dsn is a Postgres URL or a
// SQLite file path.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverPostgres:
		db, err := Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	case DriverSQLite, "":
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q (want %s or %s)", driver, DriverPostgres, DriverSQLite)
	}
}
