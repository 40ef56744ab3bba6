// Package storage persists the feed snapshot read by the status readout.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/FrenchMajesty/veracious/pkg/types"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet
var ErrNotFound = errors.New("no snapshot saved")

// Store holds the single current snapshot. Save overwrites it wholesale.
type Store interface {
	Save(ctx context.Context, snapshot types.Snapshot) error
	Load(ctx context.Context) (*types.Snapshot, error)
	Close() error
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open opens the store for driver at path
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverFile, "":
		return NewFileStore(path), nil
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
