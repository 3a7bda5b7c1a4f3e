package store

import (
	"context"
	"fmt"
	"strings"

	"indexchat/internal/model"
)

// Supported store drivers.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Store is what the CLI wires up: the chat read path plus import and
// lifecycle.
type Store interface {
	model.SnapshotStore
	model.SnapshotImporter
	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	Driver     string
	MongoURI   string
	Database   string
	Collection string
	SQLitePath string
}

func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case DriverMongo, "":
		return NewMongoStore(ctx, opts.MongoURI, opts.Database, opts.Collection)
	case DriverSQLite:
		st := NewSQLiteStore(opts.SQLitePath)
		if err := st.Init(ctx); err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", opts.SQLitePath, err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

var (
	_ Store = (*MongoStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
