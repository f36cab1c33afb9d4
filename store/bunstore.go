package store

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	dragonball "github.com/wisslabs/go-dragonball"
)

type kvEntry struct {
	bun.BaseModel `bun:"table:kv_entries,alias:kv"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value,notnull"`
}

// Bun is a KeyValueStore backed by an embedded SQLite database. The
// KeyValueStore contract is synchronous, so queries run against an internal
// background context rather than taking one per call.
type Bun struct {
	db *bun.DB
}

var _ dragonball.KeyValueStore = (*Bun)(nil)

// NewBun opens (or creates) the database at dsn and ensures the kv table
// exists. Use ":memory:" for an ephemeral store.
func NewBun(dsn string) (*Bun, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite store")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*kvEntry)(nil)).
		IfNotExists().
		Exec(context.Background()); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create kv table")
	}

	return &Bun{db: db}, nil
}

func (b *Bun) Get(key string) (string, bool) {
	entry := &kvEntry{}
	err := b.db.NewSelect().
		Model(entry).
		Where("key = ?", key).
		Scan(context.Background())
	if err != nil {
		return "", false
	}
	return entry.Value, true
}

func (b *Bun) Set(key, value string) error {
	entry := &kvEntry{Key: key, Value: value}
	_, err := b.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(context.Background())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write kv entry")
	}
	return nil
}

func (b *Bun) Remove(key string) error {
	_, err := b.db.NewDelete().
		Model((*kvEntry)(nil)).
		Where("key = ?", key).
		Exec(context.Background())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete kv entry")
	}
	return nil
}

// Close releases the underlying database handle.
func (b *Bun) Close() error {
	return b.db.Close()
}
