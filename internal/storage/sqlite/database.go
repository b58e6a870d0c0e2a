package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

// Connect opens the SQLite database named by a sqlite://path URL
func Connect(databaseURL string) (*bun.DB, error) {
	path := strings.TrimPrefix(databaseURL, "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path in %q", databaseURL)
	}

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// SQLite allows a single writer; serialising in the pool avoids SQLITE_BUSY
	sqldb.SetMaxOpenConns(1)

	if _, err := sqldb.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := sqldb.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the schema if it does not exist yet
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*roomRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table for %T: %w", (*roomRow)(nil), err)
	}

	children := []interface{}{
		(*playerRow)(nil),
		(*partitionRow)(nil),
		(*messageRow)(nil),
	}

	for _, m := range children {
		_, err := db.NewCreateTable().
			Model(m).
			IfNotExists().
			ForeignKey(`("room_id") REFERENCES "rooms" ("id") ON DELETE CASCADE`).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for %T: %w", m, err)
		}
	}

	indexes := []struct {
		name  string
		query string
	}{
		{
			"idx_players_room_position",
			"CREATE INDEX IF NOT EXISTS idx_players_room_position ON players (room_id, position)",
		},
		{
			"idx_messages_room_position",
			"CREATE INDEX IF NOT EXISTS idx_messages_room_position ON messages (room_id, position)",
		},
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx.query); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
