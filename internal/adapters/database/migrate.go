package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsTable = "schema_migrations"

// Migration is one embedded schema file
type Migration struct {
	Version string
	SQL     string
}

// Migrations returns the embedded migrations in version order
func Migrations() ([]Migration, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		out = append(out, Migration{Version: name[len("migrations/"):], SQL: string(data)})
	}
	return out, nil
}

// Migrate applies every embedded migration that has not been recorded yet and returns
// the versions it applied
func Migrate(ctx context.Context, client *postgres.Client) ([]string, error) {
	if _, err := client.DB().ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", migrationsTable, err)
	}

	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	db := client.Goqu()
	applied := []string{}
	for _, m := range migrations {
		var count int
		query, args, err := db.Select(goqu.COUNT("*")).From(migrationsTable).Where(goqu.Ex{"version": m.Version}).ToSQL()
		if err != nil {
			return applied, err
		}
		if err := client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
			return applied, fmt.Errorf("failed to check migration %s: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		insert, insertArgs, err := db.Insert(migrationsTable).
			Rows(goqu.Record{"version": m.Version, "applied_at": time.Now()}).ToSQL()
		if err != nil {
			return applied, err
		}

		err = client.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, insert, insertArgs...)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("failed to apply migration %s: %w", m.Version, err)
		}

		log.Info().Str("version", m.Version).Msg("Applied migration")
		applied = append(applied, m.Version)
	}

	return applied, nil
}
