package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/pkg/config"
	"github.com/tastefull/backend/pkg/retry"
)

// Client wraps the lib/pq connection pool and hands out goqu builders bound to it
type Client struct {
	db *sql.DB
}

// NewClient opens the pool described by cfg and waits until the server accepts connections
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := retry.WaitReady(ctx, retry.DefaultConfig(), "PostgreSQL", 5*time.Second, db.PingContext); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to PostgreSQL")
	return &Client{db: db}, nil
}

// NewClientFromDB wraps an existing pool, typically a sqlmock one
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) DB() *sql.DB {
	return c.db
}

// Goqu returns a postgres dialect builder bound to the pool
func (c *Client) Goqu() *goqu.Database {
	return goqu.New("postgres", c.db)
}

func (c *Client) Close() error {
	return c.db.Close()
}

// WithTx runs fn in a transaction that commits only if fn returns nil
func (c *Client) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Ctx(ctx).Error().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
