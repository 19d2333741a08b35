package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresChecker looks ids up in a parent table (videos or tweets).
type PostgresChecker struct {
	pool  *pgxpool.Pool
	query string
}

func NewPostgresVideoChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool, query: `SELECT EXISTS(SELECT 1 FROM videos WHERE id = $1)`}
}

func NewPostgresTweetChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool, query: `SELECT EXISTS(SELECT 1 FROM tweets WHERE id = $1)`}
}

func (c *PostgresChecker) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := c.pool.QueryRow(ctx, c.query, id).Scan(&ok)
	return ok, err
}
