// Package pg implementa el adapter PostgreSQL sobre pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/store"
	"github.com/dropDatabas3/kangaroo/migrations/postgres"
)

func init() {
	store.RegisterAdapter(adapter{})
}

type adapter struct{}

func (adapter) Name() string { return "postgres" }

func (adapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.DataAccessLayer, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	poolCfg.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.MinConns = 2
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return New(pool, cfg.TxTimeout), nil
}

// Conn es el DataAccessLayer PostgreSQL.
type Conn struct {
	pool      *pgxpool.Pool
	txTimeout time.Duration
}

// New envuelve un pool existente (tests de integración lo usan directo).
func New(pool *pgxpool.Pool, txTimeout time.Duration) *Conn {
	if txTimeout <= 0 {
		txTimeout = store.DefaultTxTimeout
	}
	return &Conn{pool: pool, txTimeout: txTimeout}
}

func (c *Conn) Name() string                   { return "postgres" }
func (c *Conn) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

// Pool expone el pool para métricas.
func (c *Conn) Pool() *pgxpool.Pool { return c.pool }

func (c *Conn) Close() error {
	c.pool.Close()
	return nil
}

func (c *Conn) States() repository.AuthenticatorStateRepository { return &stateRepo{db: c.pool} }

// Migrate aplica el esquema embebido.
func (c *Conn) Migrate(ctx context.Context) (*store.MigrationResult, error) {
	return store.NewMigrator(postgres.FS, postgres.Dir).Run(ctx, c.pool)
}

func (c *Conn) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.txTimeout)
	defer cancel()

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&repos{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit: %w", err)
	}
	return nil
}

// querier es lo que comparten pgx.Tx y *pgxpool.Pool.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type repos struct{ q querier }

func (r *repos) Applications() repository.ApplicationRepository { return &appRepo{r} }
func (r *repos) Roles() repository.RoleRepository               { return &roleRepo{r} }
func (r *repos) Clients() repository.ClientRepository           { return &clientRepo{r} }
func (r *repos) Users() repository.UserRepository               { return &userRepo{r} }
func (r *repos) Identities() repository.IdentityRepository      { return &identityRepo{r} }
func (r *repos) Tokens() repository.TokenRepository             { return &tokenRepo{r} }

// mapErr traduce errores de pgx a los sentinels del dominio.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("pg: %s: %w", op, repository.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("pg: %s: %s: %w", op, pgErr.ConstraintName, repository.ErrConflict)
		case "23503", "23514": // foreign_key_violation, check_violation
			return fmt.Errorf("pg: %s: %s: %w", op, pgErr.ConstraintName, repository.ErrInvalidInput)
		}
	}
	return fmt.Errorf("pg: %s: %w", op, err)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func emptyIfNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
