package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"library/internal/config"
	"library/internal/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // postgres dialect
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // sqlite3 dialect
	_ "github.com/jackc/pgx/v5/stdlib"                  // pgx driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

type DB struct {
	*sqlx.DB
	driver  string
	path    string
	dialect goqu.DialectWrapper
	logger  *zerolog.Logger
}

// NewDB opens a sqlite database at path, creating parent directories when needed.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	return Open(config.DatabaseConfig{Driver: DriverSQLite, Path: path}, logger)
}

// Open connects to the configured engine and creates the schema.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)

	switch cfg.Driver {
	case "", DriverSQLite:
		conn, err = openSQLite(cfg.Path)
		cfg.Driver = DriverSQLite
	case DriverPostgres:
		conn, err = sqlx.Open(DriverPostgres, cfg.Postgres.DSN())
		if err == nil && cfg.Postgres.MaxConnections > 0 {
			conn.SetMaxOpenConns(cfg.Postgres.MaxConnections)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Проверяем соединение
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	dialect := "sqlite3"
	if cfg.Driver == DriverPostgres {
		dialect = "postgres"
	}

	db := &DB{
		DB:      conn,
		driver:  cfg.Driver,
		path:    cfg.Path,
		dialect: goqu.Dialect(dialect),
		logger:  logger,
	}

	// Создаем таблицы
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", cfg.Driver).Str("path", cfg.Path).Msg("Database initialized")
	return db, nil
}

func openSQLite(path string) (*sqlx.DB, error) {
	memory := path == ":memory:"
	if !memory {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	params := []string{"_busy_timeout=5000", "_foreign_keys=on", "_txlock=immediate"}
	if !memory {
		params = append(params, "_journal_mode=WAL")
	}

	conn, err := sqlx.Open(DriverSQLite, path+"?"+strings.Join(params, "&"))
	if err != nil {
		return nil, err
	}
	if memory {
		// каждое соединение получает свою in-memory базу
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) createTables() error {
	queries := sqliteSchema
	if db.driver == DriverPostgres {
		queries = postgresSchema
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// WithTx runs fn in a single transaction. On sqlite the transaction starts with BEGIN IMMEDIATE.
func (db *DB) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&Tx{tx: tx, dialect: db.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Tx is the transactional view of the store.
type Tx struct {
	tx      *sqlx.Tx
	dialect goqu.DialectWrapper
}

func (t *Tx) Savepoint(ctx context.Context, name string, fn func() error) error {
	if !validSavepoint(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	if err := fn(); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back savepoint: %w", rbErr))
		}
		_, _ = t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
		return err
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

func validSavepoint(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r != '_' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func toSQL(ds *goqu.SelectDataset) (string, []interface{}, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build query: %w", err)
	}
	return query, args, nil
}

// containsFold matches rows whose column contains value, ignoring case.
func containsFold(column, value string) exp.Expression {
	return goqu.Func("LOWER", goqu.I(column)).Like("%" + strings.ToLower(value) + "%")
}
