// Package sqlstore is the relational persistence adapter. It hides whether
// the backing engine is an embedded SQLite file or a networked PostgreSQL
// server behind one query interface, and owns the schema.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/spf13/cast"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	defaultTimeout    = 10 * time.Second
	memoryPath        = ":memory:"
	sqliteBusyTimeout = 5000
)

// Config selects and tunes the backing engine. A non-empty URL selects
// PostgreSQL; otherwise SQLitePath is opened.
type Config struct {
	URL             string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the uniform outcome of Query. LastInsertID is zero when the
// engine could not report one.
type Result struct {
	Rows         []Row
	RowCount     int64
	LastInsertID int64
}

// DB is the process-wide handle. It is built once at startup and handed to
// the repositories.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// Open connects to the engine selected by cfg and verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dialect, dsn := resolve(cfg)

	conn, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", dialect.Name(), err)
	}

	if dialect.Name() == DialectSQLite && isMemory(cfg.SQLitePath) {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		if cfg.MaxOpenConns > 0 {
			conn.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			conn.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	db := New(conn, dialect)

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s ping: %w", dialect.Name(), err)
	}
	return db, nil
}

// New wraps an already opened connection pool.
func New(conn *sql.DB, dialect Dialect) *DB {
	return &DB{conn: conn, dialect: dialect}
}

func resolve(cfg Config) (Dialect, string) {
	if cfg.URL != "" {
		return Postgres(), cfg.URL
	}
	path := cfg.SQLitePath
	if path == "" {
		path = memoryPath
	}
	if isMemory(path) {
		return SQLite(), path
	}
	return SQLite(), fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, sqliteBusyTimeout)
}

func isMemory(path string) bool {
	return path == "" || path == memoryPath
}

func (db *DB) Dialect() Dialect { return db.dialect }

func (db *DB) Ping(ctx context.Context) error { return db.conn.PingContext(ctx) }

func (db *DB) Close() error { return db.conn.Close() }

// Query runs one statement written with "?" placeholders. Statements that
// produce rows (SELECT, WITH, PRAGMA or anything with RETURNING) are fully
// read into Result.Rows; others report affected rows and, where the driver
// supports it, the last inserted id. Engine failures come back as
// *StorageError.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	bound := db.dialect.Rebind(query)

	if returnsRows(bound) {
		return db.queryRows(ctx, bound, args)
	}

	res, err := db.conn.ExecContext(ctx, bound, args...)
	if err != nil {
		return nil, &StorageError{Query: bound, Err: err}
	}

	out := &Result{}
	if out.RowCount, err = res.RowsAffected(); err != nil {
		return nil, &StorageError{Query: bound, Err: err}
	}
	if db.dialect.UsesLastInsertID() && isInsert(bound) {
		if id, err := res.LastInsertId(); err == nil {
			out.LastInsertID = id
		}
	}
	return out, nil
}

func (db *DB) queryRows(ctx context.Context, query string, args []any) (*Result, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Query: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &StorageError{Query: query, Err: err}
	}

	out := &Result{Rows: []Row{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &StorageError{Query: query, Err: err}
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Query: query, Err: err}
	}

	out.RowCount = int64(len(out.Rows))
	if len(out.Rows) > 0 {
		if id, ok := out.Rows[0]["id"]; ok && isInsert(query) {
			out.LastInsertID = cast.ToInt64(id)
		}
	}
	return out, nil
}

func returnsRows(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "PRAGMA", "VALUES"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return strings.Contains(upper+" ", " RETURNING ")
}

func isInsert(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT")
}
