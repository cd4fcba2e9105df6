package sqlstore

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Dialect owns everything that differs between the embedded and the
// networked engine: driver, placeholder syntax, identity columns and the
// catalog queries used by the schema initializer.
//
// Queries handed to the store always use "?" placeholders; each dialect
// rewrites them into its own binding convention.
type Dialect interface {
	Name() string
	DriverName() string
	// Rebind rewrites "?" placeholders left to right. Placeholders inside
	// quoted literals and identifiers are left alone.
	Rebind(query string) string
	// AutoIncrementPK is the column definition of a store-generated id.
	AutoIncrementPK() string
	// InsertReturningID adapts an INSERT so the new id can be read back.
	InsertReturningID(query string) string
	// UsesLastInsertID is true when the driver reports the new id through
	// sql.Result.LastInsertId.
	UsesLastInsertID() bool
	// LikeOperator is the case-insensitive substring match operator.
	LikeOperator() string
	// TrimSpace wraps column in an expression stripping the ASCII whitespace
	// strings.TrimSpace removes: space, tab, newline, VT, FF and CR.
	TrimSpace(column string) string
	// ColumnExistsQuery takes (table, column) and yields one row with a
	// single count column "n".
	ColumnExistsQuery() string
	// IsDuplicateColumn reports whether err means the column being added
	// already exists.
	IsDuplicateColumn(err error) bool
}

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return DialectSQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) AutoIncrementPK() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

func (sqliteDialect) InsertReturningID(query string) string { return query }

func (sqliteDialect) UsesLastInsertID() bool { return true }

// SQLite's LIKE is already case-insensitive for ASCII.
func (sqliteDialect) LikeOperator() string { return "LIKE" }

func (sqliteDialect) TrimSpace(column string) string {
	return "TRIM(" + column + ", char(32, 9, 10, 11, 12, 13))"
}

func (sqliteDialect) ColumnExistsQuery() string {
	return "SELECT COUNT(*) AS n FROM pragma_table_info(?) WHERE name = ?"
}

func (sqliteDialect) IsDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}

type postgresDialect struct{}

// pgDuplicateColumn is SQLSTATE duplicate_column.
const pgDuplicateColumn = "42701"

func (postgresDialect) Name() string       { return DialectPostgres }
func (postgresDialect) DriverName() string { return "pgx" }

func (postgresDialect) Rebind(query string) string {
	var (
		b     strings.Builder
		n     int
		quote rune
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) AutoIncrementPK() string { return "SERIAL PRIMARY KEY" }

func (postgresDialect) InsertReturningID(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), ";") + " RETURNING id"
}

func (postgresDialect) UsesLastInsertID() bool { return false }

func (postgresDialect) LikeOperator() string { return "ILIKE" }

func (postgresDialect) TrimSpace(column string) string {
	return "BTRIM(" + column + ", ' ' || chr(9) || chr(10) || chr(11) || chr(12) || chr(13))"
}

func (postgresDialect) ColumnExistsQuery() string {
	return "SELECT COUNT(*) AS n FROM information_schema.columns " +
		"WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?"
}

func (postgresDialect) IsDuplicateColumn(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgDuplicateColumn
}

// SQLite returns the embedded-engine dialect.
func SQLite() Dialect { return sqliteDialect{} }

// Postgres returns the networked-engine dialect.
func Postgres() Dialect { return postgresDialect{} }
