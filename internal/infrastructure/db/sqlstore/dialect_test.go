package sqlstore

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPostgresRebind(t *testing.T) {
	d := Postgres()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"in order", "SELECT * FROM products WHERE status = ? AND id = ?", "SELECT * FROM products WHERE status = $1 AND id = $2"},
		{"quoted literal kept", "SELECT '?' AS q, name FROM products WHERE id = ?", "SELECT '?' AS q, name FROM products WHERE id = $1"},
		{"quoted identifier kept", `SELECT "a?b" FROM t WHERE x = ? AND y = ?`, `SELECT "a?b" FROM t WHERE x = $1 AND y = $2`},
		{"ten or more", "VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, d.Rebind(tc.query))
		})
	}
}

func TestSQLiteRebindIsIdentity(t *testing.T) {
	q := "SELECT * FROM products WHERE id = ?"
	assert.Equal(t, q, SQLite().Rebind(q))
}

func TestInsertReturningID(t *testing.T) {
	q := "INSERT INTO products (name) VALUES (?);"
	assert.Equal(t, "INSERT INTO products (name) VALUES (?) RETURNING id", Postgres().InsertReturningID(q))
	assert.Equal(t, q, SQLite().InsertReturningID(q))
}

func TestReturnsRows(t *testing.T) {
	assert.True(t, returnsRows("  select 1"))
	assert.True(t, returnsRows("INSERT INTO t (a) VALUES ($1) RETURNING id"))
	assert.False(t, returnsRows("INSERT INTO t (a) VALUES (?)"))
	assert.False(t, returnsRows("UPDATE t SET returning_flag = 1"))
}

func TestIsDuplicateColumn(t *testing.T) {
	assert.True(t, SQLite().IsDuplicateColumn(errors.New("SQL logic error: duplicate column name: ram (1)")))
	assert.False(t, SQLite().IsDuplicateColumn(nil))

	assert.True(t, Postgres().IsDuplicateColumn(&StorageError{Err: &pgconn.PgError{Code: "42701"}}))
	assert.False(t, Postgres().IsDuplicateColumn(&pgconn.PgError{Code: "42P01"}))
}

func TestLikeOperator(t *testing.T) {
	assert.Equal(t, "LIKE", SQLite().LikeOperator())
	assert.Equal(t, "ILIKE", Postgres().LikeOperator())
}

func TestTrimSpace(t *testing.T) {
	assert.Equal(t, "TRIM(barcode, char(32, 9, 10, 11, 12, 13))", SQLite().TrimSpace("barcode"))

	pg := Postgres().TrimSpace("barcode")
	assert.Equal(t, "BTRIM(barcode, ' ' || chr(9) || chr(10) || chr(11) || chr(12) || chr(13))", pg)
	assert.Equal(t, pg+" = $1", Postgres().Rebind(pg+" = ?"))
}
