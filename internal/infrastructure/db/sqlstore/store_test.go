package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/refonic/inventory/internal/core/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func migratedTestDB(t *testing.T) *DB {
	t.Helper()
	db := openTestDB(t)
	_, err := Migrate(context.Background(), db, MigrateOptions{DefaultPassword: "admin", Logger: zerolog.Nop()})
	require.NoError(t, err)
	return db
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, DialectSQLite, db.Dialect().Name())
}

func TestResolve_URLSelectsPostgres(t *testing.T) {
	d, dsn := resolve(Config{URL: "postgres://u:p@localhost/inv", SQLitePath: "ignored.db"})
	assert.Equal(t, DialectPostgres, d.Name())
	assert.Equal(t, "postgres://u:p@localhost/inv", dsn)

	d, dsn = resolve(Config{SQLitePath: "data/refonic.db"})
	assert.Equal(t, DialectSQLite, d.Name())
	assert.Contains(t, dsn, "data/refonic.db")
	assert.Contains(t, dsn, "busy_timeout")
}

func TestQuery_InsertAndSelect(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Query(ctx, "CREATE TABLE things (id INTEGER PRIMARY KEY AUTOINCREMENT, label TEXT)")
	require.NoError(t, err)

	res, err := db.Query(ctx, "INSERT INTO things (label) VALUES (?)", "first")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LastInsertID)
	assert.Equal(t, int64(1), res.RowCount)

	res, err = db.Query(ctx, "INSERT INTO things (label) VALUES (?)", "second")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.LastInsertID)

	res, err = db.Query(ctx, "SELECT id, label FROM things WHERE label = ?", "second")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(1), res.RowCount)
	assert.Equal(t, "second", res.Rows[0]["label"])
	assert.Equal(t, int64(0), res.LastInsertID)
}

func TestQuery_EmptySelectReturnsEmptyRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Query(ctx, "CREATE TABLE things (id INTEGER PRIMARY KEY, label TEXT)")
	require.NoError(t, err)

	res, err := db.Query(ctx, "SELECT * FROM things")
	require.NoError(t, err)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
	assert.Equal(t, int64(0), res.RowCount)
}

func TestQuery_FailureIsStorageError(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Query(context.Background(), "SELECT * FROM missing_table")
	require.Error(t, err)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Query, "missing_table")
	assert.Contains(t, err.Error(), "no such table")
}

func TestMigrate_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	report, err := Migrate(ctx, db, MigrateOptions{DefaultPassword: "admin", Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.True(t, report.Seeded)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, report.Applied)
	assert.Empty(t, report.Adopted)
	assert.Empty(t, report.Failed)

	user, err := NewUserRepository(db).FindFirst(ctx)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("admin")))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := migratedTestDB(t)
	ctx := context.Background()

	report, err := Migrate(ctx, db, MigrateOptions{DefaultPassword: "admin", Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.False(t, report.Seeded)
	assert.Empty(t, report.Applied)
	assert.Empty(t, report.Adopted)
	assert.Empty(t, report.Failed)

	res, err := db.Query(ctx, "SELECT COUNT(*) AS n FROM users")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Rows[0]["n"])
}

func TestMigrate_AdoptsLegacyColumns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// A database created before schema_migrations existed, with some of the
	// later columns already added by hand.
	_, err := db.Query(ctx, `CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL, im_code TEXT, status TEXT NOT NULL, date TEXT,
		sale_price REAL, sale_date TEXT, service_date TEXT, barcode TEXT,
		storage TEXT, ram TEXT
	)`)
	require.NoError(t, err)

	report, err := Migrate(ctx, db, MigrateOptions{DefaultPassword: "admin", Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, report.Adopted)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9}, report.Applied)

	exists, err := columnExists(ctx, db, "products", "purchase_source")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMigrate_FailureDoesNotHaltStartup(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	migrations := []Migration{
		{Version: 2, Name: "good", SQL: "CREATE INDEX IF NOT EXISTS idx_products_name ON products (name)"},
		{Version: 1, Name: "broken", SQL: "CREATE INDEX idx_broken ON nowhere (x)"},
	}
	opts := MigrateOptions{DefaultPassword: "admin", Migrations: migrations, Logger: zerolog.Nop()}

	report, err := Migrate(ctx, db, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, report.Failed)
	assert.Equal(t, []int{2}, report.Applied)

	// The failed version is not recorded, so it is retried next time.
	report, err = Migrate(ctx, db, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, report.Failed)
	assert.Empty(t, report.Applied)
}

func TestMigrate_SeedFailureDoesNotStopSchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	report, err := Migrate(ctx, db, MigrateOptions{Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.True(t, report.SeedFailed)
	assert.False(t, report.Seeded)
	assert.Empty(t, report.Failed)
	assert.Len(t, report.Applied, len(Migrations))

	_, err = NewUserRepository(db).FindFirst(ctx)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// A later start with a password configured seeds the account.
	report, err = Migrate(ctx, db, MigrateOptions{DefaultPassword: "admin", Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.True(t, report.Seeded)
	assert.False(t, report.SeedFailed)
}

func TestUserRepository_UpdatePasswordHash(t *testing.T) {
	db := migratedTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	user, err := repo.FindFirst(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "new-hash"))

	user, err = repo.FindFirst(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", user.PasswordHash)

	assert.Error(t, repo.UpdatePasswordHash(ctx, 999, "x"))
}
