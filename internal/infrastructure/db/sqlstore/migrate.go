package sqlstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"golang.org/x/crypto/bcrypt"
)

// Migration is one ordered schema change. Additive column migrations set
// Table/Column/Type; anything else sets SQL.
type Migration struct {
	Version int
	Name    string
	Table   string
	Column  string
	Type    string
	SQL     string
}

// Migrations is the ordered list applied on every start. Versions are never
// renumbered; new changes go at the end.
var Migrations = []Migration{
	{Version: 1, Name: "add products.storage", Table: "products", Column: "storage", Type: "TEXT"},
	{Version: 2, Name: "add products.ram", Table: "products", Column: "ram", Type: "TEXT"},
	{Version: 3, Name: "add products.sponsor_name", Table: "products", Column: "sponsor_name", Type: "TEXT"},
	{Version: 4, Name: "add products.buyer_name", Table: "products", Column: "buyer_name", Type: "TEXT"},
	{Version: 5, Name: "add products.exchange_details", Table: "products", Column: "exchange_details", Type: "TEXT"},
	{Version: 6, Name: "add products.description", Table: "products", Column: "description", Type: "TEXT"},
	{Version: 7, Name: "add products.purchase_source", Table: "products", Column: "purchase_source", Type: "TEXT"},
	{Version: 8, Name: "index products.barcode", SQL: "CREATE INDEX IF NOT EXISTS idx_products_barcode ON products (barcode)"},
	{Version: 9, Name: "index products.status", SQL: "CREATE INDEX IF NOT EXISTS idx_products_status ON products (status)"},
}

// MigrateOptions configures Migrate.
type MigrateOptions struct {
	// DefaultPassword seeds the operator account when users is empty.
	DefaultPassword string
	// Migrations overrides the package list (tests).
	Migrations []Migration
	Logger     zerolog.Logger
}

// MigrationReport lists what a Migrate run did, by version.
type MigrationReport struct {
	Seeded     bool
	SeedFailed bool
	Applied []int
	// Adopted versions were already present in a database created before
	// schema_migrations existed; they were recorded without running.
	Adopted []int
	Failed  []int
}

// Migrate brings the database to the current shape. It is safe to call on
// every start: base tables are created if missing, the default user is
// seeded into an empty users table (a failed seed is only logged), and each migration not yet recorded in
// schema_migrations is applied in version order. A failing migration is
// logged and skipped; it will be retried on the next start.
func Migrate(ctx context.Context, db *DB, opts MigrateOptions) (*MigrationReport, error) {
	log := opts.Logger
	d := db.Dialect()

	base := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			password_hash TEXT NOT NULL
		)`, d.AutoIncrementPK()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS products (
			id %s,
			name TEXT NOT NULL,
			im_code TEXT,
			status TEXT NOT NULL,
			date TEXT,
			sale_price DOUBLE PRECISION,
			sale_date TEXT,
			service_date TEXT,
			barcode TEXT
		)`, d.AutoIncrementPK()),
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range base {
		if _, err := db.Query(ctx, stmt); err != nil {
			return nil, fmt.Errorf("migrate: create base tables: %w", err)
		}
	}

	report := &MigrationReport{}

	// The product endpoints work without an operator account, so a failed
	// seed is logged and the schema work continues.
	seeded, err := seedDefaultUser(ctx, db, opts.DefaultPassword)
	switch {
	case err != nil:
		report.SeedFailed = true
		log.Error().Err(err).Msg("default operator seed failed; logins will be rejected")
	case seeded:
		report.Seeded = true
		log.Warn().Msg("default operator credential created; change it after first login")
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("migrate: read schema_migrations: %w", err)
	}

	migrations := opts.Migrations
	if migrations == nil {
		migrations = Migrations
	}
	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	for _, m := range ordered {
		if applied[m.Version] {
			continue
		}

		adopted, err := applyMigration(ctx, db, m)
		if err != nil {
			log.Error().Err(err).Int("version", m.Version).Str("migration", m.Name).Msg("migration failed")
			report.Failed = append(report.Failed, m.Version)
			continue
		}

		if err := recordMigration(ctx, db, m); err != nil {
			log.Error().Err(err).Int("version", m.Version).Msg("failed to record migration")
			report.Failed = append(report.Failed, m.Version)
			continue
		}

		if adopted {
			log.Info().Int("version", m.Version).Str("migration", m.Name).Msg("migration already present, recorded")
			report.Adopted = append(report.Adopted, m.Version)
		} else {
			log.Info().Int("version", m.Version).Str("migration", m.Name).Msg("migration applied")
			report.Applied = append(report.Applied, m.Version)
		}
	}

	return report, nil
}

// applyMigration runs m. It returns adopted=true when the change was already
// in place and nothing was executed.
func applyMigration(ctx context.Context, db *DB, m Migration) (bool, error) {
	if m.Column == "" {
		_, err := db.Query(ctx, m.SQL)
		return false, err
	}

	exists, err := columnExists(ctx, db, m.Table, m.Column)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Type)
	if _, err := db.Query(ctx, stmt); err != nil {
		if db.Dialect().IsDuplicateColumn(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func columnExists(ctx context.Context, db *DB, table, column string) (bool, error) {
	res, err := db.Query(ctx, db.Dialect().ColumnExistsQuery(), table, column)
	if err != nil {
		return false, err
	}
	if len(res.Rows) == 0 {
		return false, nil
	}
	return cast.ToInt64(res.Rows[0]["n"]) > 0, nil
}

func appliedVersions(ctx context.Context, db *DB) (map[int]bool, error) {
	res, err := db.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	out := make(map[int]bool, len(res.Rows))
	for _, row := range res.Rows {
		out[cast.ToInt(row["version"])] = true
	}
	return out, nil
}

func recordMigration(ctx context.Context, db *DB, m Migration) error {
	_, err := db.Query(ctx,
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
		m.Version, m.Name, time.Now().UTC().Format(time.RFC3339))
	return err
}

func seedDefaultUser(ctx context.Context, db *DB, password string) (bool, error) {
	res, err := db.Query(ctx, "SELECT COUNT(*) AS count FROM users")
	if err != nil {
		return false, err
	}
	if len(res.Rows) > 0 && cast.ToInt64(res.Rows[0]["count"]) > 0 {
		return false, nil
	}
	if password == "" {
		return false, fmt.Errorf("no default password configured")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	if _, err := db.Query(ctx, "INSERT INTO users (password_hash) VALUES (?)", string(hash)); err != nil {
		return false, err
	}
	return true, nil
}
