package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-polyglot/internal/runtimeconfig"
)

const (
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"

	// SQLiteDriverName is the database/sql driver registered with the
	// unicode_lower SQL function. SQLite's builtin lower() only folds ASCII.
	SQLiteDriverName = "sqlite3_polyglot"

	postgresDriverName = "pgx"
)

var ErrUnknownProvider = errors.New("storage: unknown provider")

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

// Open connects to the configured database and returns a bun handle with the
// matching dialect. SQLite connections always enforce foreign keys and begin
// transactions with BEGIN IMMEDIATE.
func Open(ctx context.Context, cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	var (
		sqlDB *sql.DB
		db    *bun.DB
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderSQLite, "":
		sqlDB, err = sql.Open(SQLiteDriverName, WithImmediateTx(WithForeignKeys(cfg.DSN)))
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case ProviderPostgres:
		sqlDB, err = sql.Open(postgresDriverName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return db, nil
}

// WithForeignKeys appends the mattn foreign key pragma to a SQLite DSN when
// it is not already present.
func WithForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// WithImmediateTx appends the mattn transaction lock parameter to a SQLite
// DSN so writers take the RESERVED lock when the transaction starts instead of
// failing on upgrade.
func WithImmediateTx(dsn string) string {
	if strings.Contains(dsn, "_txlock=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_txlock=immediate"
	}
	return dsn + "?_txlock=immediate"
}

// ForUpdate reports whether rows read through db inside a transaction need
// an explicit row lock. SQLite serialises writers at BEGIN IMMEDIATE.
func ForUpdate(db bun.IDB) bool {
	if _, ok := db.(bun.Tx); !ok {
		return false
	}
	return db.Dialect().Name() == dialect.PG
}

// IsUniqueViolation reports whether err comes from a UNIQUE constraint on
// either supported dialect.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// LowerFunc returns the SQL function used for case-insensitive matching on
// the dialect of db.
func LowerFunc(db bun.IDB) string {
	if db.Dialect().Name() == dialect.SQLite {
		return "unicode_lower"
	}
	return "LOWER"
}

// LikeEscape is the escape character used by LikePattern.
const LikeEscape = "!"

// LikePattern lower-cases term, escapes LIKE wildcards and wraps it for a
// substring match. Callers pair it with ESCAPE '!'.
func LikePattern(term string) string {
	replacer := strings.NewReplacer(LikeEscape, LikeEscape+LikeEscape, "%", LikeEscape+"%", "_", LikeEscape+"_")
	return "%" + replacer.Replace(strings.ToLower(term)) + "%"
}
