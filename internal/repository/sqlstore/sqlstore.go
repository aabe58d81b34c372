// Package sqlstore implements repository.Store on top of database/sql.
//
// Two drivers are supported, chosen by Config.Driver:
//
//   - "sqlite": modernc.org/sqlite, a pure Go translation of SQLite. No C
//     compiler, no separate server. ":memory:" gives a throwaway database,
//     which is what the tests use.
//   - "mysql": github.com/go-sql-driver/mysql.
//
// Both use "?" placeholders and LIMIT/OFFSET, so every query is shared.
// Only the DDL and the insert-time clock (see wallClock) differ per dialect.
//
// STORED TIMES:
// created_at holds a +08:00 wall-clock value with no zone attached. Both
// drivers decode it as UTC; the timestamp package relies on exactly that.
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB   is a connection pool, NOT a single connection
//   - sql.Tx   is a transaction pinned to one connection
//   - sql.Rows must always be closed, or the connection never returns to the pool
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	// BLANK IMPORT:
	// modernc.org/sqlite registers itself with database/sql as the "sqlite"
	// driver in its init() function. We never call it directly.
	_ "modernc.org/sqlite"

	"github.com/sakif/qaforum/internal/repository"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config selects and tunes the driver.
type Config struct {
	Driver string
	// DSN examples:
	//   sqlite: "data/forum.db", ":memory:"
	//   mysql:  "forum:secret@tcp(localhost:3306)/forum"
	DSN string
	// ConnectTimeout bounds connection establishment. Zero means no bound.
	ConnectTimeout time.Duration
}

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn    *sql.DB
	dialect string
}

var _ repository.Store = (*DB)(nil)

// Open creates the pool, verifies it with a ping and runs migrations.
//
// sql.Open() does NOT open a connection; it only builds the pool manager.
// The ping forces a real connection so a bad DSN fails here rather than on
// the first request.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	driver, dsn, err := prepareDSN(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer at a time, and every connection to
		// ":memory:" gets its own private database. A single connection
		// sidesteps both problems.
		conn.SetMaxOpenConns(1)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: pinging %s database: %w", driver, err)
	}

	db := &DB{conn: conn, dialect: driver}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: running migrations: %w", err)
	}

	return db, nil
}

// sqlitePragmas are applied by the driver to every new connection. A
// PRAGMA run once after Open would only reach whichever pooled connection
// executed it.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

// prepareDSN validates the driver name and adjusts driver-specific options.
//
// SQLite gets its pragmas in the DSN: foreign keys are OFF by default and
// we need them so a comment can never point at a post that does not exist.
//
// For MySQL we always set ParseTime so DATETIME columns scan into
// time.Time, decoded in UTC (the driver's default Loc). The session
// time_zone is pinned to +08:00 so CURRENT_TIMESTAMP writes +08:00 wall
// clock no matter how the server is configured.
func prepareDSN(cfg Config) (string, string, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		sep := "?"
		if strings.Contains(cfg.DSN, "?") {
			sep = "&"
		}
		return DriverSQLite, cfg.DSN + sep + sqlitePragmas, nil
	case DriverMySQL:
		mcfg, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", "", fmt.Errorf("sqlstore: parsing mysql dsn: %w", err)
		}
		mcfg.ParseTime = true
		mcfg.Loc = time.UTC
		if mcfg.Params == nil {
			mcfg.Params = map[string]string{}
		}
		mcfg.Params["time_zone"] = "'+08:00'"
		if cfg.ConnectTimeout > 0 {
			mcfg.Timeout = cfg.ConnectTimeout
		}
		return DriverMySQL, mcfg.FormatDSN(), nil
	default:
		return "", "", fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}
}

// wallClock is the SQL expression for "now" as +08:00 wall clock. SQLite
// has no session zone, so the shift is spelled out; MySQL's
// CURRENT_TIMESTAMP already follows the session time_zone set in
// prepareDSN.
func (db *DB) wallClock() string {
	if db.dialect == DriverSQLite {
		return sqliteWallClock
	}
	return "CURRENT_TIMESTAMP"
}

const sqliteWallClock = "datetime('now', '+8 hours')"

// Ping checks that the pool can still reach the database.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate runs the dialect's schema statements.
//
// CREATE TABLE IF NOT EXISTS is idempotent, so running this on every start
// is safe. Statements are executed one by one because the MySQL driver
// rejects multi-statement strings unless multiStatements is enabled.
//
// username deliberately has no UNIQUE constraint: uniqueness is an
// advisory pre-check in the service layer.
func (db *DB) migrate(ctx context.Context) error {
	statements := sqliteSchema
	if db.dialect == DriverMySQL {
		statements = mysqlSchema
	}
	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		username   VARCHAR(50) NOT NULL,
		password   VARCHAR(255) NOT NULL,
		role       VARCHAR(10) NOT NULL,
		created_at DATETIME DEFAULT (datetime('now', '+8 hours'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
	`CREATE TABLE IF NOT EXISTS posts (
		post_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		title      VARCHAR(200) NOT NULL,
		content    TEXT NOT NULL,
		author_id  INTEGER REFERENCES users(user_id),
		created_at DATETIME DEFAULT (datetime('now', '+8 hours'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id)`,
	`CREATE TABLE IF NOT EXISTS comments (
		comment_id INTEGER PRIMARY KEY AUTOINCREMENT,
		content    TEXT NOT NULL,
		post_id    INTEGER NOT NULL REFERENCES posts(post_id),
		author_id  INTEGER REFERENCES users(user_id),
		created_at DATETIME DEFAULT (datetime('now', '+8 hours'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_author_id ON comments(author_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    BIGINT AUTO_INCREMENT PRIMARY KEY,
		username   VARCHAR(50) NOT NULL,
		password   VARCHAR(255) NOT NULL,
		role       VARCHAR(10) NOT NULL,
		created_at DATETIME NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_users_username (username)
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		post_id    BIGINT AUTO_INCREMENT PRIMARY KEY,
		title      VARCHAR(200) NOT NULL,
		content    TEXT NOT NULL,
		author_id  BIGINT NULL,
		created_at DATETIME NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_posts_created_at (created_at),
		CONSTRAINT fk_posts_author FOREIGN KEY (author_id) REFERENCES users(user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		comment_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		content    TEXT NOT NULL,
		post_id    BIGINT NOT NULL,
		author_id  BIGINT NULL,
		created_at DATETIME NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_comments_post_id (post_id),
		CONSTRAINT fk_comments_post FOREIGN KEY (post_id) REFERENCES posts(post_id),
		CONSTRAINT fk_comments_author FOREIGN KEY (author_id) REFERENCES users(user_id)
	)`,
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

// checkAffected turns a zero-row write into repository.ErrNoRowsAffected.
func checkAffected(result sql.Result, action string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected (%s): %w", action, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlstore: %s: %w", action, repository.ErrNoRowsAffected)
	}
	return nil
}

// Nullable column helpers. LEFT JOINs and legacy rows can yield NULL for
// author_id, username and created_at; the model keeps those as nil pointers.

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
