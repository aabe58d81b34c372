// Package pgstore implements repository.Store on PostgreSQL through a
// pgxpool connection pool.
//
// pgx is used natively rather than through database/sql: pgx.Rows and
// pgx.Row scan straight into Go types, nullable columns scan into pointers,
// and the pool exposes Begin for transactions.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
)

// schema is applied statement by statement on every Open. Each one is
// idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    BIGSERIAL PRIMARY KEY,
		username   VARCHAR(50) NOT NULL,
		password   VARCHAR(255) NOT NULL,
		role       VARCHAR(10) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
	`CREATE TABLE IF NOT EXISTS posts (
		post_id    BIGSERIAL PRIMARY KEY,
		title      VARCHAR(200) NOT NULL,
		content    TEXT NOT NULL,
		author_id  BIGINT REFERENCES users(user_id),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id)`,
	`CREATE TABLE IF NOT EXISTS comments (
		comment_id BIGSERIAL PRIMARY KEY,
		content    TEXT NOT NULL,
		post_id    BIGINT NOT NULL REFERENCES posts(post_id),
		author_id  BIGINT REFERENCES users(user_id),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_author_id ON comments(author_id)`,
}

// DB wraps a pgxpool.Pool and implements repository.Store.
type DB struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*DB)(nil)

// sessionTimeZone makes CURRENT_TIMESTAMP land in the TIMESTAMP columns as
// +08:00 wall clock. pgx decodes TIMESTAMP without a zone as UTC.
const sessionTimeZone = "Asia/Shanghai"

// Open parses dsn, applies the connect timeout, pings and migrates.
func Open(ctx context.Context, dsn string, connectTimeout time.Duration) (*DB, error) {
	cfg, err := poolConfig(dsn, connectTimeout)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: pinging database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("pgstore: running migrations: %w", err)
		}
	}

	return &DB{pool: pool}, nil
}

func poolConfig(dsn string, connectTimeout time.Duration) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parsing dsn: %w", err)
	}
	if connectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = connectTimeout
	}
	cfg.ConnConfig.RuntimeParams["timezone"] = sessionTimeZone
	return cfg, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func affected(tag pgconn.CommandTag, action string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pgstore: %s: %w", action, repository.ErrNoRowsAffected)
	}
	return nil
}

// --- Users ---

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, role, created_at)
		 VALUES ($1, $2, $3, CURRENT_TIMESTAMP) RETURNING user_id`,
		user.Username, user.PasswordHash, string(user.Role),
	).Scan(&user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("pgstore: inserting user: %w", repository.ErrNoRowsAffected)
		}
		return fmt.Errorf("pgstore: inserting user %q: %w", user.Username, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT user_id, username, password, role, created_at FROM users WHERE user_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("pgstore: getting user %d: %w", id, err)
	}
	return user, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT user_id, username, password, role, created_at FROM users
		 WHERE username = $1 ORDER BY user_id LIMIT 1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("user %q not found", username))
		}
		return nil, fmt.Errorf("pgstore: getting user %q: %w", username, err)
	}
	return user, nil
}

func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgstore: checking username %q: %w", username, err)
	}
	return exists, nil
}

func (db *DB) UpdateUsername(ctx context.Context, id int64, username string) error {
	if _, err := db.pool.Exec(ctx, `UPDATE users SET username = $1 WHERE user_id = $2`, username, id); err != nil {
		return fmt.Errorf("pgstore: updating username of user %d: %w", id, err)
	}
	return nil
}

func (db *DB) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if _, err := db.pool.Exec(ctx, `UPDATE users SET password = $1 WHERE user_id = $2`, passwordHash, id); err != nil {
		return fmt.Errorf("pgstore: updating password of user %d: %w", id, err)
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}
