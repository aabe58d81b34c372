package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
)

const userColumns = `user_id, username, password, role, created_at`

// CreateUser inserts a user and fills in user.ID.
//
// created_at is generated by the database (see wallClock), never by Go,
// so the stored value is always the database's +08:00 wall clock. It is not
// read back here; callers that need it fetch the row.
//
// PARAMETERIZED QUERIES (the ? placeholders):
// NEVER build SQL from request data with fmt.Sprintf or concatenation. The
// driver escapes each argument, which is what prevents SQL injection. The
// only spliced piece is the dialect's clock expression, a constant.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, password, role, created_at)
		 VALUES (?, ?, ?, `+db.wallClock()+`)`,
		user.Username,
		user.PasswordHash,
		string(user.Role),
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting user %q: %w", user.Username, err)
	}
	if err := checkAffected(result, "inserting user"); err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlstore: reading new user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user has that id.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlstore: getting user %d: %w", id, err)
	}
	return user, nil
}

// GetUserByUsername returns the oldest user with that name.
//
// Usernames are not UNIQUE in the schema, so a race between two
// registrations can create duplicates. Picking the lowest id keeps login
// deterministic when that happens.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?
		 ORDER BY user_id LIMIT 1`, username)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("user %q not found", username))
		}
		return nil, fmt.Errorf("sqlstore: getting user %q: %w", username, err)
	}
	return user, nil
}

// UsernameExists is the advisory uniqueness pre-check.
func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ?`, username,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlstore: checking username %q: %w", username, err)
	}
	return count > 0, nil
}

// UpdateUsername does not check RowsAffected: MySQL reports 0 for an
// UPDATE that leaves the row unchanged, which is not an error.
func (db *DB) UpdateUsername(ctx context.Context, id int64, username string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET username = ? WHERE user_id = ?`, username, id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating username of user %d: %w", id, err)
	}
	return nil
}

func (db *DB) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password = ? WHERE user_id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating password of user %d: %w", id, err)
	}
	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u         model.User
		role      string
		createdAt sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &createdAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(strings.TrimSpace(role))
	u.CreatedAt = timePtr(createdAt)
	return &u, nil
}
