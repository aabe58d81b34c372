package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
)

// postSelect joins the author so listings can show a username.
// LEFT JOIN keeps posts whose author row is gone; author_name is then NULL.
const postSelect = `
	SELECT p.post_id, p.title, p.content, p.author_id, p.created_at, u.username
	FROM posts p
	LEFT JOIN users u ON p.author_id = u.user_id`

// CreatePost inserts a post and fills in post.ID.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (title, content, author_id, created_at)
		 VALUES (?, ?, ?, `+db.wallClock()+`)`,
		post.Title,
		post.Content,
		post.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting post: %w", err)
	}
	if err := checkAffected(result, "inserting post"); err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlstore: reading new post id: %w", err)
	}
	post.ID = id
	return nil
}

// GetPost returns apperror.ErrNotFound if the post does not exist.
func (db *DB) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	row := db.conn.QueryRowContext(ctx, postSelect+` WHERE p.post_id = ?`, id)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlstore: getting post %d: %w", id, err)
	}
	return post, nil
}

// ListPosts returns one page of posts, newest first.
//
// LIMIT/OFFSET pagination: page 3 with 5 per page is LIMIT 5 OFFSET 10.
// post_id breaks ties between posts created in the same second, so pages
// never overlap or skip a row.
func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		postSelect+` ORDER BY p.created_at DESC, p.post_id DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, opts.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating posts: %w", err)
	}
	return posts, nil
}

// CountPosts is issued separately from ListPosts to compute page totals.
func (db *DB) CountPosts(ctx context.Context) (int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sqlstore: counting posts: %w", err)
	}
	return total, nil
}

// ListPostsByAuthor returns every post by authorID, newest first.
func (db *DB) ListPostsByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		postSelect+` WHERE p.author_id = ? ORDER BY p.created_at DESC, p.post_id DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing posts of user %d: %w", authorID, err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating posts of user %d: %w", authorID, err)
	}
	return posts, nil
}

// DeletePostCascade deletes the post's comments and then the post, inside
// one transaction.
//
// ALL OR NOTHING:
// If any statement fails, or the post row was already gone, the deferred
// Rollback undoes the comment deletes too. Rollback after a successful
// Commit is a no-op (it returns sql.ErrTxDone, which we ignore), which is
// why it is safe to defer unconditionally.
func (db *DB) DeletePostCascade(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning delete of post %d: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("sqlstore: deleting comments of post %d: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE post_id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting post %d: %w", id, err)
	}
	if err := checkAffected(result, fmt.Sprintf("deleting post %d", id)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing delete of post %d: %w", id, err)
	}
	return nil
}

// rowScanner lets one scan function serve both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.Post, error) {
	var (
		p          model.Post
		authorID   sql.NullInt64
		createdAt  sql.NullTime
		authorName sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &authorID, &createdAt, &authorName); err != nil {
		return nil, err
	}
	p.AuthorID = int64Ptr(authorID)
	p.CreatedAt = timePtr(createdAt)
	p.AuthorName = stringPtr(authorName)
	return &p, nil
}
