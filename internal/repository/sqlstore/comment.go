package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
)

// CreateComment inserts a comment and fills in comment.ID.
// A post_id that does not exist fails on the foreign key.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (content, post_id, author_id, created_at)
		 VALUES (?, ?, ?, `+db.wallClock()+`)`,
		comment.Content,
		comment.PostID,
		comment.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting comment on post %d: %w", comment.PostID, err)
	}
	if err := checkAffected(result, "inserting comment"); err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlstore: reading new comment id: %w", err)
	}
	comment.ID = id
	return nil
}

// GetComment returns apperror.ErrNotFound if the comment does not exist.
func (db *DB) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	var (
		c         model.Comment
		authorID  sql.NullInt64
		createdAt sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT comment_id, content, post_id, author_id, created_at
		 FROM comments WHERE comment_id = ?`, id,
	).Scan(&c.ID, &c.Content, &c.PostID, &authorID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlstore: getting comment %d: %w", id, err)
	}
	c.AuthorID = int64Ptr(authorID)
	c.CreatedAt = timePtr(createdAt)
	return &c, nil
}

// ListCommentsByPost returns all comments on a post, newest first.
func (db *DB) ListCommentsByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.comment_id, c.content, c.post_id, c.author_id, c.created_at, u.username
		 FROM comments c
		 LEFT JOIN users u ON c.author_id = u.user_id
		 WHERE c.post_id = ?
		 ORDER BY c.created_at DESC, c.comment_id DESC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing comments of post %d: %w", postID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var (
			c          model.Comment
			authorID   sql.NullInt64
			createdAt  sql.NullTime
			authorName sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Content, &c.PostID, &authorID, &createdAt, &authorName); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning comment row: %w", err)
		}
		c.AuthorID = int64Ptr(authorID)
		c.CreatedAt = timePtr(createdAt)
		c.AuthorName = stringPtr(authorName)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// ListCommentsByAuthor returns a user's comments with the title of the
// post each one belongs to, newest first.
func (db *DB) ListCommentsByAuthor(ctx context.Context, authorID int64) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.comment_id, c.content, c.post_id, c.author_id, c.created_at, p.title
		 FROM comments c
		 LEFT JOIN posts p ON c.post_id = p.post_id
		 WHERE c.author_id = ?
		 ORDER BY c.created_at DESC, c.comment_id DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing comments of user %d: %w", authorID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var (
			c         model.Comment
			author    sql.NullInt64
			createdAt sql.NullTime
			postTitle sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Content, &c.PostID, &author, &createdAt, &postTitle); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning comment row: %w", err)
		}
		c.AuthorID = int64Ptr(author)
		c.CreatedAt = timePtr(createdAt)
		c.PostTitle = stringPtr(postTitle)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating comments of user %d: %w", authorID, err)
	}
	return comments, nil
}

// DeleteComment removes one comment. Zero rows affected is reported as
// repository.ErrNoRowsAffected.
func (db *DB) DeleteComment(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE comment_id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting comment %d: %w", id, err)
	}
	return checkAffected(result, fmt.Sprintf("deleting comment %d", id))
}
