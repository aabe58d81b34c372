package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
)

const postSelect = `
	SELECT p.post_id, p.title, p.content, p.author_id, p.created_at, u.username
	FROM posts p
	LEFT JOIN users u ON p.author_id = u.user_id`

// --- Posts ---

func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO posts (title, content, author_id, created_at)
		 VALUES ($1, $2, $3, CURRENT_TIMESTAMP) RETURNING post_id`,
		post.Title, post.Content, post.AuthorID,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("pgstore: inserting post: %w", err)
	}
	return nil
}

func (db *DB) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := scanPost(db.pool.QueryRow(ctx, postSelect+` WHERE p.post_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("pgstore: getting post %d: %w", id, err)
	}
	return post, nil
}

func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	rows, err := db.pool.Query(ctx,
		postSelect+` ORDER BY p.created_at DESC, p.post_id DESC LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("pgstore: listing posts: %w", err)
	}
	return collectPosts(rows)
}

func (db *DB) CountPosts(ctx context.Context) (int, error) {
	var total int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgstore: counting posts: %w", err)
	}
	return total, nil
}

func (db *DB) ListPostsByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	rows, err := db.pool.Query(ctx,
		postSelect+` WHERE p.author_id = $1 ORDER BY p.created_at DESC, p.post_id DESC`, authorID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: listing posts of user %d: %w", authorID, err)
	}
	return collectPosts(rows)
}

// DeletePostCascade runs both deletes in one transaction. The deferred
// Rollback is a no-op once Commit has succeeded.
func (db *DB) DeletePostCascade(ctx context.Context, id int64) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgstore: beginning delete of post %d: %w", id, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("pgstore: deleting comments of post %d: %w", id, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE post_id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgstore: deleting post %d: %w", id, err)
	}
	if err := affected(tag, fmt.Sprintf("deleting post %d", id)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgstore: committing delete of post %d: %w", id, err)
	}
	return nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var p model.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.AuthorName); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPosts(rows pgx.Rows) ([]model.Post, error) {
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore: scanning post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: iterating posts: %w", err)
	}
	return posts, nil
}

// --- Comments ---

func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO comments (content, post_id, author_id, created_at)
		 VALUES ($1, $2, $3, CURRENT_TIMESTAMP) RETURNING comment_id`,
		comment.Content, comment.PostID, comment.AuthorID,
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("pgstore: inserting comment on post %d: %w", comment.PostID, err)
	}
	return nil
}

func (db *DB) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	var c model.Comment
	err := db.pool.QueryRow(ctx,
		`SELECT comment_id, content, post_id, author_id, created_at
		 FROM comments WHERE comment_id = $1`, id,
	).Scan(&c.ID, &c.Content, &c.PostID, &c.AuthorID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("pgstore: getting comment %d: %w", id, err)
	}
	return &c, nil
}

func (db *DB) ListCommentsByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT c.comment_id, c.content, c.post_id, c.author_id, c.created_at, u.username
		 FROM comments c
		 LEFT JOIN users u ON c.author_id = u.user_id
		 WHERE c.post_id = $1
		 ORDER BY c.created_at DESC, c.comment_id DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: listing comments of post %d: %w", postID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.Content, &c.PostID, &c.AuthorID, &c.CreatedAt, &c.AuthorName); err != nil {
			return nil, fmt.Errorf("pgstore: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: iterating comments of post %d: %w", postID, err)
	}
	return comments, nil
}

func (db *DB) ListCommentsByAuthor(ctx context.Context, authorID int64) ([]model.Comment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT c.comment_id, c.content, c.post_id, c.author_id, c.created_at, p.title
		 FROM comments c
		 LEFT JOIN posts p ON c.post_id = p.post_id
		 WHERE c.author_id = $1
		 ORDER BY c.created_at DESC, c.comment_id DESC`, authorID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: listing comments of user %d: %w", authorID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.Content, &c.PostID, &c.AuthorID, &c.CreatedAt, &c.PostTitle); err != nil {
			return nil, fmt.Errorf("pgstore: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: iterating comments of user %d: %w", authorID, err)
	}
	return comments, nil
}

func (db *DB) DeleteComment(ctx context.Context, id int64) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM comments WHERE comment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgstore: deleting comment %d: %w", id, err)
	}
	return affected(tag, fmt.Sprintf("deleting comment %d", id))
}
