// Package repository declares the storage contracts used by the service
// layer and owns the shared connection Manager. Concrete stores live in the
// sqlstore (SQLite, MySQL) and pgstore (PostgreSQL) sub-packages.
package repository

import (
	"context"
	"errors"

	"github.com/sakif/qaforum/internal/model"
)

// ErrNoRowsAffected is returned when a write statement succeeded but
// touched no row. Services decide what that means for each operation.
var ErrNoRowsAffected = errors.New("no rows affected")

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUsername(ctx context.Context, id int64, username string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]model.Post, error)
	CountPosts(ctx context.Context) (int, error)
	ListPostsByAuthor(ctx context.Context, authorID int64) ([]model.Post, error)
	// DeletePostCascade removes the post and all of its comments in one
	// transaction. Nothing is removed unless the post row itself is.
	DeletePostCascade(ctx context.Context, id int64) error
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id int64) (*model.Comment, error)
	ListCommentsByPost(ctx context.Context, postID int64) ([]model.Comment, error)
	ListCommentsByAuthor(ctx context.Context, authorID int64) ([]model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// Store is one open connection pool exposing every repository.
type Store interface {
	UserRepository
	PostRepository
	CommentRepository
	Ping(ctx context.Context) error
	Close() error
}
