package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
	"github.com/sakif/qaforum/internal/repository/sqlstore"
)

// =========================================================================
// FIXTURE
// =========================================================================
//
// Services are tested against a real in-memory SQLite store behind a real
// Manager, so every query the services issue is actually executed.

type fixture struct {
	store    repository.Store
	users    *UserService
	posts    *PostService
	comments *CommentService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mgr := repository.NewManager(func(ctx context.Context) (repository.Store, error) {
		db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: ":memory:"})
		if err != nil {
			return nil, err
		}
		return db, nil
	}, discardLogger())
	t.Cleanup(func() { mgr.Close() })

	store, err := mgr.Acquire(context.Background())
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("service-test-secret-0123", 0)
	require.NoError(t, err)

	return &fixture{
		store:    store,
		users:    NewUserService(mgr, auth.NewPasswordService(bcrypt.MinCost), tokens, discardLogger()),
		posts:    NewPostService(mgr, discardLogger()),
		comments: NewCommentService(mgr, discardLogger()),
	}
}

func (f *fixture) register(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), RegisterInput{Username: username, Password: "secret1", Role: string(role)})
	require.NoError(t, err)
	return user
}

func (f *fixture) post(t *testing.T, authorID int64, title string) *model.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), CreatePostInput{Title: title, Content: "content of " + title, AuthorID: authorID})
	require.NoError(t, err)
	return post
}

func (f *fixture) comment(t *testing.T, postID, authorID int64, content string) *model.Comment {
	t.Helper()
	comment, err := f.comments.Create(context.Background(), CreateCommentInput{PostID: postID, Content: content, AuthorID: authorID})
	require.NoError(t, err)
	return comment
}

// downAcquirer simulates a database that cannot be reached.
type downAcquirer struct{}

func (downAcquirer) Acquire(context.Context) (repository.Store, error) {
	return nil, apperror.Unavailable(errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"))
}

// =========================================================================
// CONNECTION CHECK COMES FIRST
// =========================================================================

func TestServices_UnavailableBeforeValidation(t *testing.T) {
	ctx := context.Background()
	users := NewUserService(downAcquirer{}, auth.NewPasswordService(bcrypt.MinCost), nil, discardLogger())
	posts := NewPostService(downAcquirer{}, discardLogger())
	comments := NewCommentService(downAcquirer{}, discardLogger())

	// Every input here is also invalid; the unavailable error must win.
	calls := map[string]func() error{
		"register":        func() error { _, err := users.Register(ctx, RegisterInput{}); return err },
		"login":           func() error { _, err := users.Login(ctx, LoginInput{}); return err },
		"role":            func() error { _, err := users.Role(ctx, 0); return err },
		"change username": func() error { return users.ChangeUsername(ctx, 1, 2, "") },
		"change password": func() error { return users.ChangePassword(ctx, 1, 2, "", "") },
		"list posts":      func() error { _, err := posts.List(ctx, 0, 0); return err },
		"get post":        func() error { _, err := posts.Get(ctx, 1); return err },
		"create post":     func() error { _, err := posts.Create(ctx, CreatePostInput{}); return err },
		"delete post":     func() error { return posts.Delete(ctx, 0, 0) },
		"posts by author": func() error { _, err := posts.ListByAuthor(ctx, 1); return err },
		"list comments":   func() error { _, err := comments.ListByPost(ctx, 0); return err },
		"create comment":  func() error { _, err := comments.Create(ctx, CreateCommentInput{}); return err },
		"delete comment":  func() error { return comments.Delete(ctx, 0, 0) },
		"comments by author": func() error {
			_, err := comments.ListByAuthor(ctx, 1)
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.ErrorIs(t, err, apperror.ErrUnavailable)
			require.NotContains(t, err.Error(), "connection refused")
		})
	}
}

func TestCanDelete(t *testing.T) {
	tests := []struct {
		name       string
		operatorID int64
		role       model.Role
		owned      bool
		want       bool
	}{
		{"admin on others", 1, model.RoleAdmin, false, true},
		{"admin on own", 1, model.RoleAdmin, true, true},
		{"user on own", 2, model.RoleUser, true, true},
		{"user on others", 2, model.RoleUser, false, false},
		{"unknown operator matching author", 9, "", true, true},
		{"unknown operator", 9, "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canDelete(tt.operatorID, tt.role, tt.owned); got != tt.want {
				t.Errorf("canDelete() = %v, want %v", got, tt.want)
			}
		})
	}
}
