package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
)

func TestPostList_Pagination(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "alice", model.RoleUser)
	for i := 1; i <= 12; i++ {
		f.post(t, author.ID, fmt.Sprintf("question %d", i))
	}
	ctx := context.Background()

	page, err := f.posts.List(ctx, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Posts, 2)
	// Same-second inserts fall back to id order, newest first.
	assert.Equal(t, "question 2", page.Posts[0].Title)
	assert.Equal(t, "question 1", page.Posts[1].Title)

	page, err = f.posts.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 12)
	assert.Equal(t, 1, page.TotalPages)

	page, err = f.posts.List(ctx, 9, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestPostList_EmptyHasZeroPages(t *testing.T) {
	f := newFixture(t)
	page, err := f.posts.List(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.TotalPages)
}

func TestPostList_RangeChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tc := range []struct{ page, limit int }{{0, 5}, {-1, 5}, {1, 0}, {1, 21}, {1, -3}} {
		_, err := f.posts.List(ctx, tc.page, tc.limit)
		assert.ErrorIs(t, err, apperror.ErrValidation, "page=%d limit=%d", tc.page, tc.limit)
	}
}

func TestPostList_PageOffsetOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// (page-1)*limit would wrap to a negative offset.
	_, err := f.posts.List(ctx, math.MaxInt/4+2, 4)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = f.posts.List(ctx, 461168601842738792, 20)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// The largest page whose offset still fits is accepted and simply empty.
	page, err := f.posts.List(ctx, math.MaxInt/4+1, 4)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestPostCreate(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "alice", model.RoleUser)
	ctx := context.Background()

	_, err := f.posts.Create(ctx, CreatePostInput{Content: "c", AuthorID: author.ID})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.posts.Create(ctx, CreatePostInput{Title: strings.Repeat("t", 201), Content: "c", AuthorID: author.ID})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.posts.Create(ctx, CreatePostInput{Title: "t", Content: "c", AuthorID: author.ID + 100})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	post, err := f.posts.Create(ctx, CreatePostInput{Title: "How do I X?", Content: "details", AuthorID: author.ID})
	require.NoError(t, err)

	got, err := f.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "How do I X?", got.Title)
	require.NotNil(t, got.AuthorName)
	assert.Equal(t, "alice", *got.AuthorName)

	_, err = f.posts.Get(ctx, post.ID+1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPostDelete_Authorization(t *testing.T) {
	tests := []struct {
		name     string
		operator string // "author", "other", "admin", "ghost"
		wantErr  error
	}{
		{"author deletes own post", "author", nil},
		{"admin deletes any post", "admin", nil},
		{"other user is forbidden", "other", apperror.ErrForbidden},
		{"unknown operator is forbidden", "ghost", apperror.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			author := f.register(t, "author", model.RoleUser)
			other := f.register(t, "other", model.RoleUser)
			admin := f.register(t, "admin", model.RoleAdmin)
			post := f.post(t, author.ID, "q")
			f.comment(t, post.ID, other.ID, "a1")
			f.comment(t, post.ID, author.ID, "a2")

			operators := map[string]int64{"author": author.ID, "other": other.ID, "admin": admin.ID, "ghost": admin.ID + 50}

			err := f.posts.Delete(ctx, post.ID, operators[tt.operator])
			comments, listErr := f.store.ListCommentsByPost(ctx, post.ID)
			require.NoError(t, listErr)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				_, getErr := f.store.GetPost(ctx, post.ID)
				assert.NoError(t, getErr, "post must survive")
				assert.Len(t, comments, 2, "comments must survive")
				return
			}

			require.NoError(t, err)
			_, getErr := f.store.GetPost(ctx, post.ID)
			assert.ErrorIs(t, getErr, apperror.ErrNotFound)
			assert.Empty(t, comments)
		})
	}
}

func TestPostDelete_MissingAndInvalid(t *testing.T) {
	f := newFixture(t)
	admin := f.register(t, "admin", model.RoleAdmin)
	ctx := context.Background()

	assert.ErrorIs(t, f.posts.Delete(ctx, 42, admin.ID), apperror.ErrNotFound)
	assert.ErrorIs(t, f.posts.Delete(ctx, 42, 0), apperror.ErrValidation)
}

func TestPostListByAuthor(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", model.RoleUser)
	bob := f.register(t, "bob", model.RoleUser)
	f.post(t, alice.ID, "a1")
	f.post(t, bob.ID, "b1")
	f.post(t, alice.ID, "a2")

	posts, err := f.posts.ListByAuthor(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a2", posts[0].Title)
	assert.Equal(t, "a1", posts[1].Title)
}
