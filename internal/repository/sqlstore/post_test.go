package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
)

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreatePost_AndGet(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "writer", model.RoleUser)
	created := createTestPost(t, db, "How do channels work?", author.ID)

	if created.ID == 0 {
		t.Fatal("CreatePost() did not set post.ID")
	}

	found, err := db.GetPost(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if found.Title != "How do channels work?" {
		t.Errorf("Title = %q", found.Title)
	}
	if found.AuthorName == nil || *found.AuthorName != "writer" {
		t.Errorf("AuthorName = %v, want writer", found.AuthorName)
	}
	if !found.OwnedBy(author.ID) {
		t.Error("post should be owned by its author")
	}
	if found.CreatedAt == nil {
		t.Error("CreatedAt should be set by the database")
	}
}

func TestGetPost_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetPost(context.Background(), 12345)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPost() error = %v, want ErrNotFound", err)
	}
}

func TestGetPost_NullAuthor(t *testing.T) {
	db := newTestDB(t)

	post := &model.Post{Title: "orphan", Content: "no author"}
	if err := db.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	found, err := db.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if found.AuthorID != nil || found.AuthorName != nil {
		t.Errorf("author = (%v, %v), want (nil, nil)", found.AuthorID, found.AuthorName)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListPosts_Pagination(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "prolific", model.RoleUser)

	var ids []int64
	for i := 1; i <= 12; i++ {
		ids = append(ids, createTestPost(t, db, fmt.Sprintf("post %d", i), author.ID).ID)
	}

	page, err := db.ListPosts(context.Background(), repository.ListOptions{Limit: 5, Offset: 0})
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(page) != 5 {
		t.Fatalf("len(page) = %d, want 5", len(page))
	}
	// Newest first: the last post inserted leads the first page.
	for i, p := range page {
		want := ids[len(ids)-1-i]
		if p.ID != want {
			t.Errorf("page[%d].ID = %d, want %d", i, p.ID, want)
		}
	}

	last, err := db.ListPosts(context.Background(), repository.ListOptions{Limit: 5, Offset: 10})
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(last) != 2 {
		t.Errorf("len(last page) = %d, want 2", len(last))
	}

	total, err := db.CountPosts(context.Background())
	if err != nil {
		t.Fatalf("CountPosts() error = %v", err)
	}
	if total != 12 {
		t.Errorf("CountPosts() = %d, want 12", total)
	}
}

func TestListPosts_Empty(t *testing.T) {
	db := newTestDB(t)

	posts, err := db.ListPosts(context.Background(), repository.ListOptions{Limit: 5})
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("len(posts) = %d, want 0", len(posts))
	}
}

func TestListPostsByAuthor(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice", model.RoleUser)
	bob := createTestUser(t, db, "bob", model.RoleUser)
	createTestPost(t, db, "a1", alice.ID)
	createTestPost(t, db, "b1", bob.ID)
	createTestPost(t, db, "a2", alice.ID)

	posts, err := db.ListPostsByAuthor(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListPostsByAuthor() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(posts))
	}
	if posts[0].Title != "a2" || posts[1].Title != "a1" {
		t.Errorf("titles = [%s %s], want [a2 a1]", posts[0].Title, posts[1].Title)
	}
}

// =========================================================================
// CASCADE DELETE TESTS
// =========================================================================

func countComments(t *testing.T, db *DB, postID int64) int {
	t.Helper()
	var n int
	err := db.conn.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&n)
	if err != nil {
		t.Fatalf("counting comments: %v", err)
	}
	return n
}

func TestDeletePostCascade(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author", model.RoleUser)
	post := createTestPost(t, db, "doomed", author.ID)
	keep := createTestPost(t, db, "survivor", author.ID)
	for i := 0; i < 3; i++ {
		createTestComment(t, db, post.ID, author.ID, fmt.Sprintf("c%d", i))
	}
	createTestComment(t, db, keep.ID, author.ID, "stays")

	if err := db.DeletePostCascade(context.Background(), post.ID); err != nil {
		t.Fatalf("DeletePostCascade() error = %v", err)
	}

	if _, err := db.GetPost(context.Background(), post.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPost() after delete error = %v, want ErrNotFound", err)
	}
	if n := countComments(t, db, post.ID); n != 0 {
		t.Errorf("comments left on deleted post = %d, want 0", n)
	}
	if n := countComments(t, db, keep.ID); n != 1 {
		t.Errorf("comments on other post = %d, want 1", n)
	}
}

func TestDeletePostCascade_MissingPostRollsBack(t *testing.T) {
	db := newTestDB(t)

	err := db.DeletePostCascade(context.Background(), 777)
	if !errors.Is(err, repository.ErrNoRowsAffected) {
		t.Errorf("DeletePostCascade() error = %v, want ErrNoRowsAffected", err)
	}
}

// TestDeletePostCascade_FailureLeavesTablesUnchanged simulates a failure
// between the two DELETE statements with a trigger that aborts the post
// delete. The comment delete that already ran must be rolled back.
func TestDeletePostCascade_FailureLeavesTablesUnchanged(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author", model.RoleUser)
	post := createTestPost(t, db, "protected", author.ID)
	createTestComment(t, db, post.ID, author.ID, "one")
	createTestComment(t, db, post.ID, author.ID, "two")

	_, err := db.conn.ExecContext(context.Background(), `
		CREATE TRIGGER fail_post_delete BEFORE DELETE ON posts
		BEGIN
			SELECT RAISE(ABORT, 'simulated failure');
		END`)
	if err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	if err := db.DeletePostCascade(context.Background(), post.ID); err == nil {
		t.Fatal("DeletePostCascade() should fail when the post delete aborts")
	}

	if _, err := db.GetPost(context.Background(), post.ID); err != nil {
		t.Errorf("post should still exist, GetPost() error = %v", err)
	}
	if n := countComments(t, db, post.ID); n != 2 {
		t.Errorf("comments after failed delete = %d, want 2", n)
	}
}
