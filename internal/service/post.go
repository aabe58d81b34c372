package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
)

// PostService handles questions: paginated listing, lookup, publishing
// and deletion.
type PostService struct {
	stores Acquirer
	logger *slog.Logger
}

func NewPostService(stores Acquirer, logger *slog.Logger) *PostService {
	return &PostService{stores: stores, logger: logger}
}

// PostPage is one page of the post listing plus its pagination numbers.
type PostPage struct {
	Posts      []model.Post
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// List returns one page of posts, newest first. page and limit have
// already had their defaults applied by the caller; here they are only
// range checked.
func (s *PostService) List(ctx context.Context, page, limit int) (*PostPage, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, apperror.ValidationFailed("page", "page must not be less than 1")
	}
	if limit < 1 || limit > MaxLimit {
		return nil, apperror.ValidationFailed("limit", "limit must be between 1 and 20")
	}
	// The offset (page-1)*limit must fit in an int.
	if page-1 > math.MaxInt/limit {
		return nil, apperror.ValidationFailed("page", "page is too large")
	}

	posts, err := store.ListPosts(ctx, repository.ListOptions{Limit: limit, Offset: (page - 1) * limit})
	if err != nil {
		return nil, fmt.Errorf("service/post: %w", err)
	}
	total, err := store.CountPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/post: %w", err)
	}

	return &PostPage{
		Posts:      posts,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	post, err := store.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("post not found")
		}
		return nil, fmt.Errorf("service/post: %w", err)
	}
	return post, nil
}

type CreatePostInput struct {
	Title    string
	Content  string
	AuthorID int64
}

// Create publishes a post. The author must be an existing user; a missing
// author is reported as forbidden, not as not-found.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*model.Post, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Content) == "" || in.AuthorID <= 0 {
		return nil, apperror.ValidationFailed("", "title, content and author id are required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title", "title must be 200 characters or fewer")
	}

	if _, err := store.GetUserByID(ctx, in.AuthorID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Forbidden("current user does not exist, cannot publish")
		}
		return nil, fmt.Errorf("service/post: %w", err)
	}

	authorID := in.AuthorID
	post := &model.Post{Title: title, Content: in.Content, AuthorID: &authorID}
	if err := store.CreatePost(ctx, post); err != nil {
		if isNoRows(err) {
			return nil, apperror.Internal("publish failed, database write error", err)
		}
		return nil, fmt.Errorf("service/post: %w", err)
	}

	s.logger.Info("post created", slog.Int64("postID", post.ID), slog.Int64("authorID", authorID))
	return post, nil
}

// Delete removes a post and its comments on behalf of operatorID.
//
// The post lookup and the operator's role lookup are independent, so they
// run concurrently; both must finish before the authorization decision.
func (s *PostService) Delete(ctx context.Context, postID, operatorID int64) error {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return err
	}
	if postID <= 0 || operatorID <= 0 {
		return apperror.ValidationFailed("", "missing parameter: post id or operator id")
	}

	var (
		post *model.Post
		role model.Role
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := store.GetPost(gctx, postID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.NotFoundMessage("post not found")
			}
			return fmt.Errorf("service/post: %w", err)
		}
		post = p
		return nil
	})
	g.Go(func() error {
		r, err := operatorRole(gctx, store, operatorID)
		role = r
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if !canDelete(operatorID, role, post.OwnedBy(operatorID)) {
		return apperror.Forbidden("no permission to delete this post")
	}

	if err := store.DeletePostCascade(ctx, postID); err != nil {
		if isNoRows(err) {
			return apperror.Internal("delete failed: no post to delete", err)
		}
		return fmt.Errorf("service/post: %w", err)
	}

	s.logger.Info("post deleted",
		slog.Int64("postID", postID),
		slog.Int64("operatorID", operatorID),
		slog.String("operatorRole", string(role)),
	)
	return nil
}

// ListByAuthor returns every post written by userID, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, userID int64) ([]model.Post, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := store.ListPostsByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/post: %w", err)
	}
	return posts, nil
}

// operatorRole looks up the role of the user performing a delete. An
// unknown operator is not an error; it simply has no role.
func operatorRole(ctx context.Context, users repository.UserRepository, operatorID int64) (model.Role, error) {
	user, err := users.GetUserByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("service: looking up operator %d: %w", operatorID, err)
	}
	return user.Role, nil
}
