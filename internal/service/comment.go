package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
)

// CommentService handles answers attached to posts.
type CommentService struct {
	stores Acquirer
	logger *slog.Logger
}

func NewCommentService(stores Acquirer, logger *slog.Logger) *CommentService {
	return &CommentService{stores: stores, logger: logger}
}

// ListByPost returns every comment on postID, newest first. There is no
// pagination.
func (s *CommentService) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if postID <= 0 {
		return nil, apperror.ValidationFailed("postId", "post id is required")
	}

	comments, err := store.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("service/comment: %w", err)
	}
	return comments, nil
}

type CreateCommentInput struct {
	PostID   int64
	Content  string
	AuthorID int64
}

func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*model.Comment, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if in.PostID <= 0 || strings.TrimSpace(in.Content) == "" || in.AuthorID <= 0 {
		return nil, apperror.ValidationFailed("", "post id, content and author id are required")
	}

	authorID := in.AuthorID
	comment := &model.Comment{PostID: in.PostID, Content: in.Content, AuthorID: &authorID}
	if err := store.CreateComment(ctx, comment); err != nil {
		if isNoRows(err) {
			return nil, apperror.Internal("comment publish failed", err)
		}
		return nil, fmt.Errorf("service/comment: %w", err)
	}

	s.logger.Info("comment created",
		slog.Int64("commentID", comment.ID),
		slog.Int64("postID", comment.PostID),
		slog.Int64("authorID", authorID),
	)
	return comment, nil
}

// Delete removes one comment on behalf of operatorID, with the same rule
// as post deletion: admin, or the comment's own author.
func (s *CommentService) Delete(ctx context.Context, commentID, operatorID int64) error {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return err
	}
	if commentID <= 0 || operatorID <= 0 {
		return apperror.ValidationFailed("", "missing parameters: comment id or operator id")
	}

	var (
		comment *model.Comment
		role    model.Role
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := store.GetComment(gctx, commentID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.NotFoundMessage("comment not found")
			}
			return fmt.Errorf("service/comment: %w", err)
		}
		comment = c
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

	if !canDelete(operatorID, role, comment.OwnedBy(operatorID)) {
		return apperror.Forbidden("no permission to delete this comment")
	}

	if err := store.DeleteComment(ctx, commentID); err != nil {
		if isNoRows(err) {
			return apperror.Internal("comment delete failed", err)
		}
		return fmt.Errorf("service/comment: %w", err)
	}

	s.logger.Info("comment deleted", slog.Int64("commentID", commentID), slog.Int64("operatorID", operatorID))
	return nil
}

// ListByAuthor returns every comment written by userID with the title of
// the post it belongs to.
func (s *CommentService) ListByAuthor(ctx context.Context, userID int64) ([]model.Comment, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := store.ListCommentsByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/comment: %w", err)
	}
	return comments, nil
}
