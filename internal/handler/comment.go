package handler

import (
	"net/http"

	"github.com/sakif/qaforum/internal/service"
)

// CommentHandler serves the answer endpoints under /api/comments.
type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// List handles GET /api/comments?postId=
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, err := queryID(r, "postId", "post id is required")
	if err != nil {
		writeError(w, err)
		return
	}

	comments, err := h.comments.ListByPost(r.Context(), postID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "", map[string]any{"comments": newCommentDTOs(comments)})
}

type createCommentRequest struct {
	PostID   ID     `json:"post_id"`
	Content  string `json:"content"`
	AuthorID ID     `json:"author_id"`
}

// Create handles POST /api/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	_, err := h.comments.Create(r.Context(), service.CreateCommentInput{
		PostID:   int64(req.PostID),
		Content:  req.Content,
		AuthorID: int64(req.AuthorID),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "comment published successfully", nil)
}

// Delete handles DELETE /api/comments/{commentId}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "commentId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req deleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.comments.Delete(r.Context(), id, int64(req.OperatorID)); err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "comment deleted", nil)
}
