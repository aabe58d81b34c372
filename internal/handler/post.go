package handler

import (
	"net/http"

	"github.com/sakif/qaforum/internal/service"
)

// PostHandler serves the question endpoints under /api/posts.
type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type paginationDTO struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalPages  int `json:"totalPages"`
	TotalPosts  int `json:"totalPosts"`
}

// List handles GET /api/posts?page=&limit=
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryIntDefault(r, "page", service.DefaultPage)
	limit := queryIntDefault(r, "limit", service.DefaultLimit)

	res, err := h.posts.List(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "", map[string]any{
		"posts": newPostDTOs(res.Posts),
		"pagination": paginationDTO{
			CurrentPage: res.Page,
			PageSize:    res.Limit,
			TotalPages:  res.TotalPages,
			TotalPosts:  res.Total,
		},
	})
}

// Get handles GET /api/posts/{postId}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "postId")
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "", map[string]any{"post": newPostDTO(*post)})
}

type createPostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	AuthorID ID     `json:"author_id"`
}

// Create handles POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	_, err := h.posts.Create(r.Context(), service.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: int64(req.AuthorID),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "question published successfully", nil)
}

// deleteRequest is the body of both DELETE endpoints.
type deleteRequest struct {
	OperatorID ID `json:"operator_id"`
}

// Delete handles DELETE /api/posts/{postId}. The post's comments go
// with it.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "postId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req deleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.posts.Delete(r.Context(), id, int64(req.OperatorID)); err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "post and its comments deleted", nil)
}
