package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/service"
)

// UserHeader names the caller-supplied current user. Its value is not
// verified; see currentUserID.
const UserHeader = "X-User-Id"

// UserHandler serves the personal-centre endpoints.
type UserHandler struct {
	users    *service.UserService
	posts    *service.PostService
	comments *service.CommentService
}

func NewUserHandler(users *service.UserService, posts *service.PostService, comments *service.CommentService) *UserHandler {
	return &UserHandler{users: users, posts: posts, comments: comments}
}

// currentUserID resolves who is asking. The X-User-Id header wins when
// present; otherwise a verified bearer token (placed in the context by
// auth.OptionalAuth) supplies the id.
func currentUserID(r *http.Request) (int64, error) {
	if raw := strings.TrimSpace(r.Header.Get(UserHeader)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return 0, apperror.ValidationFailed(UserHeader, "invalid "+UserHeader+" header")
		}
		return id, nil
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return id.UserID, nil
	}
	return 0, apperror.Unauthorized("please log in first")
}

// Role handles GET /api/user/role?user_id=
func (h *UserHandler) Role(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "user_id", "user id is required")
	if err != nil {
		writeError(w, err)
		return
	}

	role, err := h.users.Role(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "", map[string]string{"role": string(role)})
}

// Posts handles GET /api/user/posts
func (h *UserHandler) Posts(w http.ResponseWriter, r *http.Request) {
	id, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	posts, err := h.posts.ListByAuthor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "", map[string]any{"posts": newUserPostDTOs(posts)})
}

// Comments handles GET /api/user/comments
func (h *UserHandler) Comments(w http.ResponseWriter, r *http.Request) {
	id, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	comments, err := h.comments.ListByAuthor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "", map[string]any{"comments": newUserCommentDTOs(comments)})
}

type changeUsernameRequest struct {
	NewUsername string `json:"new_username"`
	UserID      ID     `json:"user_id"`
}

// ChangeUsername handles PUT /api/users/{id}/username
func (h *UserHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req changeUsernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.ChangeUsername(r.Context(), id, int64(req.UserID), req.NewUsername); err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "username updated", nil)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
	UserID      ID     `json:"user_id"`
}

// ChangePassword handles PUT /api/users/{id}/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	err = h.users.ChangePassword(r.Context(), id, int64(req.UserID), req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "password updated", nil)
}
