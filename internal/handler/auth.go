package handler

import (
	"net/http"

	"github.com/sakif/qaforum/internal/service"
)

// AuthHandler serves registration and login.
//
//   - Register → POST /api/register
//   - Login    → POST /api/login
type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates an account. The client is expected to log in
// afterwards; registration does not start a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	_, err := h.users.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, "registration successful, please log in", nil)
}

type loginResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	User    userDTO `json:"user"`
	Token   string  `json:"token,omitempty"`
}

// Login verifies credentials and returns the user record. The password
// hash never leaves the service layer. token is present only when the
// server has a JWT secret.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.users.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "login successful",
		User:    newUserDTO(res.User),
		Token:   res.Token,
	})
}
