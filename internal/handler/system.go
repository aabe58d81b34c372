package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sakif/qaforum/internal/timestamp"
)

// Endpoints lists every route of the API in "METHOD path" form. It is
// returned by the diagnostic and fallback responses.
var Endpoints = []string{
	"GET /api/test",
	"POST /api/register",
	"POST /api/login",
	"GET /api/posts",
	"GET /api/posts/{postId}",
	"POST /api/posts",
	"DELETE /api/posts/{postId}",
	"GET /api/comments",
	"POST /api/comments",
	"DELETE /api/comments/{commentId}",
	"GET /api/user/role",
	"GET /api/user/posts",
	"GET /api/user/comments",
	"PUT /api/users/{id}/username",
	"PUT /api/users/{id}/password",
}

// Pinger reports whether the database answers. *repository.Manager
// implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the diagnostic endpoint and the JSON fallbacks for
// unknown routes and methods.
type SystemHandler struct {
	db  Pinger
	now func() time.Time
}

func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{db: db, now: time.Now}
}

type diagnosticResponse struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	Database      string   `json:"database"`
	AvailableAPIs []string `json:"availableAPIs"`
	MockDBTime    string   `json:"mockDbTime"`
	FixedTime     string   `json:"fixedTime"`
}

// Test handles GET /api/test. It always answers 200; the database field
// says whether the store could be reached.
//
// mockDbTime is today at 18:30:00 as the driver hands a stored value over
// (wall clock labelled UTC). fixedTime is that value after normalization
// and must read 18:30:00 again.
func (h *SystemHandler) Test(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if err := h.db.Ping(r.Context()); err != nil {
		database = "unavailable"
	}

	now := h.now().In(timestamp.Zone)
	mock := time.Date(now.Year(), now.Month(), now.Day(), 18, 30, 0, 0, time.UTC)

	writeJSON(w, http.StatusOK, diagnosticResponse{
		Status:        "success",
		Message:       "server is running",
		Database:      database,
		AvailableAPIs: Endpoints,
		MockDBTime:    mock.Format(timestamp.Layout),
		FixedTime:     timestamp.Normalize(&mock),
	})
}

type fallbackResponse struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	Tip           string   `json:"tip"`
	AvailableAPIs []string `json:"availableAPIs"`
}

// NotFound answers requests no route matched.
func (h *SystemHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, fallbackResponse{
		Message:       fmt.Sprintf("endpoint not found: %s %s", r.Method, r.URL.RequestURI()),
		Tip:           "check the URL spelling",
		AvailableAPIs: Endpoints,
	})
}

// MethodNotAllowed answers a known path requested with the wrong method.
func (h *SystemHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, fallbackResponse{
		Message:       fmt.Sprintf("method not allowed: %s %s", r.Method, r.URL.RequestURI()),
		Tip:           "check the HTTP method",
		AvailableAPIs: Endpoints,
	})
}
