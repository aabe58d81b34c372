// Package service contains the forum's business rules.
//
// THE LAYERS:
//
//	Handler (HTTP)     → decodes requests, shapes JSON envelopes
//	Service (business) → validates, checks ownership, hashes passwords
//	Repository (data)  → parameterized SQL against the active store
//
// Services never see an *http.Request and never build an SQL string. They
// report failures as *apperror.AppError values; the handler layer turns
// those into status codes.
//
// ACQUIRE FIRST:
// Each operation begins by acquiring the store from the connection
// Manager, before any input validation. A client talking to a server with
// no database therefore always gets the "database connection failed"
// response, whatever it sent.
package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
)

// Input limits.
const (
	MaxUsernameLength = 50
	MinPasswordLength = 6
	MaxTitleLength    = 200

	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 20
)

// Acquirer hands out the shared store. *repository.Manager implements it.
type Acquirer interface {
	Acquire(ctx context.Context) (repository.Store, error)
}

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperror.ValidationFailed("username", "username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", apperror.ValidationFailed("username", "username must be 50 characters or fewer")
	}
	return username, nil
}

func validatePassword(field, password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperror.ValidationFailed(field, "password must be at least 6 characters")
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperror.ValidationFailed(field, "password must be 72 bytes or fewer")
	}
	return nil
}

// canDelete is the one authorization rule for destructive operations: an
// admin may delete anything, everyone else only their own content. An
// operator that does not exist has the zero role.
func canDelete(operatorID int64, operatorRole model.Role, owned bool) bool {
	return operatorRole == model.RoleAdmin || (operatorID > 0 && owned)
}

func isNoRows(err error) bool {
	return errors.Is(err, repository.ErrNoRowsAffected)
}
