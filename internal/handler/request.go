package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/qaforum/internal/apperror"
)

// maxBodyBytes caps request bodies. The largest legitimate body is a post
// with a long content field.
const maxBodyBytes = 1 << 20

// ID is a numeric identifier in a JSON body. Browser clients send ids
// both as numbers and as numeric strings ("7"), so both decode. An
// absent field, null or "" decodes to 0, which every caller treats as
// missing.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*id = 0
			return nil
		}
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be an integer, got %s", b)
	}
	*id = ID(n)
	return nil
}

// decodeJSON reads r's body into dst. Unknown fields are rejected. An
// empty body leaves dst untouched, so required-field checks downstream
// produce the usual "missing" message.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "invalid JSON body: multiple values")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return id, nil
}

// queryID parses a required numeric query parameter.
func queryID(r *http.Request, name, missing string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, apperror.ValidationFailed(name, missing)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return id, nil
}

// queryIntDefault reads an optional integer query parameter. Missing,
// non-numeric and zero values all mean "use the default"; negative values
// are returned as-is for the caller to reject.
func queryIntDefault(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil || n == 0 {
		return def
	}
	return n
}
