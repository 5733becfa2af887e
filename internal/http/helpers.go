package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// requestError marks failures caused by an unreadable request.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return "bad request: " + e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

// decodePayload validates the body against the named schema and decodes it
// into target. An empty body is validated as an empty object.
func decodePayload(r *http.Request, schema string, target any) error {
	if r == nil || r.Body == nil {
		return validation.ValidatePayload(schema, map[string]any{})
	}
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return &requestError{err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return validation.ValidatePayload(schema, map[string]any{})
	}

	var document any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return &requestError{err: err}
	}
	if err := validation.ValidatePayload(schema, document); err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &requestError{err: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, payload)
}

// mapError returns the status and body for err. A nil body means the
// response carries no content.
func mapError(err error) (int, any) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "internal_error"}
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidLanguage) {
		return http.StatusNotFound, nil
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, verr.Fields
	}
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: reqErr.Error()}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal_error"}
}

func parseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("uuid required")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, err
	}
	return parsed, nil
}

// parsePage reads ?page=N. Missing or malformed values mean the first page.
func parsePage(r *http.Request) int {
	value := strings.TrimSpace(r.URL.Query().Get("page"))
	if value == "" {
		return 1
	}
	page, err := strconv.Atoi(value)
	if err != nil {
		return 1
	}
	return page
}

// pathID parses the {id} route parameter. Ids that are not UUIDs cannot name
// a record, so they map to not found.
func pathID(raw string, resource string) (uuid.UUID, error) {
	id, err := parseUUID(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.NewNotFound(resource, raw), err)
	}
	return id, nil
}
