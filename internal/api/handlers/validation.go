package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/parking-spot-keeper/backend/internal/api/middleware"
)

// maxBodyBytes caps request bodies read by the JSON handlers.
const maxBodyBytes = 1 << 16

// FieldError describes one invalid field of a request body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// fieldErrors collects the problems found while reading a request body.
type fieldErrors []FieldError

func (e *fieldErrors) add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

func (e fieldErrors) message() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s at %q", fe.Message, fe.Field)
	}
	return "Validation error: " + strings.Join(parts, "; ")
}

// write sends a 400 validation_error listing every field error.
func (e fieldErrors) write(w http.ResponseWriter) {
	middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, e.message(), []FieldError(e))
}

// decodeObject reads a JSON object body into its raw fields.
// An empty body decodes as an empty object.
func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decoding body: expected a JSON object")
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseInt reads raw as a whole JSON number.
func parseInt(raw json.RawMessage) (int64, string) {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, "Expected number"
	}
	if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, "Expected integer"
	}
	return int64(n), ""
}

// requiredInt reads a mandatory integer field.
func requiredInt(fields map[string]json.RawMessage, name string, errs *fieldErrors) int {
	raw, ok := fields[name]
	if !ok {
		errs.add(name, "Required")
		return 0
	}
	if isNull(raw) {
		errs.add(name, "Expected number, received null")
		return 0
	}
	n, problem := parseInt(raw)
	if problem != "" {
		errs.add(name, problem)
		return 0
	}
	return int(n)
}

// optionalID reads a nullable integer field.
func optionalID(fields map[string]json.RawMessage, name string, errs *fieldErrors) *int64 {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil
	}
	n, problem := parseInt(raw)
	if problem != "" {
		errs.add(name, problem)
		return nil
	}
	return &n
}

func optionalBool(fields map[string]json.RawMessage, name string, errs *fieldErrors) *bool {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var b bool
	if isNull(raw) || json.Unmarshal(raw, &b) != nil {
		errs.add(name, "Expected boolean")
		return nil
	}
	return &b
}

func optionalString(fields map[string]json.RawMessage, name string, errs *fieldErrors) *string {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		errs.add(name, "Expected string")
		return nil
	}
	return &s
}
