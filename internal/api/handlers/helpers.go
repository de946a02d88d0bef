package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

const contentTypeJSON = "application/json"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

var errInvalidID = errors.New("id must be a positive integer")

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(pathParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// bodyError classifies a failed JSON decode.
type bodyError struct {
	status int
	field  string
	msg    string
}

func (e *bodyError) Error() string {
	if e.field != "" {
		return e.field + ": " + e.msg
	}
	return e.msg
}

// decodeJSON reads exactly one JSON value from the request body into dst.
// Oversized bodies map to 413, malformed JSON to 400 and values of the wrong
// type to 422.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return classifyDecodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &bodyError{status: http.StatusBadRequest, msg: "request body must contain a single JSON object"}
	}
	return nil
}

func classifyDecodeError(err error) error {
	var (
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxErr):
		return &bodyError{status: http.StatusRequestEntityTooLarge, msg: fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit)}
	case errors.Is(err, io.EOF):
		return &bodyError{status: http.StatusBadRequest, msg: "request body is required"}
	case errors.As(err, &syntaxErr):
		return &bodyError{status: http.StatusBadRequest, msg: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &bodyError{status: http.StatusBadRequest, msg: "malformed JSON"}
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return &bodyError{status: http.StatusBadRequest, msg: "request body must be a JSON object"}
		}
		return &bodyError{status: http.StatusUnprocessableEntity, field: typeErr.Field, msg: "must be " + describeKind(typeErr.Type)}
	default:
		return &bodyError{status: http.StatusBadRequest, msg: strings.TrimPrefix(err.Error(), "json: ")}
	}
}

func describeKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.String:
		return "a string"
	default:
		return "a " + t.Kind().String()
	}
}
