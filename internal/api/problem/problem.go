package problem

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// ProblemDetails is an RFC 7807 error document.
type ProblemDetails struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

// Kind groups the status, type URI and title of one class of problem.
type Kind struct {
	Status int
	Type   string
	Title  string
}

var (
	BadRequest         = Kind{http.StatusBadRequest, "/problems/bad-request", "Bad request"}
	Forbidden          = Kind{http.StatusForbidden, "/problems/forbidden", "Forbidden"}
	NotFound           = Kind{http.StatusNotFound, "/problems/not-found", "Not found"}
	MethodNotAllowed   = Kind{http.StatusMethodNotAllowed, "/problems/method-not-allowed", "Method not allowed"}
	PayloadTooLarge    = Kind{http.StatusRequestEntityTooLarge, "/problems/payload-too-large", "Request body too large"}
	ValidationFailed   = Kind{http.StatusUnprocessableEntity, "/problems/validation-error", "Validation failed"}
	TooManyRequests    = Kind{http.StatusTooManyRequests, "/problems/rate-limited", "Too many requests"}
	ServerError        = Kind{http.StatusInternalServerError, "/problems/server-error", "Internal server error"}
	ServiceUnavailable = Kind{http.StatusServiceUnavailable, "/problems/unavailable", "Service unavailable"}
)

// Write renders the problem with err as the cause.
func (k Kind) Write(w http.ResponseWriter, r *http.Request, err error, env string, opts ...Option) {
	Write(w, r, k.Status, k.Type, k.Title, err, env, opts...)
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

func WithInstance(instance string) Option {
	return func(p *ProblemDetails) {
		p.Instance = instance
	}
}

func WithErrors(errs map[string]any) Option {
	return func(p *ProblemDetails) {
		p.Errors = errs
	}
}

// Write renders a problem document. Without an explicit detail, client
// errors expose err's message; server errors only do so in development and
// test environments.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	problem := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	for _, opt := range opts {
		opt(&problem)
	}

	if problem.Detail == "" && err != nil {
		if status < http.StatusInternalServerError || env == "development" || env == "test" {
			problem.Detail = err.Error()
		} else {
			problem.Detail = http.StatusText(status)
		}
	}

	if problem.Instance == "" && r != nil {
		problem.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	WriteProblem(w, problem)
}

func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	payload, err := json.Marshal(problem)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}
