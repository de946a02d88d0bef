package api

import (
	_ "embed"
	"net/http"
	"sync"

	"github.com/Togather-Foundation/books/internal/api/problem"
	"sigs.k8s.io/yaml"
)

//go:embed openapi.yaml
var openAPIYAML []byte

var (
	openAPIJSON    []byte
	openAPIJSONErr error
	openAPIOnce    sync.Once
)

func openAPIDocument() ([]byte, error) {
	openAPIOnce.Do(func() {
		openAPIJSON, openAPIJSONErr = yaml.YAMLToJSON(openAPIYAML)
	})
	return openAPIJSON, openAPIJSONErr
}

// OpenAPIHandler serves the embedded OpenAPI document converted to JSON.
func OpenAPIHandler(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := openAPIDocument()
		if err != nil {
			problem.ServerError.Write(w, r, err, env)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
	}
}
