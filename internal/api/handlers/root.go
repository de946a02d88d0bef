package handlers

import "net/http"

type rootResponse struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
	OpenAPI string `json:"openapi"`
	Books   string `json:"books"`
}

// Root greets API clients and points them at the documentation.
func Root() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rootResponse{
			Message: "Добро пожаловать в Books API!",
			Docs:    "/docs",
			OpenAPI: "/openapi.json",
			Books:   "/api/books",
		})
	})
}
