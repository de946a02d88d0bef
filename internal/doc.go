// Package internal documents the Books API server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem documents, and routing
// - domain/books: the book model, validation, filters, and service
// - storage/postgres: pgx repository and embedded migrations
// - auth, config, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
