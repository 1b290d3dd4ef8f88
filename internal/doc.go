// Package internal documents the event listing server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, response rendering, and routing
// - domain: business logic and domain models
// - storage: the JSON file repository backing the event collection
// - uploads: event image ingestion
// - config, metrics, sanitize, validation: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
