// Package memory provides mutex-guarded in-process implementations of the
// repository interfaces. They enforce the same uniqueness rules as the
// Postgres schema and back development mode and tests.
package memory
