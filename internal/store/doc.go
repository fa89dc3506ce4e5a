// Package store persists contacts in a relational database using sqlx.
//
// # Architecture
//
// All database access goes through the Store struct. It is handed an
// *sql.DB on construction, prepares the hot statements once, and offers
// one method per operation of the REST API:
//
//   - Create: insert a new contact and report it back with its id
//   - List: page through contacts, optionally narrowed by a search text
//   - Get: look up one contact by id
//   - Update: merge a partial change-set into a stored contact
//   - Delete: remove a contact and return its last state
//
// Update and Delete run inside a transaction because they read the stored
// contact before modifying it.
//
// # Error Handling
//
// Lookup misses are reported as ErrNotFound. Invalid input data is
// reported as *ValidationError with one message per rejected field.
// Anything else is a database error and is passed through unchanged.
//
// # Testing
//
// The unit tests run against a sqlmock database, so no MySQL server is
// needed for 'go test'. See internal/integrationtest for tests against a
// real database.
package store
