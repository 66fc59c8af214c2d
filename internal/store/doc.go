// Package store persists the vault's relational records in SQLite and exposes
// the read and write surfaces the rest of msgvault builds on.
//
// The Store manages the database connection, schema initialization, busy
// retries, record inserts, batched deletes, and the kv table used for
// persisted metadata. Snapshot reads run inside a single read transaction via
// View so cross-referencing enumerations observe one consistent universe.
//
// Blob payloads never live in the database; rows carry filesystem paths into
// the blob directories and the janitor package reconciles the two sides.
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package store
