// Package exec evaluates compiled relations and expressions against a
// live database connection.
//
// The compiler layers are pure; everything that actually touches a
// connection lives here. A DB pins a single connection so that
// session-local state, in particular the temporary tables backing
// materialized snapshots, stays visible across statements.
package exec
