// Package rel defines the typed expression model the compilation layer
// works over.
//
// This package contains type and value definitions only. Every other
// internal package imports rel (directly or through its fragments); rel
// itself imports nothing internal except sqlgen, whose Fragment type it
// embeds. That keeps rel the foundational layer with no cycles.
//
// The model mirrors how expressions move through compilation:
//
//   - Type describes what a compiled expression evaluates to. The tree is
//     sealed: scalar kinds, nulltype, list and table shapes, and unknown.
//   - Expr is a SQL-renderable expression annotated with its Type, an
//     aggregation-state tag and a cardinality expectation.
//   - Collection is the sealed union of aggregation inputs: an
//     aggregation-ready column, a relation viewed through one column, or
//     an ordered nesting of further collections.
//   - Error carries the compilation error taxonomy. Every operation
//     validates eagerly and returns one of these before any SQL for the
//     operation is assembled.
//
// Expr and Relation values are plain data, freely shared and copied.
// Nothing here mutates after construction.
package rel
