// Package fn is the compilation layer: it turns high-level relational
// operations into typed, parameterized SQL expressions.
//
// A Compiler is bound to one dialect profile and hands out typed
// expression nodes. Almost everything here is a pure compilation step:
// build the fragment, tag it with a type, return it. The exceptions take
// an Executor because their algorithms need a number before they can
// finish compiling - sample sizing needs the table count, map_range
// needs eager min/max bounds, list_median needs the element count.
//
// Validation is eager throughout. An operation checks its inputs and
// returns a rel.Error before assembling any SQL, so a rejected call
// never emits a partial fragment. Cardinality expectations (exactly one
// row, zero or one row) are tagged on expressions and enforced by the
// executor at evaluation time, not here.
package fn
