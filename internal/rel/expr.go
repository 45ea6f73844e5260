package rel

import "github.com/roach88/trellis/internal/sqlgen"

// AggState tags where an expression stands relative to aggregation.
type AggState int

const (
	// StateScalar is a single value: a literal, a bare column reference,
	// or a scalar subquery.
	StateScalar AggState = iota

	// StateAggregate is a column expression ready to be reduced by a SQL
	// aggregate call, e.g. the normalized form of a one-column relation.
	StateAggregate

	// StateRelation is a row-producing expression, zero or more rows.
	StateRelation
)

func (s AggState) String() string {
	switch s {
	case StateScalar:
		return "scalar"
	case StateAggregate:
		return "aggregate"
	case StateRelation:
		return "relation"
	}
	return "invalid"
}

// Cardinality is the row-count expectation attached to an expression.
// The compiler never enforces it; the executor does, at evaluation time.
type Cardinality int

const (
	// CardMany places no expectation on the row count.
	CardMany Cardinality = iota

	// CardExactlyOne requires exactly one row; anything else is a
	// cardinality error at the executor.
	CardExactlyOne

	// CardZeroOrOne tolerates absence: zero rows evaluate to null,
	// more than one row is a cardinality error at the executor.
	CardZeroOrOne
)

// Expr is a SQL-renderable expression with its declared element type.
// Exprs are value-like: freely shared and copied, never mutated.
type Expr struct {
	Code  sqlgen.Fragment
	Type  Type
	State AggState
	Card  Cardinality
}

// Relation is a named row source: a base table or a derived subquery.
// Code holds the full SELECT producing its rows; Name is the alias the
// relation is referenced by when embedded in a larger query.
type Relation struct {
	Name string
	Type TableType
	Code sqlgen.Fragment
}

// Column returns the named column, or false if the relation lacks it.
func (r *Relation) Column(name string) (Column, bool) {
	return r.Type.Column(name)
}

// IntVal returns an int literal expression bound as a parameter.
func IntVal(v int64) Expr {
	return Expr{Code: sqlgen.Param(v), Type: IntType{}}
}

// FloatVal returns a float literal expression bound as a parameter.
func FloatVal(v float64) Expr {
	return Expr{Code: sqlgen.Param(v), Type: FloatType{}}
}

// StringVal returns a string literal expression bound as a parameter.
func StringVal(v string) Expr {
	return Expr{Code: sqlgen.Param(v), Type: StringType{}}
}

// BoolVal returns a bool literal expression bound as a parameter.
func BoolVal(v bool) Expr {
	return Expr{Code: sqlgen.Param(v), Type: BoolType{}}
}

// NullVal returns a typed null literal.
func NullVal() Expr {
	return Expr{Code: sqlgen.Raw("NULL"), Type: NullType{}}
}
