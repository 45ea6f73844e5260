package fn

import (
	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// AggKind enumerates the aggregate dispatcher's operations.
type AggKind int

const (
	AggSum AggKind = iota
	AggMean
	AggMin
	AggMax
	AggFirst
	AggFirstOrNull
)

func (k AggKind) String() string {
	switch k {
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggFirst:
		return "first"
	case AggFirstOrNull:
		return "first_or_null"
	}
	return "invalid"
}

// AggregateByName resolves a surface name to its kind.
func AggregateByName(name string) (AggKind, bool) {
	switch name {
	case "sum":
		return AggSum, true
	case "mean":
		return AggMean, true
	case "min":
		return AggMin, true
	case "max":
		return AggMax, true
	case "first":
		return AggFirst, true
	case "first_or_null":
		return AggFirstOrNull, true
	}
	return 0, false
}

// numeric reports whether the kind only reduces numeric elements.
func (k AggKind) numeric() bool {
	switch k {
	case AggSum, AggMean, AggMin, AggMax:
		return true
	}
	return false
}

// sqlFunc is the SQL aggregate the kind reduces with.
func (k AggKind) sqlFunc() string {
	switch k {
	case AggSum:
		return "sum"
	case AggMean:
		return "avg"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	}
	return ""
}

// resultType is the element type of the reduced value. Mean always
// comes back float so integer inputs can't truncate.
func (k AggKind) resultType(elem rel.Type) rel.Type {
	if k == AggMean {
		return rel.FloatType{}
	}
	return elem
}

// Sum reduces a numeric collection to its total.
func (c *Compiler) Sum(obj rel.Collection) (rel.Expr, error) {
	return c.aggregate(AggSum, obj, nil)
}

// Mean reduces a numeric collection to its average, always as float.
func (c *Compiler) Mean(obj rel.Collection) (rel.Expr, error) {
	return c.aggregate(AggMean, obj, nil)
}

// Min reduces a numeric collection to its smallest element.
func (c *Compiler) Min(obj rel.Collection) (rel.Expr, error) {
	return c.aggregate(AggMin, obj, nil)
}

// Max reduces a numeric collection to its largest element.
func (c *Compiler) Max(obj rel.Collection) (rel.Expr, error) {
	return c.aggregate(AggMax, obj, nil)
}

// First extracts the first element of a collection. The result must
// evaluate to exactly one row; emptiness is a cardinality error owned
// by the executor.
func (c *Compiler) First(obj rel.Collection) (rel.Expr, error) {
	return c.aggregate(AggFirst, obj, nil)
}

// FirstOrNull extracts the first element of a collection, or null when
// the collection is empty. It never fails on emptiness.
func (c *Compiler) FirstOrNull(obj rel.Collection) (rel.Expr, error) {
	return c.aggregate(AggFirstOrNull, obj, nil)
}

// Aggregate compiles the named reduction over obj, inferring the
// element type from the collection's single column.
func (c *Compiler) Aggregate(kind AggKind, obj rel.Collection) (rel.Expr, error) {
	return c.aggregate(kind, obj, nil)
}

// aggregate is the dispatcher. elem is the already-known element type
// when recursing into nested collections, nil at the surface.
//
// Dispatch rules:
//   - aggregation-ready column: emit the SQL aggregate call directly
//   - one-column relation: reduce it inside a scalar subquery
//   - nested collection: reduce every item independently, in order
//   - anything else: TypeError
func (c *Compiler) aggregate(kind AggKind, obj rel.Collection, elem rel.Type) (rel.Expr, error) {
	switch o := obj.(type) {
	case rel.Aggregate:
		t := elem
		if t == nil {
			t = o.Elem.Type
		}
		if kind == AggFirst || kind == AggFirstOrNull {
			// First wants the leading row of a relation; a bare
			// aggregation column has no row order to take it from.
			return rel.Expr{}, rel.NewTypeError(
				"%s doesn't support object of type '%s'", kind, t)
		}
		if err := checkElem(kind, t); err != nil {
			return rel.Expr{}, err
		}
		code := sqlgen.Join("",
			sqlgen.Raw(kind.sqlFunc()+"("), o.Elem.Code, sqlgen.Raw(")"))
		return rel.Expr{Code: code, Type: kind.resultType(t), State: rel.StateScalar}, nil

	case rel.ScalarColumn:
		lst, err := c.asListRelation(kind.String(), obj)
		if err != nil {
			return rel.Expr{}, err
		}
		t := elem
		if t == nil {
			t = lst.Type.Columns[0].Type
		}
		switch kind {
		case AggFirst:
			return c.firstOf(lst, t, rel.CardExactlyOne), nil
		case AggFirstOrNull:
			return c.firstOf(lst, t, rel.CardZeroOrOne), nil
		}
		if err := checkElem(kind, t); err != nil {
			return rel.Expr{}, err
		}
		return c.reduceRelation(kind.sqlFunc(), lst, kind.resultType(t)), nil

	case rel.NestedCollection:
		return c.aggregateNested(kind, o, elem)
	}
	return rel.Expr{}, rel.NewTypeError(
		"%s doesn't support object of type '%s'", kind, collectionType(obj))
}

// checkElem rejects non-numeric elements for the numeric reductions.
func checkElem(kind AggKind, t rel.Type) error {
	if kind.numeric() && !t.Numeric() {
		return rel.NewTypeError("%s expects numeric elements", kind)
	}
	return nil
}

// reduceRelation wraps an aggregate call over a one-column relation in
// a scalar subquery. Aggregates always produce exactly one row.
func (c *Compiler) reduceRelation(sqlFunc string, lst *rel.Relation, result rel.Type) rel.Expr {
	alias, from := c.embed(lst)
	code := sqlgen.Join("",
		sqlgen.Raw("(SELECT "+sqlFunc+"("+c.colRef(alias, rel.ListColumn)+") FROM "),
		from,
		sqlgen.Raw(")"),
	)
	return rel.Expr{Code: code, Type: result, State: rel.StateScalar, Card: rel.CardExactlyOne}
}

// firstOf takes the leading row of a one-column relation as a scalar
// subquery, tagged with the cardinality the caller expects.
func (c *Compiler) firstOf(lst *rel.Relation, t rel.Type, card rel.Cardinality) rel.Expr {
	alias, from := c.embed(lst)
	code := sqlgen.Join("",
		sqlgen.Raw("(SELECT "+c.colRef(alias, rel.ListColumn)+" FROM "),
		from,
		sqlgen.Raw(" LIMIT 1)"),
	)
	return rel.Expr{Code: code, Type: t, State: rel.StateScalar, Card: card}
}

// aggregateNested reduces each item of the sequence independently and
// collects the results, in item order, as a one-column relation. Each
// per-item result embeds as a scalar subquery, so an item that produces
// more than one row fails at evaluation time, not here.
func (c *Compiler) aggregateNested(kind AggKind, o rel.NestedCollection, elem rel.Type) (rel.Expr, error) {
	resultElem := kind.resultType(rel.UnknownType{})
	q := c.prof.Quote
	if len(o.Items) == 0 {
		code := sqlgen.Raw("SELECT NULL AS " + q(rel.ListColumn) + " LIMIT 0")
		return rel.Expr{
			Code:  code,
			Type:  rel.ListType{Elem: resultElem},
			State: rel.StateRelation,
		}, nil
	}

	selects := make([]sqlgen.Fragment, len(o.Items))
	for i, item := range o.Items {
		e, err := c.aggregate(kind, item, elem)
		if err != nil {
			return rel.Expr{}, err
		}
		sub := e.Code
		if e.State == rel.StateScalar && e.Card == rel.CardMany {
			// A bare aggregation expression needs a SELECT shell to
			// stand alone as a subquery.
			sub = sqlgen.Join("", sqlgen.Raw("(SELECT "), sub, sqlgen.Raw(")"))
		} else if e.State == rel.StateRelation {
			sub = sqlgen.Join("", sqlgen.Raw("("), sub, sqlgen.Raw(")"))
		}
		resultElem = scalarTypeOf(e)
		head := sqlgen.Raw("SELECT ")
		tail := sqlgen.Raw("")
		if i == 0 {
			tail = sqlgen.Raw(" AS " + q(rel.ListColumn))
		}
		selects[i] = sqlgen.Join("", head, sub, tail)
	}
	code := sqlgen.Join(" UNION ALL ", selects...)
	return rel.Expr{
		Code:  code,
		Type:  rel.ListType{Elem: resultElem},
		State: rel.StateRelation,
	}, nil
}

// scalarTypeOf is the element type an expression contributes when it is
// embedded as a scalar subquery.
func scalarTypeOf(e rel.Expr) rel.Type {
	if lt, ok := e.Type.(rel.ListType); ok {
		return lt.Elem
	}
	return e.Type
}
