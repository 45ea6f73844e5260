package fn

import (
	"context"
	"fmt"

	"github.com/roach88/trellis/internal/dialect"
	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// Executor runs compiled expressions eagerly. The handful of operations
// that need a concrete number mid-compilation (sample sizing, range
// bounds, median offsets) consume this; everything else stays pure.
type Executor interface {
	// Count evaluates SELECT count(*) over the relation.
	Count(ctx context.Context, r *rel.Relation) (int64, error)

	// IntScalar evaluates a scalar expression to a single int.
	// ok is false when the result is absent or null.
	IntScalar(ctx context.Context, e rel.Expr) (int64, bool, error)

	// Materialize snapshots the relation's rows into a session-scoped
	// temporary table and returns a relation reading from it. Volatile
	// expressions (random draws) are evaluated once by the snapshot.
	Materialize(ctx context.Context, r *rel.Relation) (*rel.Relation, error)
}

// Compiler compiles operations against one dialect profile.
//
// A Compiler is safe for concurrent use: the profile is immutable and
// alias generation is atomic. Compilations that run concurrently get
// distinct aliases and share nothing else.
type Compiler struct {
	prof    dialect.Profile
	aliases *sqlgen.Aliases
}

// New returns a Compiler bound to the given dialect profile.
func New(prof dialect.Profile) *Compiler {
	return &Compiler{prof: prof, aliases: &sqlgen.Aliases{}}
}

// Profile returns the dialect profile the compiler is bound to.
func (c *Compiler) Profile() dialect.Profile {
	return c.prof
}

// Table returns a relation reading every column of a base table.
func (c *Compiler) Table(name string, cols ...rel.Column) *rel.Relation {
	q := c.prof.Quote
	sel := ""
	for i, col := range cols {
		if i > 0 {
			sel += ", "
		}
		sel += q(col.Name)
	}
	code := sqlgen.Raw(fmt.Sprintf("SELECT %s FROM %s", sel, q(name)))
	return &rel.Relation{
		Name: name,
		Type: rel.TableType{Columns: cols},
		Code: code,
	}
}

// List compiles an in-memory sequence of expressions into a one-column
// relation named "value". All items must share the declared element
// type; the empty list is legal and produces no rows.
func (c *Compiler) List(elem rel.Type, items ...rel.Expr) (*rel.Relation, error) {
	for _, it := range items {
		if it.Type.String() != elem.String() {
			return nil, rel.NewTypeError(
				"list of %s can't hold an element of type '%s'", elem, it.Type)
		}
	}
	q := c.prof.Quote
	name := c.aliases.Next("list")
	if len(items) == 0 {
		code := sqlgen.Raw(fmt.Sprintf("SELECT NULL AS %s LIMIT 0", q(rel.ListColumn)))
		return &rel.Relation{Name: name, Type: rel.ListTable(elem), Code: code}, nil
	}
	selects := make([]sqlgen.Fragment, len(items))
	for i, it := range items {
		head := "SELECT "
		tail := ""
		if i == 0 {
			tail = " AS " + q(rel.ListColumn)
		}
		selects[i] = sqlgen.Join("", sqlgen.Raw(head), it.Code, sqlgen.Raw(tail))
	}
	code := sqlgen.Join(" UNION ALL ", selects...)
	return &rel.Relation{Name: name, Type: rel.ListTable(elem), Code: code}, nil
}

// IntList is shorthand for List over int literals.
func (c *Compiler) IntList(values ...int64) (*rel.Relation, error) {
	items := make([]rel.Expr, len(values))
	for i, v := range values {
		items[i] = rel.IntVal(v)
	}
	return c.List(rel.IntType{}, items...)
}

// ScalarSelect wraps a scalar expression into a one-row relation, for
// rendering a bare computation as an executable statement.
func (c *Compiler) ScalarSelect(e rel.Expr) *rel.Relation {
	q := c.prof.Quote
	code := sqlgen.Join("",
		sqlgen.Raw("SELECT "),
		e.Code,
		sqlgen.Raw(" AS "+q(rel.ListColumn)),
	)
	return &rel.Relation{
		Name: c.aliases.Next("scalar"),
		Type: rel.ListTable(e.Type),
		Code: code,
	}
}

// embed renders a relation as a FROM-clause item under a fresh alias,
// returning the alias and the (<subquery>) AS alias fragment.
func (c *Compiler) embed(r *rel.Relation) (string, sqlgen.Fragment) {
	alias := c.aliases.Next("t")
	frag := sqlgen.Join("", sqlgen.Raw("("), r.Code, sqlgen.Raw(") AS "+alias))
	return alias, frag
}

// colRef returns a qualified, quoted column reference.
func (c *Compiler) colRef(alias, col string) string {
	return alias + "." + c.prof.Quote(col)
}

// starProjection lists every column of the relation qualified by alias,
// preserving declared order.
func (c *Compiler) starProjection(alias string, t rel.TableType) string {
	out := ""
	for i, col := range t.Columns {
		if i > 0 {
			out += ", "
		}
		out += c.colRef(alias, col.Name) + " AS " + c.prof.Quote(col.Name)
	}
	return out
}

// asListRelation normalizes a relation-backed collection to a one-column
// relation named "value". kind names the operation for error messages.
func (c *Compiler) asListRelation(kind string, obj rel.Collection) (*rel.Relation, error) {
	sc, ok := obj.(rel.ScalarColumn)
	if !ok || sc.Source == nil {
		return nil, rel.NewTypeError(
			"%s doesn't support object of type '%s'", kind, collectionType(obj))
	}
	col := sc.Col
	if col == "" {
		if len(sc.Source.Type.Columns) != 1 {
			return nil, rel.NewTypeError(
				"%s only accepts lists or tables with one column", kind)
		}
		col = sc.Source.Type.Columns[0].Name
	}
	ct, ok2 := sc.Source.Column(col)
	if !ok2 {
		return nil, rel.NewTypeError(
			"%s: relation %s has no column '%s'", kind, sc.Source.Name, col)
	}
	if col == rel.ListColumn && len(sc.Source.Type.Columns) == 1 {
		return sc.Source, nil
	}
	alias, from := c.embed(sc.Source)
	code := sqlgen.Join("",
		sqlgen.Raw("SELECT "+c.colRef(alias, col)+" AS "+c.prof.Quote(rel.ListColumn)+" FROM "),
		from,
	)
	return &rel.Relation{
		Name: c.aliases.Next("list"),
		Type: rel.ListTable(ct.Type),
		Code: code,
	}, nil
}

// collectionType names a collection's type for error messages. A
// one-column "value" relation displays as the list it came from.
func collectionType(obj rel.Collection) string {
	switch o := obj.(type) {
	case rel.Aggregate:
		return o.Elem.Type.String()
	case rel.ScalarColumn:
		if o.Source == nil {
			return rel.NullType{}.String()
		}
		cols := o.Source.Type.Columns
		if len(cols) == 1 && cols[0].Name == rel.ListColumn {
			return rel.ListType{Elem: cols[0].Type}.String()
		}
		return o.Source.Type.String()
	case rel.NestedCollection:
		if len(o.Items) == 0 {
			return "list[" + rel.UnknownType{}.String() + "]"
		}
		return "list[" + collectionType(o.Items[0]) + "]"
	case nil:
		return rel.NullType{}.String()
	}
	return rel.UnknownType{}.String()
}
