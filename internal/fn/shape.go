package fn

import (
	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// Limit keeps the first n rows.
func (c *Compiler) Limit(r *rel.Relation, n int64) (*rel.Relation, error) {
	if n < 0 {
		return nil, rel.NewValueError("limit requires a non-negative row count, got %d", n)
	}
	alias, from := c.embed(r)
	code := sqlgen.Join("",
		sqlgen.Raw("SELECT "+c.starProjection(alias, r.Type)+" FROM "),
		from,
		sqlgen.Raw(" LIMIT "),
		sqlgen.Param(n))
	return &rel.Relation{Name: c.aliases.Next("limit"), Type: r.Type, Code: code}, nil
}

// LimitOffset skips offset rows, then keeps n.
func (c *Compiler) LimitOffset(r *rel.Relation, n, offset int64) (*rel.Relation, error) {
	if n < 0 {
		return nil, rel.NewValueError("limit_offset requires a non-negative row count, got %d", n)
	}
	if offset < 0 {
		return nil, rel.NewValueError("limit_offset requires a non-negative offset, got %d", offset)
	}
	alias, from := c.embed(r)
	code := sqlgen.Join("",
		sqlgen.Raw("SELECT "+c.starProjection(alias, r.Type)+" FROM "),
		from,
		sqlgen.Raw(" LIMIT "),
		sqlgen.Param(n),
		sqlgen.Raw(" OFFSET "),
		sqlgen.Param(offset))
	return &rel.Relation{Name: c.aliases.Next("limit"), Type: r.Type, Code: code}, nil
}

// Page slices out the index-th page of size rows, zero-based.
func (c *Compiler) Page(r *rel.Relation, index, size int64) (*rel.Relation, error) {
	if index < 0 {
		return nil, rel.NewValueError("page requires a non-negative page index, got %d", index)
	}
	if size <= 0 {
		return nil, rel.NewValueError("page requires a positive page size, got %d", size)
	}
	return c.LimitOffset(r, size, index*size)
}

// Distinct deduplicates whole rows.
func (c *Compiler) Distinct(r *rel.Relation) *rel.Relation {
	alias, from := c.embed(r)
	code := sqlgen.Join("",
		sqlgen.Raw("SELECT DISTINCT "+c.starProjection(alias, r.Type)+" FROM "),
		from)
	return &rel.Relation{Name: c.aliases.Next("distinct"), Type: r.Type, Code: code}
}

// Enum prepends a zero-based row index column named "index". The row
// numbering window carries no ordering, so the index reflects whatever
// order the engine produces the rows in.
func (c *Compiler) Enum(r *rel.Relation) (*rel.Relation, error) {
	if _, ok := r.Column("index"); ok {
		return nil, rel.NewTypeError("enum: relation %s already has a column named 'index'", r.Name)
	}
	alias, from := c.embed(r)
	q := c.prof.Quote
	code := sqlgen.Join("",
		sqlgen.Raw("SELECT row_number() OVER () - 1 AS "+q("index")+", "+
			c.starProjection(alias, r.Type)+" FROM "),
		from)
	cols := make([]rel.Column, 0, len(r.Type.Columns)+1)
	cols = append(cols, rel.Column{Name: "index", Type: rel.IntType{}})
	cols = append(cols, r.Type.Columns...)
	return &rel.Relation{
		Name: c.aliases.Next("enum"),
		Type: rel.TableType{Columns: cols},
		Code: code,
	}, nil
}

// IsEmpty is true when the relation holds no rows.
func (c *Compiler) IsEmpty(r *rel.Relation) rel.Expr {
	code := sqlgen.Join("", sqlgen.Raw("NOT EXISTS ("), r.Code, sqlgen.Raw(")"))
	return rel.Expr{
		Code:  code,
		Type:  rel.BoolType{},
		State: rel.StateScalar,
		Card:  rel.CardExactlyOne,
	}
}
