package fn

import (
	"context"
	"unicode/utf8"

	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// ListMedian computes the median of a numeric list as a float. The
// element count is fetched eagerly; the median itself is the mean of
// the one or two middle items of the sorted list.
func (c *Compiler) ListMedian(ctx context.Context, db Executor, obj rel.Collection) (rel.Expr, error) {
	lst, err := c.asListRelation("list_median", obj)
	if err != nil {
		return rel.Expr{}, err
	}
	if err := checkNumericElem("list_median", lst.Type.Columns[0].Type); err != nil {
		return rel.Expr{}, err
	}
	cnt, err := db.Count(ctx, lst)
	if err != nil {
		return rel.Expr{}, err
	}
	if cnt == 0 {
		return rel.Expr{}, rel.NewValueError("list_median requires a non-empty list")
	}
	offset := (cnt - 1) / 2
	take := 2 - cnt%2

	alias, from := c.embed(lst)
	ref := c.colRef(alias, rel.ListColumn)
	mid := c.aliases.Next("median")
	code := sqlgen.Join("",
		sqlgen.Raw("(SELECT avg("+c.colRef(mid, rel.ListColumn)+") FROM (SELECT "+ref+" FROM "),
		from,
		sqlgen.Raw(" ORDER BY "+ref+" LIMIT "),
		sqlgen.Param(take),
		sqlgen.Raw(" OFFSET "),
		sqlgen.Param(offset),
		sqlgen.Raw(") AS "+mid+")"))
	return rel.Expr{
		Code:  code,
		Type:  rel.FloatType{},
		State: rel.StateScalar,
		Card:  rel.CardExactlyOne,
	}, nil
}

// Bound is one end of a map_range interval: either a fixed integer or
// a per-item selector evaluated against each list element.
type Bound interface{ boundNode() }

// FixedBound pins the bound to a constant.
type FixedBound struct{ N int64 }

// SelectorBound computes the bound from each item. The start selector
// is an inclusive lower bound per item; the end selector is an
// inclusive upper bound per item.
type SelectorBound struct {
	Fn func(item rel.Expr) (rel.Expr, error)
}

func (FixedBound) boundNode()    {}
func (SelectorBound) boundNode() {}

// MapRange pairs every list element with every integer of its range.
// A safe global range [s, e) is computed first: s is the fixed start
// or the minimum of the start selector over all items, e is the fixed
// end or the maximum of the end selector plus one. The list is crossed
// with that series, then rows outside an item's own selector bounds
// are filtered away. Result columns: "value" (the item) and "index"
// (the integer).
func (c *Compiler) MapRange(ctx context.Context, db Executor, obj rel.Collection, start, end Bound) (*rel.Relation, error) {
	if start == nil || end == nil {
		return nil, rel.NewTypeError("map_range doesn't support object of type 'nulltype'")
	}
	lst, err := c.asListRelation("map_range", obj)
	if err != nil {
		return nil, err
	}
	elem := lst.Type.Columns[0].Type
	out := rel.TableType{Columns: []rel.Column{
		{Name: rel.ListColumn, Type: elem},
		{Name: "index", Type: rel.IntType{}},
	}}

	s, ok, err := c.rangeBound(ctx, db, lst, elem, start, "min")
	if err != nil {
		return nil, err
	}
	var e int64
	if ok {
		e, ok, err = c.rangeBound(ctx, db, lst, elem, end, "max")
		if err != nil {
			return nil, err
		}
		if _, sel := end.(SelectorBound); sel && ok {
			e++
		}
	}
	name := c.aliases.Next("range")
	if !ok || s >= e {
		q := c.prof.Quote
		code := sqlgen.Raw("SELECT NULL AS " + q(rel.ListColumn) + ", NULL AS " + q("index") + " LIMIT 0")
		return &rel.Relation{Name: name, Type: out, Code: code}, nil
	}

	series, err := c.series(s, e)
	if err != nil {
		return nil, err
	}
	la, lfrom := c.embed(lst)
	sa, sfrom := c.embed(series)
	q := c.prof.Quote
	item := rel.Expr{
		Code:  sqlgen.Raw(c.colRef(la, rel.ListColumn)),
		Type:  elem,
		State: rel.StateScalar,
	}
	idx := c.colRef(sa, rel.ListColumn)

	frags := []sqlgen.Fragment{
		sqlgen.Raw("SELECT " + c.colRef(la, rel.ListColumn) + " AS " + q(rel.ListColumn) +
			", " + idx + " AS " + q("index") + " FROM "),
		lfrom,
		sqlgen.Raw(" CROSS JOIN "),
		sfrom,
	}
	var conds []sqlgen.Fragment
	if sb, isSel := start.(SelectorBound); isSel {
		f, err := c.selectorExpr(sb, item)
		if err != nil {
			return nil, err
		}
		conds = append(conds, sqlgen.Join("", sqlgen.Raw(idx+" >= ("), f.Code, sqlgen.Raw(")")))
	}
	if sb, isSel := end.(SelectorBound); isSel {
		f, err := c.selectorExpr(sb, item)
		if err != nil {
			return nil, err
		}
		conds = append(conds, sqlgen.Join("", sqlgen.Raw(idx+" <= ("), f.Code, sqlgen.Raw(")")))
	}
	if len(conds) > 0 {
		frags = append(frags, sqlgen.Raw(" WHERE "), sqlgen.Join(" AND ", conds...))
	}
	return &rel.Relation{Name: name, Type: out, Code: sqlgen.Join("", frags...)}, nil
}

// rangeBound resolves one end of the global range. Fixed bounds are
// taken as-is; selector bounds aggregate the selector over the whole
// list, which comes back absent when the list is empty.
func (c *Compiler) rangeBound(ctx context.Context, db Executor, lst *rel.Relation, elem rel.Type, b Bound, agg string) (int64, bool, error) {
	switch bound := b.(type) {
	case FixedBound:
		return bound.N, true, nil
	case SelectorBound:
		alias, from := c.embed(lst)
		item := rel.Expr{
			Code:  sqlgen.Raw(c.colRef(alias, rel.ListColumn)),
			Type:  elem,
			State: rel.StateScalar,
		}
		f, err := c.selectorExpr(bound, item)
		if err != nil {
			return 0, false, err
		}
		code := sqlgen.Join("",
			sqlgen.Raw("(SELECT "+agg+"("), f.Code, sqlgen.Raw(") FROM "), from, sqlgen.Raw(")"))
		v, ok, err := db.IntScalar(ctx, rel.Expr{
			Code:  code,
			Type:  rel.IntType{},
			State: rel.StateScalar,
			Card:  rel.CardExactlyOne,
		})
		return v, ok, err
	}
	return 0, false, rel.NewTypeError("map_range doesn't support object of type 'nulltype'")
}

func (c *Compiler) selectorExpr(b SelectorBound, item rel.Expr) (rel.Expr, error) {
	f, err := b.Fn(item)
	if err != nil {
		return rel.Expr{}, err
	}
	if !isInt(f.Type) {
		return rel.Expr{}, rel.NewTypeError(
			"map_range expects an integer selector, got '%s'", typeName(f.Type))
	}
	return f, nil
}

// CharRange lists the characters from lo through hi inclusive, in code
// point order.
func (c *Compiler) CharRange(lo, hi string) (*rel.Relation, error) {
	first, err := singleRune("char_range", lo)
	if err != nil {
		return nil, err
	}
	last, err := singleRune("char_range", hi)
	if err != nil {
		return nil, err
	}
	name := c.aliases.Next("chars")
	q := c.prof.Quote
	if last < first {
		code := sqlgen.Raw("SELECT NULL AS " + q(rel.ListColumn) + " LIMIT 0")
		return &rel.Relation{Name: name, Type: rel.ListTable(rel.StringType{}), Code: code}, nil
	}
	series, err := c.series(int64(first), int64(last)+1)
	if err != nil {
		return nil, err
	}
	alias, from := c.embed(series)
	ch, err := sqlgen.Interp(c.prof.Char, map[string]sqlgen.Fragment{
		"code": sqlgen.Raw(c.colRef(alias, rel.ListColumn)),
	})
	if err != nil {
		return nil, err
	}
	code := sqlgen.Join("",
		sqlgen.Raw("SELECT "), ch, sqlgen.Raw(" AS "+q(rel.ListColumn)+" FROM "), from)
	return &rel.Relation{Name: name, Type: rel.ListTable(rel.StringType{}), Code: code}, nil
}

func singleRune(name, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, rel.NewValueError("%s expects single-character bounds, got %q", name, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// series builds the integer list [s, e) as a recursive query. The
// caller guarantees s < e.
func (c *Compiler) series(s, e int64) (*rel.Relation, error) {
	name := c.aliases.Next("series")
	v := c.prof.Quote(rel.ListColumn)
	base := sqlgen.Join("", sqlgen.Raw("SELECT "), sqlgen.Param(s), sqlgen.Raw(" AS "+v))
	rq := sqlgen.BeginRecursive(name, base)
	step := sqlgen.Join("",
		sqlgen.Raw("SELECT "+name+"."+v+" + 1 FROM "+name+" WHERE "+name+"."+v+" + 1 < "),
		sqlgen.Param(e))
	if err := rq.SetStep(step); err != nil {
		return nil, err
	}
	code, err := rq.Finalize(sqlgen.UnionAll, v)
	if err != nil {
		return nil, err
	}
	return &rel.Relation{Name: name, Type: rel.ListTable(rel.IntType{}), Code: code}, nil
}
