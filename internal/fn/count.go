package fn

import (
	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// Count counts the elements of a collection. Unlike the reductions,
// counting never has an element-type requirement, and a multi-column
// relation counts its rows.
func (c *Compiler) Count(obj rel.Collection) (rel.Expr, error) {
	switch o := obj.(type) {
	case rel.Aggregate:
		code := sqlgen.Join("", sqlgen.Raw("count("), o.Elem.Code, sqlgen.Raw(")"))
		return rel.Expr{Code: code, Type: rel.IntType{}, State: rel.StateScalar}, nil

	case rel.ScalarColumn:
		if o.Source == nil {
			break
		}
		alias, from := c.embed(o.Source)
		target := "*"
		if o.Col != "" {
			if _, ok := o.Source.Column(o.Col); !ok {
				return rel.Expr{}, rel.NewTypeError(
					"count: relation %s has no column '%s'", o.Source.Name, o.Col)
			}
			target = c.colRef(alias, o.Col)
		}
		code := sqlgen.Join("",
			sqlgen.Raw("(SELECT count("+target+") FROM "), from, sqlgen.Raw(")"))
		return rel.Expr{
			Code: code, Type: rel.IntType{},
			State: rel.StateScalar, Card: rel.CardExactlyOne,
		}, nil

	case rel.NestedCollection:
		q := c.prof.Quote
		if len(o.Items) == 0 {
			code := sqlgen.Raw("SELECT NULL AS " + q(rel.ListColumn) + " LIMIT 0")
			return rel.Expr{Code: code, Type: rel.ListType{Elem: rel.IntType{}}, State: rel.StateRelation}, nil
		}
		selects := make([]sqlgen.Fragment, len(o.Items))
		for i, item := range o.Items {
			e, err := c.Count(item)
			if err != nil {
				return rel.Expr{}, err
			}
			sub := e.Code
			if e.State == rel.StateScalar && e.Card == rel.CardMany {
				sub = sqlgen.Join("", sqlgen.Raw("(SELECT "), sub, sqlgen.Raw(")"))
			} else if e.State == rel.StateRelation {
				sub = sqlgen.Join("", sqlgen.Raw("("), sub, sqlgen.Raw(")"))
			}
			tail := sqlgen.Raw("")
			if i == 0 {
				tail = sqlgen.Raw(" AS " + q(rel.ListColumn))
			}
			selects[i] = sqlgen.Join("", sqlgen.Raw("SELECT "), sub, tail)
		}
		code := sqlgen.Join(" UNION ALL ", selects...)
		return rel.Expr{Code: code, Type: rel.ListType{Elem: rel.IntType{}}, State: rel.StateRelation}, nil
	}
	return rel.Expr{}, rel.NewTypeError(
		"count doesn't support object of type '%s'", collectionType(obj))
}

// CountDistinct counts distinct elements. Only the embedded-analytics
// family carries this primitive; the other targets reject it before
// any SQL is assembled.
func (c *Compiler) CountDistinct(obj rel.Collection) (rel.Expr, error) {
	tpl := c.prof.CountDistinct
	if tpl == "" {
		return rel.Expr{}, rel.NewTypeError(
			"count_distinct is not supported by the '%s' target", c.prof.Name)
	}
	switch o := obj.(type) {
	case rel.Aggregate:
		code, err := sqlgen.Interp(tpl, map[string]sqlgen.Fragment{"value": o.Elem.Code})
		if err != nil {
			return rel.Expr{}, err
		}
		return rel.Expr{Code: code, Type: rel.IntType{}, State: rel.StateScalar}, nil

	case rel.ScalarColumn:
		lst, err := c.asListRelation("count_distinct", obj)
		if err != nil {
			return rel.Expr{}, err
		}
		alias, from := c.embed(lst)
		ref := sqlgen.Raw(c.colRef(alias, rel.ListColumn))
		inner, err := sqlgen.Interp(tpl, map[string]sqlgen.Fragment{"value": ref})
		if err != nil {
			return rel.Expr{}, err
		}
		code := sqlgen.Join("",
			sqlgen.Raw("(SELECT "), inner, sqlgen.Raw(" FROM "), from, sqlgen.Raw(")"))
		return rel.Expr{
			Code: code, Type: rel.IntType{},
			State: rel.StateScalar, Card: rel.CardExactlyOne,
		}, nil
	}
	return rel.Expr{}, rel.NewTypeError(
		"count_distinct doesn't support object of type '%s'", collectionType(obj))
}

// CountTrue counts the true elements of a boolean collection.
func (c *Compiler) CountTrue(obj rel.Collection) (rel.Expr, error) {
	return c.countBool("count_true", obj, false)
}

// CountFalse counts the false elements of a boolean collection.
func (c *Compiler) CountFalse(obj rel.Collection) (rel.Expr, error) {
	return c.countBool("count_false", obj, true)
}

// countBool sums a boolean column cast to the profile's integer type,
// optionally inverting each element first.
func (c *Compiler) countBool(name string, obj rel.Collection, invert bool) (rel.Expr, error) {
	switch o := obj.(type) {
	case rel.Aggregate:
		if err := checkBool(name, o.Elem.Type); err != nil {
			return rel.Expr{}, err
		}
		return rel.Expr{
			Code:  c.boolSum(o.Elem.Code, invert),
			Type:  rel.IntType{},
			State: rel.StateScalar,
		}, nil

	case rel.ScalarColumn:
		lst, err := c.asListRelation(name, obj)
		if err != nil {
			return rel.Expr{}, err
		}
		if err := checkBool(name, lst.Type.Columns[0].Type); err != nil {
			return rel.Expr{}, err
		}
		alias, from := c.embed(lst)
		sum := c.boolSum(sqlgen.Raw(c.colRef(alias, rel.ListColumn)), invert)
		code := sqlgen.Join("",
			sqlgen.Raw("(SELECT "), sum, sqlgen.Raw(" FROM "), from, sqlgen.Raw(")"))
		return rel.Expr{
			Code: code, Type: rel.IntType{},
			State: rel.StateScalar, Card: rel.CardExactlyOne,
		}, nil
	}
	return rel.Expr{}, rel.NewTypeError(
		"%s doesn't support object of type '%s'", name, collectionType(obj))
}

func checkBool(name string, t rel.Type) error {
	if _, ok := t.(rel.BoolType); !ok {
		return rel.NewTypeError("%s expects boolean elements", name)
	}
	return nil
}

// boolSum builds sum(CAST(b AS <int>)), inverting b when asked.
func (c *Compiler) boolSum(b sqlgen.Fragment, invert bool) sqlgen.Fragment {
	inner := b
	if invert {
		inner = sqlgen.Join("", sqlgen.Raw("NOT ("), b, sqlgen.Raw(")"))
	}
	return sqlgen.Join("",
		sqlgen.Raw("sum(CAST("), inner, sqlgen.Raw(" AS "+c.prof.CastInt+"))"))
}
