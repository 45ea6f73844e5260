package fn

import (
	"strconv"

	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// zipIdx is the synthetic row-position column the zip joins pair on.
// It never survives into the output projection.
const zipIdx = "_zip_idx"

type zipKind int

const (
	zipInner zipKind = iota
	zipLeft
	zipFull
)

// ZipJoin pairs the two relations row by row, keeping only positions
// present on both sides.
func (c *Compiler) ZipJoin(left, right *rel.Relation) (*rel.Relation, error) {
	return c.zipJoin("zipjoin", left, right, zipInner)
}

// ZipJoinLeft pairs row by row, keeping every left position; right
// columns are NULL where the right side ran out.
func (c *Compiler) ZipJoinLeft(left, right *rel.Relation) (*rel.Relation, error) {
	return c.zipJoin("zipjoin_left", left, right, zipLeft)
}

// ZipJoinLongest pairs row by row, keeping every position of the
// longer side.
func (c *Compiler) ZipJoinLongest(left, right *rel.Relation) (*rel.Relation, error) {
	return c.zipJoin("zipjoin_longest", left, right, zipFull)
}

func (c *Compiler) zipJoin(name string, left, right *rel.Relation, kind zipKind) (*rel.Relation, error) {
	if left == nil || right == nil {
		return nil, rel.NewTypeError("%s doesn't support object of type 'nulltype'", name)
	}
	li := c.zipSide(left)
	ri := c.zipSide(right)
	la, lfrom := c.embed(li)
	ra, rfrom := c.embed(ri)

	outRight := dedupeColumns(left.Type.Columns, right.Type.Columns)
	proj := c.zipProjection(la, left.Type.Columns, ra, right.Type.Columns, outRight)
	on := c.colRef(la, zipIdx) + " = " + c.colRef(ra, zipIdx)

	var code sqlgen.Fragment
	switch {
	case kind == zipInner:
		code = zipArm(proj, lfrom, " JOIN ", rfrom, on, "")
	case kind == zipLeft:
		code = zipArm(proj, lfrom, " LEFT JOIN ", rfrom, on, "")
	case c.prof.FullOuterJoin:
		code = zipArm(proj, lfrom, " FULL OUTER JOIN ", rfrom, on, "")
	default:
		// No FULL OUTER JOIN on this target: take every left row,
		// then append the right rows with no left partner.
		antiJoin := " WHERE " + c.colRef(la, zipIdx) + " IS NULL"
		code = sqlgen.Join(" UNION ALL ",
			zipArm(proj, lfrom, " LEFT JOIN ", rfrom, on, ""),
			zipArm(proj, lfrom, " RIGHT JOIN ", rfrom, on, antiJoin))
	}

	cols := make([]rel.Column, 0, len(left.Type.Columns)+len(outRight))
	cols = append(cols, left.Type.Columns...)
	cols = append(cols, outRight...)
	return &rel.Relation{
		Name: c.aliases.Next("zip"),
		Type: rel.TableType{Columns: cols},
		Code: code,
	}, nil
}

func zipArm(proj string, lfrom sqlgen.Fragment, joinKw string, rfrom sqlgen.Fragment, on, tail string) sqlgen.Fragment {
	return sqlgen.Join("",
		sqlgen.Raw("SELECT "+proj+" FROM "),
		lfrom,
		sqlgen.Raw(joinKw),
		rfrom,
		sqlgen.Raw(" ON "+on+tail))
}

// zipSide numbers the rows of one side. The window carries no
// ordering, so positions follow the engine's production order.
func (c *Compiler) zipSide(r *rel.Relation) *rel.Relation {
	alias, from := c.embed(r)
	q := c.prof.Quote
	code := sqlgen.Join("",
		sqlgen.Raw("SELECT row_number() OVER () - 1 AS "+q(zipIdx)+", "+
			c.starProjection(alias, r.Type)+" FROM "),
		from)
	cols := make([]rel.Column, 0, len(r.Type.Columns)+1)
	cols = append(cols, rel.Column{Name: zipIdx, Type: rel.IntType{}})
	cols = append(cols, r.Type.Columns...)
	return &rel.Relation{
		Name: c.aliases.Next("zip"),
		Type: rel.TableType{Columns: cols},
		Code: code,
	}
}

func (c *Compiler) zipProjection(la string, left []rel.Column, ra string, right, outRight []rel.Column) string {
	q := c.prof.Quote
	proj := ""
	for _, col := range left {
		if proj != "" {
			proj += ", "
		}
		proj += c.colRef(la, col.Name) + " AS " + q(col.Name)
	}
	for i, col := range right {
		if proj != "" {
			proj += ", "
		}
		proj += c.colRef(ra, col.Name) + " AS " + q(outRight[i].Name)
	}
	return proj
}

// dedupeColumns renames right-side columns that clash with the left:
// c becomes c_1, then c_2, and so on until the name is free.
func dedupeColumns(left, right []rel.Column) []rel.Column {
	taken := make(map[string]bool, len(left)+len(right))
	for _, col := range left {
		taken[col.Name] = true
	}
	out := make([]rel.Column, len(right))
	for i, col := range right {
		name := col.Name
		for n := 1; taken[name]; n++ {
			name = col.Name + "_" + strconv.Itoa(n)
		}
		taken[name] = true
		out[i] = rel.Column{Name: name, Type: col.Type}
	}
	return out
}
