package fn

import (
	"context"

	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// DefaultSampleBias is the ratio inflation SampleFast uses when the
// caller has no opinion.
const DefaultSampleBias = 0.05

// SampleRatioFast keeps each row with independent probability ratio,
// re-drawing per row. The result size is binomial around
// ratio * count(table), not exact.
func (c *Compiler) SampleRatioFast(table *rel.Relation, ratio float64) *rel.Relation {
	alias, from := c.embed(table)
	code := sqlgen.Join("",
		sqlgen.Raw("SELECT "+c.starProjection(alias, table.Type)+" FROM "),
		from,
		sqlgen.Raw(" WHERE "+c.prof.Random+" < "),
		sqlgen.Param(ratio))
	return &rel.Relation{
		Name: c.aliases.Next("sample"),
		Type: table.Type,
		Code: code,
	}
}

// SampleFast draws exactly n rows in at most two fetching passes.
// The first pass filters by an inflated ratio (1+bias) * n / count and
// caps at n; the per-row draw is volatile, so the capped result is
// materialized before it is counted or reused. When the first pass
// under-draws, the shortfall is topped up with rows taken from the
// front of the table. Top-up rows are not a uniform draw and can
// repeat rows the first pass already kept; a larger bias makes the
// top-up pass rarer at the price of a less uniform sample when it
// does run.
func (c *Compiler) SampleFast(ctx context.Context, db Executor, table *rel.Relation, n int64, bias float64) (*rel.Relation, error) {
	if n <= 0 {
		return nil, rel.NewValueError("sample_fast requires a positive sample size, got %d", n)
	}
	if bias < 0 {
		return nil, rel.NewValueError("sample_fast requires a non-negative bias, got %v", bias)
	}
	cnt, err := db.Count(ctx, table)
	if err != nil {
		return nil, err
	}
	if n > cnt {
		return nil, rel.NewValueError("sample_fast cannot draw %d rows from a table of %d", n, cnt)
	}
	if n == cnt {
		return table, nil
	}

	ratio := float64(n) * (1 + bias) / float64(cnt)
	capped, err := c.Limit(c.SampleRatioFast(table, ratio), n)
	if err != nil {
		return nil, err
	}
	snap, err := db.Materialize(ctx, capped)
	if err != nil {
		return nil, err
	}
	got, err := db.Count(ctx, snap)
	if err != nil {
		return nil, err
	}
	if got == n {
		return snap, nil
	}

	topup, err := c.Limit(table, n-got)
	if err != nil {
		return nil, err
	}
	topAlias, topFrom := c.embed(topup)
	code := sqlgen.Join("",
		snap.Code,
		sqlgen.Raw(" UNION ALL SELECT "+c.starProjection(topAlias, topup.Type)+" FROM "),
		topFrom)
	return &rel.Relation{
		Name: c.aliases.Next("sample"),
		Type: table.Type,
		Code: code,
	}, nil
}
