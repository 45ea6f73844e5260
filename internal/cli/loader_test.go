package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trellis/internal/dialect"
	"github.com/roach88/trellis/internal/fn"
	"github.com/roach88/trellis/internal/rel"
)

// Test helper to write a query file into a temp dir.
func writeQueryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sqliteCompiler(t *testing.T) *fn.Compiler {
	t.Helper()
	prof, err := dialect.Resolve("sqlite")
	require.NoError(t, err)
	return fn.New(prof)
}

func TestLoadQueryValid(t *testing.T) {
	path := writeQueryFile(t, `target: dev
source:
  table:
    name: users
    columns:
      - name: id
        type: int
      - name: score
        type: int
pipeline:
  - op: limit
    n: 10
aggregate:
  op: sum
  column: score
`)

	q, err := LoadQuery(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", q.Target)
	require.NotNil(t, q.Source.Table)
	assert.Equal(t, "users", q.Source.Table.Name)
	require.Len(t, q.Pipeline, 1)
	assert.Equal(t, "limit", q.Pipeline[0].Op)
	assert.Equal(t, int64(10), q.Pipeline[0].N)
	require.NotNil(t, q.Aggregate)
	assert.Equal(t, "sum", q.Aggregate.Op)
	assert.Equal(t, "score", q.Aggregate.Column)
}

func TestLoadQueryRejectsUnknownField(t *testing.T) {
	path := writeQueryFile(t, `source:
  list: [1, 2]
pipelines:
  - op: limit
`)

	_, err := LoadQuery(path)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeLoad, loadErr.Code)
	assert.Contains(t, loadErr.Message, "parsing")
}

func TestLoadQueryMissingFile(t *testing.T) {
	_, err := LoadQuery(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeLoad, loadErr.Code)
	assert.Contains(t, loadErr.Message, "reading query file")
}

func TestBuildQueryPipelineOnly(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{
		Source:   Source{List: &[]int64{3, 1, 2}},
		Pipeline: []Step{{Op: "limit", N: 2}},
	}

	compiled, err := BuildQuery(context.Background(), c, nil, q)
	require.NoError(t, err)
	require.NotNil(t, compiled.Rel)
	assert.Nil(t, compiled.Expr)
}

func TestBuildQueryAggregate(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{
		Source:    Source{List: &[]int64{3, 1, 2}},
		Aggregate: &AggSpec{Op: "count"},
	}

	compiled, err := BuildQuery(context.Background(), c, nil, q)
	require.NoError(t, err)
	assert.Nil(t, compiled.Rel)
	require.NotNil(t, compiled.Expr)
	assert.Equal(t, rel.IntType{}, compiled.Expr.Type)
}

func TestBuildQueryCharRangeSource(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{Source: Source{CharRange: &CharSpec{From: "a", To: "d"}}}

	compiled, err := BuildQuery(context.Background(), c, nil, q)
	require.NoError(t, err)
	require.NotNil(t, compiled.Rel)
	require.Len(t, compiled.Rel.Type.Columns, 1)
	assert.Equal(t, rel.ListColumn, compiled.Rel.Type.Columns[0].Name)
}

func TestBuildQueryTraversalSteps(t *testing.T) {
	c := sqliteCompiler(t)
	edges := Source{Table: &TableSpec{
		Name: "edges",
		Columns: []ColumnSpec{
			{Name: "src", Type: "int"},
			{Name: "dst", Type: "int"},
		},
	}}

	bfs := &Query{Source: edges, Pipeline: []Step{{Op: "bfs", Initial: []int64{1}}}}
	compiled, err := BuildQuery(context.Background(), c, nil, bfs)
	require.NoError(t, err)
	require.NotNil(t, compiled.Rel)

	walk := &Query{Source: edges, Pipeline: []Step{{Op: "walk_tree", Initial: []int64{1}, MaxRank: 3}}}
	compiled, err = BuildQuery(context.Background(), c, nil, walk)
	require.NoError(t, err)
	require.Len(t, compiled.Rel.Type.Columns, 2)
}

func TestBuildQueryZipJoin(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{
		Source: Source{List: &[]int64{1, 2}},
		Pipeline: []Step{{
			Op:    "zipjoin",
			Right: &Source{List: &[]int64{10, 20}},
		}},
	}

	compiled, err := BuildQuery(context.Background(), c, nil, q)
	require.NoError(t, err)
	require.Len(t, compiled.Rel.Type.Columns, 2)
}

func TestBuildQuerySourceExactlyOne(t *testing.T) {
	c := sqliteCompiler(t)

	tests := []struct {
		name   string
		source Source
	}{
		{"none", Source{}},
		{"both", Source{List: &[]int64{1}, CharRange: &CharSpec{From: "a", To: "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildQuery(context.Background(), c, nil, &Query{Source: tt.source})
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, "source must set exactly one of: table, list, char_range", loadErr.Message)
		})
	}
}

func TestBuildQueryTableNeedsColumns(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{Source: Source{Table: &TableSpec{Name: "users"}}}

	_, err := BuildQuery(context.Background(), c, nil, q)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "table source needs a name and at least one column", loadErr.Message)
}

func TestBuildQueryUnknownColumnType(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{Source: Source{Table: &TableSpec{
		Name:    "users",
		Columns: []ColumnSpec{{Name: "price", Type: "decimal"}},
	}}}

	_, err := BuildQuery(context.Background(), c, nil, q)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, `unknown column type "decimal"`, loadErr.Message)
}

func TestBuildQueryStepErrorsArePositioned(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{
		Source:   Source{List: &[]int64{1, 2}},
		Pipeline: []Step{{Op: "distinct"}, {Op: "limit", N: -1}},
	}

	_, err := BuildQuery(context.Background(), c, nil, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2 (limit):")
	assert.True(t, rel.IsValueError(err))
}

func TestBuildQueryUnknownOp(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{
		Source:   Source{List: &[]int64{1}},
		Pipeline: []Step{{Op: "filter"}},
	}

	_, err := BuildQuery(context.Background(), c, nil, q)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Message, `unknown pipeline op "filter"`)
}

func TestBuildQueryUnknownAggregate(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{
		Source:    Source{List: &[]int64{1}},
		Aggregate: &AggSpec{Op: "median"},
	}

	_, err := BuildQuery(context.Background(), c, nil, q)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, `unknown aggregate "median"`, loadErr.Message)
}

func TestBuildQueryEagerOpsNeedTarget(t *testing.T) {
	c := sqliteCompiler(t)
	start, end := int64(0), int64(5)

	tests := []struct {
		name string
		q    *Query
	}{
		{"sample_fast", &Query{
			Source:   Source{List: &[]int64{1, 2}},
			Pipeline: []Step{{Op: "sample_fast", N: 1}},
		}},
		{"map_range", &Query{
			Source:   Source{List: &[]int64{1, 2}},
			Pipeline: []Step{{Op: "map_range", Start: &start, End: &end}},
		}},
		{"list_median", &Query{
			Source:    Source{List: &[]int64{1, 2}},
			Aggregate: &AggSpec{Op: "list_median"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildQuery(context.Background(), c, nil, tt.q)
			require.Error(t, err)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Contains(t, loadErr.Message, "needs a live target")
			assert.Contains(t, loadErr.Message, "use the run command")
		})
	}
}

func TestBuildQueryZipJoinNeedsRight(t *testing.T) {
	c := sqliteCompiler(t)
	q := &Query{
		Source:   Source{List: &[]int64{1}},
		Pipeline: []Step{{Op: "zipjoin_left"}},
	}

	_, err := BuildQuery(context.Background(), c, nil, q)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, `op "zipjoin_left" needs a right source`, loadErr.Message)
}

func TestLoadErrorMessage(t *testing.T) {
	err := &LoadError{Code: ErrCodeLoad, Message: "no such file"}
	assert.Equal(t, "E002: no such file", err.Error())
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
