package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/trellis/internal/fn"
	"github.com/roach88/trellis/internal/rel"
)

// Query is the YAML document a pipeline file holds: a source relation,
// a chain of relational steps, and an optional terminal reduction.
type Query struct {
	Target    string   `yaml:"target"` // named target for the run command
	Source    Source   `yaml:"source"`
	Pipeline  []Step   `yaml:"pipeline"`
	Aggregate *AggSpec `yaml:"aggregate"`
}

// Source is the relation a pipeline starts from. Exactly one field
// must be set.
type Source struct {
	Table     *TableSpec `yaml:"table"`
	List      *[]int64   `yaml:"list"`
	CharRange *CharSpec  `yaml:"char_range"`
}

// TableSpec names a stored table and declares its columns.
type TableSpec struct {
	Name    string       `yaml:"name"`
	Columns []ColumnSpec `yaml:"columns"`
}

// ColumnSpec declares one column.
type ColumnSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// CharSpec is an inclusive character range.
type CharSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Step is one pipeline operation. Which fields matter depends on Op.
type Step struct {
	Op      string   `yaml:"op"`
	N       int64    `yaml:"n"`
	Offset  int64    `yaml:"offset"`
	Index   int64    `yaml:"index"`
	Size    int64    `yaml:"size"`
	Ratio   float64  `yaml:"ratio"`
	Bias    *float64 `yaml:"bias"`
	MaxRank int64    `yaml:"max_rank"`
	Initial []int64  `yaml:"initial"`
	Right   *Source  `yaml:"right"`
	Start   *int64   `yaml:"start"`
	End     *int64   `yaml:"end"`
}

// AggSpec is the terminal reduction of a pipeline.
type AggSpec struct {
	Op     string `yaml:"op"`
	Column string `yaml:"column"`
}

// Compiled is the outcome of building a query: rows or a single value.
type Compiled struct {
	Rel  *rel.Relation
	Expr *rel.Expr
}

// LoadError reports a query or profile file that could not be used.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadQuery reads and decodes a query file. Unknown YAML fields are
// rejected so a typo fails loudly instead of silently dropping an op.
func LoadQuery(path string) (*Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoad, Message: fmt.Sprintf("reading query file: %v", err)}
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var q Query
	if err := dec.Decode(&q); err != nil {
		return nil, &LoadError{Code: ErrCodeLoad, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	return &q, nil
}

// BuildQuery compiles a query against the given dialect compiler.
// Operations that fetch eagerly (sample_fast, map_range, list_median)
// need a live executor; db may be nil for compile-only use, in which
// case those operations are rejected.
func BuildQuery(ctx context.Context, c *fn.Compiler, db fn.Executor, q *Query) (*Compiled, error) {
	r, err := buildSource(c, &q.Source)
	if err != nil {
		return nil, err
	}
	for i, step := range q.Pipeline {
		r, err = applyStep(ctx, c, db, r, &step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}
	if q.Aggregate != nil {
		e, err := applyAggregate(ctx, c, db, r, q.Aggregate)
		if err != nil {
			return nil, err
		}
		return &Compiled{Expr: &e}, nil
	}
	return &Compiled{Rel: r}, nil
}

func buildSource(c *fn.Compiler, s *Source) (*rel.Relation, error) {
	set := 0
	if s.Table != nil {
		set++
	}
	if s.List != nil {
		set++
	}
	if s.CharRange != nil {
		set++
	}
	if set != 1 {
		return nil, &LoadError{Code: ErrCodeLoad,
			Message: "source must set exactly one of: table, list, char_range"}
	}

	switch {
	case s.Table != nil:
		if s.Table.Name == "" || len(s.Table.Columns) == 0 {
			return nil, &LoadError{Code: ErrCodeLoad,
				Message: "table source needs a name and at least one column"}
		}
		cols := make([]rel.Column, len(s.Table.Columns))
		for i, cs := range s.Table.Columns {
			t, err := parseType(cs.Type)
			if err != nil {
				return nil, err
			}
			cols[i] = rel.Column{Name: cs.Name, Type: t}
		}
		return c.Table(s.Table.Name, cols...), nil
	case s.List != nil:
		return c.IntList(*s.List...)
	default:
		return c.CharRange(s.CharRange.From, s.CharRange.To)
	}
}

func applyStep(ctx context.Context, c *fn.Compiler, db fn.Executor, r *rel.Relation, step *Step) (*rel.Relation, error) {
	switch step.Op {
	case "limit":
		return c.Limit(r, step.N)
	case "limit_offset":
		return c.LimitOffset(r, step.N, step.Offset)
	case "page":
		return c.Page(r, step.Index, step.Size)
	case "distinct":
		return c.Distinct(r), nil
	case "enum":
		return c.Enum(r)
	case "sample_ratio_fast":
		return c.SampleRatioFast(r, step.Ratio), nil
	case "sample_fast":
		if err := needsTarget(db, step.Op); err != nil {
			return nil, err
		}
		bias := fn.DefaultSampleBias
		if step.Bias != nil {
			bias = *step.Bias
		}
		return c.SampleFast(ctx, db, r, step.N, bias)
	case "bfs":
		init, err := c.IntList(step.Initial...)
		if err != nil {
			return nil, err
		}
		return c.BFS(r, rel.ScalarColumn{Source: init})
	case "walk_tree":
		init, err := c.IntList(step.Initial...)
		if err != nil {
			return nil, err
		}
		return c.WalkTree(r, rel.ScalarColumn{Source: init}, step.MaxRank)
	case "zipjoin", "zipjoin_left", "zipjoin_longest":
		if step.Right == nil {
			return nil, &LoadError{Code: ErrCodeLoad,
				Message: fmt.Sprintf("op %q needs a right source", step.Op)}
		}
		right, err := buildSource(c, step.Right)
		if err != nil {
			return nil, err
		}
		switch step.Op {
		case "zipjoin":
			return c.ZipJoin(r, right)
		case "zipjoin_left":
			return c.ZipJoinLeft(r, right)
		default:
			return c.ZipJoinLongest(r, right)
		}
	case "map_range":
		if err := needsTarget(db, step.Op); err != nil {
			return nil, err
		}
		if step.Start == nil || step.End == nil {
			return nil, &LoadError{Code: ErrCodeLoad,
				Message: "map_range needs start and end"}
		}
		return c.MapRange(ctx, db, rel.ScalarColumn{Source: r},
			fn.FixedBound{N: *step.Start}, fn.FixedBound{N: *step.End})
	}
	return nil, &LoadError{Code: ErrCodeLoad, Message: fmt.Sprintf("unknown pipeline op %q", step.Op)}
}

func applyAggregate(ctx context.Context, c *fn.Compiler, db fn.Executor, r *rel.Relation, spec *AggSpec) (rel.Expr, error) {
	obj := rel.ScalarColumn{Source: r, Col: spec.Column}
	if kind, ok := fn.AggregateByName(spec.Op); ok {
		return c.Aggregate(kind, obj)
	}
	switch spec.Op {
	case "count":
		return c.Count(obj)
	case "count_distinct":
		return c.CountDistinct(obj)
	case "count_true":
		return c.CountTrue(obj)
	case "count_false":
		return c.CountFalse(obj)
	case "is_empty":
		return c.IsEmpty(r), nil
	case "list_median":
		if err := needsTarget(db, spec.Op); err != nil {
			return rel.Expr{}, err
		}
		return c.ListMedian(ctx, db, obj)
	}
	return rel.Expr{}, &LoadError{Code: ErrCodeLoad, Message: fmt.Sprintf("unknown aggregate %q", spec.Op)}
}

func needsTarget(db fn.Executor, op string) error {
	if db == nil {
		return &LoadError{Code: ErrCodeLoad,
			Message: fmt.Sprintf("op %q fetches eagerly and needs a live target; use the run command", op)}
	}
	return nil
}

func parseType(s string) (rel.Type, error) {
	switch s {
	case "int":
		return rel.IntType{}, nil
	case "float":
		return rel.FloatType{}, nil
	case "string":
		return rel.StringType{}, nil
	case "bool":
		return rel.BoolType{}, nil
	case "timestamp":
		return rel.TimestampType{}, nil
	}
	return nil, &LoadError{Code: ErrCodeLoad, Message: fmt.Sprintf("unknown column type %q", s)}
}
