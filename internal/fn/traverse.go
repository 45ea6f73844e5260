package fn

import (
	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// BFS compiles reachability over an edge relation into a recursive
// set-accumulation query: start from the initial node ids, and for
// every reached node x with an edge (x, y), reach y. The accumulated
// set is deduplicated, so cycles hit the engine's fixed point and the
// query terminates without a depth guard. Each reachable id appears
// once in the result.
func (c *Compiler) BFS(edges *rel.Relation, initial rel.Collection) (*rel.Relation, error) {
	if err := validateEdges("bfs", edges); err != nil {
		return nil, err
	}
	init, err := c.initialNodes("bfs", initial)
	if err != nil {
		return nil, err
	}

	v := c.prof.Quote(rel.ListColumn)
	name := c.aliases.Next("walk")

	initAlias, initFrom := c.embed(init)
	base := sqlgen.Join("",
		sqlgen.Raw("SELECT "+c.colRef(initAlias, rel.ListColumn)+" AS "+v+" FROM "),
		initFrom)

	rq := sqlgen.BeginRecursive(name, base)

	edgeAlias, edgeFrom := c.embed(edges)
	step := sqlgen.Join("",
		sqlgen.Raw("SELECT "+c.colRef(edgeAlias, "dst")+" FROM "),
		edgeFrom,
		sqlgen.Raw(" JOIN "+name+" ON "+c.colRef(edgeAlias, "src")+" = "+name+"."+v))
	if err := rq.SetStep(step); err != nil {
		return nil, err
	}

	code, err := rq.Finalize(sqlgen.Union, v)
	if err != nil {
		return nil, err
	}
	return &rel.Relation{
		Name: name,
		Type: rel.ListTable(rel.IntType{}),
		Code: code,
	}, nil
}

// WalkTree compiles a rank-bounded walk over an edge relation into a
// recursive multiset-accumulation query: initial ids enter at rank 0,
// and every accumulated (x, r) with r below maxRank and an edge (x, y)
// produces (y, r+1). Nothing is deduplicated. A node reachable along
// several paths appears once per (id, rank) pair, and a cycle keeps
// producing rows until the rank guard cuts it off, so the guard is
// what makes the query finite.
func (c *Compiler) WalkTree(edges *rel.Relation, initial rel.Collection, maxRank int64) (*rel.Relation, error) {
	if maxRank < 0 {
		return nil, rel.NewValueError("walk_tree requires a non-negative max_rank, got %d", maxRank)
	}
	if err := validateEdges("walk_tree", edges); err != nil {
		return nil, err
	}
	init, err := c.initialNodes("walk_tree", initial)
	if err != nil {
		return nil, err
	}

	q := c.prof.Quote
	id, rank := q("id"), q("rank")
	name := c.aliases.Next("walk")

	initAlias, initFrom := c.embed(init)
	base := sqlgen.Join("",
		sqlgen.Raw("SELECT "+c.colRef(initAlias, rel.ListColumn)+" AS "+id+", 0 AS "+rank+" FROM "),
		initFrom)

	rq := sqlgen.BeginRecursive(name, base)

	edgeAlias, edgeFrom := c.embed(edges)
	step := sqlgen.Join("",
		sqlgen.Raw("SELECT "+c.colRef(edgeAlias, "dst")+", "+name+"."+rank+" + 1 FROM "),
		edgeFrom,
		sqlgen.Raw(" JOIN "+name+" ON "+c.colRef(edgeAlias, "src")+" = "+name+"."+id),
		sqlgen.Raw(" WHERE "+name+"."+rank+" < "),
		sqlgen.Param(maxRank))
	if err := rq.SetStep(step); err != nil {
		return nil, err
	}

	code, err := rq.Finalize(sqlgen.UnionAll, id+", "+rank)
	if err != nil {
		return nil, err
	}
	return &rel.Relation{
		Name: name,
		Type: rel.TableType{Columns: []rel.Column{
			{Name: "id", Type: rel.IntType{}},
			{Name: "rank", Type: rel.IntType{}},
		}},
		Code: code,
	}, nil
}

// validateEdges rejects edge relations before any SQL is assembled:
// the walk needs columns named src and dst to join on.
func validateEdges(name string, edges *rel.Relation) error {
	if edges == nil {
		return rel.NewTypeError("%s doesn't support object of type 'nulltype'", name)
	}
	for _, col := range []string{"src", "dst"} {
		if _, ok := edges.Column(col); !ok {
			return rel.NewTypeError(
				"%s expects an edge relation with columns 'src' and 'dst', got %s", name, edges.Type)
		}
	}
	return nil
}

// initialNodes normalizes the starting collection to a one-column
// relation of integer node ids.
func (c *Compiler) initialNodes(name string, initial rel.Collection) (*rel.Relation, error) {
	init, err := c.asListRelation(name, initial)
	if err != nil {
		return nil, err
	}
	if !isInt(init.Type.Columns[0].Type) {
		return nil, rel.NewTypeError("%s expects integer elements", name)
	}
	return init, nil
}
