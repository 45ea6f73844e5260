package sqlgen

import "fmt"

// UnionMode selects the set discipline of a recursive query.
type UnionMode int

const (
	// Union deduplicates accumulated rows. Recursion reaches a fixed
	// point once no new row appears, so cycles in the underlying data
	// terminate on their own.
	Union UnionMode = iota

	// UnionAll keeps duplicates. Nothing about the accumulation
	// terminates recursion; the step fragment must carry its own bound.
	UnionAll
)

// RecursiveQuery assembles a self-referencing query in two phases.
// The base fragment is fixed up front; the step fragment may refer to the
// query's own name (the still-accumulating result) before the definition
// is closed:
//
//	r := sqlgen.BeginRecursive("reach_7", base)
//	step := ... // joins against r.Name()
//	r.SetStep(step)
//	frag, err := r.Finalize(sqlgen.Union, "value")
//
// Finalize produces WITH RECURSIVE <name> AS (<base> UNION [ALL] <step>)
// SELECT <projection> FROM <name>.
type RecursiveQuery struct {
	name string
	base Fragment
	step Fragment

	haveStep  bool
	finalized bool
}

// BeginRecursive opens a recursive definition under the given name.
func BeginRecursive(name string, base Fragment) *RecursiveQuery {
	return &RecursiveQuery{name: name, base: base}
}

// Name returns the alias the step fragment uses to refer to the
// accumulated result.
func (r *RecursiveQuery) Name() string {
	return r.name
}

// SetStep installs the recursive member. Setting it twice is an error.
func (r *RecursiveQuery) SetStep(step Fragment) error {
	if r.haveStep {
		return fmt.Errorf("recursive query %s: step already set", r.name)
	}
	r.step = step
	r.haveStep = true
	return nil
}

// Finalize closes the definition and returns the full query fragment.
// A definition with no step cannot be finalized, and a finalized
// definition cannot be reused.
func (r *RecursiveQuery) Finalize(mode UnionMode, projection string) (Fragment, error) {
	if !r.haveStep {
		return Fragment{}, fmt.Errorf("recursive query %s: no step set", r.name)
	}
	if r.finalized {
		return Fragment{}, fmt.Errorf("recursive query %s: already finalized", r.name)
	}
	r.finalized = true

	op := "UNION"
	if mode == UnionAll {
		op = "UNION ALL"
	}
	sql := fmt.Sprintf("WITH RECURSIVE %s AS (%s %s %s) SELECT %s FROM %s",
		r.name, r.base.SQL, op, r.step.SQL, projection, r.name)
	args := make([]any, 0, len(r.base.Args)+len(r.step.Args))
	args = append(args, r.base.Args...)
	args = append(args, r.step.Args...)
	return Fragment{SQL: sql, Args: args}, nil
}
