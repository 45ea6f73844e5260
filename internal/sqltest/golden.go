// Package sqltest holds shared helpers for asserting generated SQL
// against golden files.
package sqltest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/trellis/internal/dialect"
	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// Render finalizes a fragment for the profile's parameter style and
// lays out the statement and its arguments in a stable printable form:
// the SQL text, a separator line, then one numbered argument per line.
func Render(t *testing.T, prof dialect.Profile, f sqlgen.Fragment) []byte {
	t.Helper()
	stmt, args, err := sqlgen.Finalize(f, prof.Numbered)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	var b strings.Builder
	b.WriteString(stmt)
	b.WriteString("\n---\n")
	for i, a := range args {
		fmt.Fprintf(&b, "%d: %#v\n", i+1, a)
	}
	return []byte(b.String())
}

// AssertSQL compares a compiled fragment against
// testdata/golden/<name>.golden in the calling package.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertSQL(t *testing.T, prof dialect.Profile, name string, f sqlgen.Fragment) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Render(t, prof, f))
}

// AssertRelation is AssertSQL over a relation's compiled code.
func AssertRelation(t *testing.T, prof dialect.Profile, name string, r *rel.Relation) {
	t.Helper()
	AssertSQL(t, prof, name, r.Code)
}
