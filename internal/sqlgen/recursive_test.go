package sqlgen

import (
	"reflect"
	"testing"
)

func TestRecursiveQuery_Union(t *testing.T) {
	r := BeginRecursive("walk_1", Raw(`SELECT "value" FROM seeds`))
	if r.Name() != "walk_1" {
		t.Fatalf("Name() = %q", r.Name())
	}
	if err := r.SetStep(Raw(`SELECT e."dst" FROM edges AS e JOIN walk_1 ON e."src" = walk_1."value"`)); err != nil {
		t.Fatalf("SetStep() failed: %v", err)
	}

	f, err := r.Finalize(Union, `"value"`)
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	want := `WITH RECURSIVE walk_1 AS (SELECT "value" FROM seeds UNION ` +
		`SELECT e."dst" FROM edges AS e JOIN walk_1 ON e."src" = walk_1."value") ` +
		`SELECT "value" FROM walk_1`
	if f.SQL != want {
		t.Errorf("SQL = %q\nwant  %q", f.SQL, want)
	}
}

func TestRecursiveQuery_UnionAll(t *testing.T) {
	r := BeginRecursive("series_1", Raw("SELECT 0 AS v"))
	if err := r.SetStep(Raw("SELECT v + 1 FROM series_1 WHERE v < 5")); err != nil {
		t.Fatalf("SetStep() failed: %v", err)
	}

	f, err := r.Finalize(UnionAll, "v")
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	want := "WITH RECURSIVE series_1 AS (SELECT 0 AS v UNION ALL SELECT v + 1 FROM series_1 WHERE v < 5) SELECT v FROM series_1"
	if f.SQL != want {
		t.Errorf("SQL = %q\nwant  %q", f.SQL, want)
	}
}

func TestRecursiveQuery_ArgsBaseThenStep(t *testing.T) {
	r := BeginRecursive("w", Join("", Raw("SELECT "), Param(int64(10))))
	if err := r.SetStep(Join("", Raw("SELECT v FROM w WHERE v < "), Param(int64(20)))); err != nil {
		t.Fatalf("SetStep() failed: %v", err)
	}

	f, err := r.Finalize(UnionAll, "v")
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	want := []any{int64(10), int64(20)}
	if !reflect.DeepEqual(f.Args, want) {
		t.Errorf("Args = %v, want %v", f.Args, want)
	}
}

func TestRecursiveQuery_SetStepTwice(t *testing.T) {
	r := BeginRecursive("w", Raw("SELECT 1"))
	if err := r.SetStep(Raw("SELECT 2")); err != nil {
		t.Fatalf("first SetStep() failed: %v", err)
	}
	if err := r.SetStep(Raw("SELECT 3")); err == nil {
		t.Error("expected error on second SetStep, got nil")
	}
}

func TestRecursiveQuery_FinalizeWithoutStep(t *testing.T) {
	r := BeginRecursive("w", Raw("SELECT 1"))
	if _, err := r.Finalize(Union, "v"); err == nil {
		t.Error("expected error finalizing without a step, got nil")
	}
}

func TestRecursiveQuery_FinalizeTwice(t *testing.T) {
	r := BeginRecursive("w", Raw("SELECT 1"))
	if err := r.SetStep(Raw("SELECT 2")); err != nil {
		t.Fatalf("SetStep() failed: %v", err)
	}
	if _, err := r.Finalize(Union, "v"); err != nil {
		t.Fatalf("first Finalize() failed: %v", err)
	}
	if _, err := r.Finalize(Union, "v"); err == nil {
		t.Error("expected error on second Finalize, got nil")
	}
}
