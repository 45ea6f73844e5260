package sqlgen

import (
	"reflect"
	"testing"
)

func TestRaw_NoArgs(t *testing.T) {
	f := Raw("SELECT 1")
	if f.SQL != "SELECT 1" {
		t.Errorf("SQL = %q, want %q", f.SQL, "SELECT 1")
	}
	if len(f.Args) != 0 {
		t.Errorf("Args = %v, want none", f.Args)
	}
}

func TestParam_SingleMarker(t *testing.T) {
	f := Param(int64(42))
	if f.SQL != "?" {
		t.Errorf("SQL = %q, want %q", f.SQL, "?")
	}
	if !reflect.DeepEqual(f.Args, []any{int64(42)}) {
		t.Errorf("Args = %v, want [42]", f.Args)
	}
}

func TestJoin_SingleFragmentUnchanged(t *testing.T) {
	in := Param("x")
	out := Join(" AND ", in)
	if out.SQL != in.SQL || !reflect.DeepEqual(out.Args, in.Args) {
		t.Errorf("Join of one fragment changed it: %+v", out)
	}
}

func TestJoin_ArgsFollowTextOrder(t *testing.T) {
	f := Join(" ",
		Raw("SELECT"),
		Param(int64(1)),
		Raw("+"),
		Param(int64(2)),
	)
	if f.SQL != "SELECT ? + ?" {
		t.Errorf("SQL = %q", f.SQL)
	}
	want := []any{int64(1), int64(2)}
	if !reflect.DeepEqual(f.Args, want) {
		t.Errorf("Args = %v, want %v", f.Args, want)
	}
}

func TestJoin_EmptySeparator(t *testing.T) {
	f := Join("", Raw("count("), Raw("x"), Raw(")"))
	if f.SQL != "count(x)" {
		t.Errorf("SQL = %q, want %q", f.SQL, "count(x)")
	}
}

func TestInterp_SubstitutesSlots(t *testing.T) {
	f, err := Interp("instr($string, $substring) - 1", map[string]Fragment{
		"string":    Param("haystack"),
		"substring": Param("needle"),
	})
	if err != nil {
		t.Fatalf("Interp() failed: %v", err)
	}
	if f.SQL != "instr(?, ?) - 1" {
		t.Errorf("SQL = %q", f.SQL)
	}
	// Args follow slot order in the template, not map order
	want := []any{"haystack", "needle"}
	if !reflect.DeepEqual(f.Args, want) {
		t.Errorf("Args = %v, want %v", f.Args, want)
	}
}

func TestInterp_SlotOrderControlsArgOrder(t *testing.T) {
	f, err := Interp("$b, $a", map[string]Fragment{
		"a": Param(1),
		"b": Param(2),
	})
	if err != nil {
		t.Fatalf("Interp() failed: %v", err)
	}
	want := []any{2, 1}
	if !reflect.DeepEqual(f.Args, want) {
		t.Errorf("Args = %v, want %v", f.Args, want)
	}
}

func TestInterp_RepeatedSlotDuplicatesArgs(t *testing.T) {
	f, err := Interp("POSITION($substring IN $string) + length($substring)", map[string]Fragment{
		"string":    Param("s"),
		"substring": Param("sub"),
	})
	if err != nil {
		t.Fatalf("Interp() failed: %v", err)
	}
	want := []any{"sub", "s", "sub"}
	if !reflect.DeepEqual(f.Args, want) {
		t.Errorf("Args = %v, want %v", f.Args, want)
	}
}

func TestInterp_MissingBinding(t *testing.T) {
	_, err := Interp("f($x)", map[string]Fragment{})
	if err == nil {
		t.Fatal("expected error for unbound slot, got nil")
	}
}

func TestInterp_UnusedBinding(t *testing.T) {
	_, err := Interp("f(1)", map[string]Fragment{"x": Param(1)})
	if err == nil {
		t.Fatal("expected error for never-referenced binding, got nil")
	}
}

func TestInterp_BareDollar(t *testing.T) {
	_, err := Interp("SELECT $ FROM t", map[string]Fragment{})
	if err == nil {
		t.Fatal("expected error for bare $, got nil")
	}
}

func TestFinalize_QuestionMarkers(t *testing.T) {
	sql, args, err := Finalize(Fragment{SQL: "a = ? AND b = ?", Args: []any{1, 2}}, false)
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if sql != "a = ? AND b = ?" {
		t.Errorf("sql = %q", sql)
	}
	if !reflect.DeepEqual(args, []any{1, 2}) {
		t.Errorf("args = %v", args)
	}
}

func TestFinalize_NumberedMarkers(t *testing.T) {
	sql, _, err := Finalize(Fragment{SQL: "a = ? AND b = ? AND c = ?", Args: []any{1, 2, 3}}, true)
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if sql != "a = $1 AND b = $2 AND c = $3" {
		t.Errorf("sql = %q", sql)
	}
}

func TestFinalize_MarkerCountMismatch(t *testing.T) {
	_, _, err := Finalize(Fragment{SQL: "a = ?", Args: []any{1, 2}}, false)
	if err == nil {
		t.Fatal("expected error for marker/arg mismatch, got nil")
	}
}
