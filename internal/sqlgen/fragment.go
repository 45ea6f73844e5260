// Package sqlgen assembles parameterized SQL text.
//
// The unit of composition is Fragment: SQL text plus the bind values it
// references, in positional order. Fragments are built from templates with
// $name interpolation slots and combined by concatenation; user values never
// appear in the SQL text itself, only in the argument list. A fragment is
// rendered for a concrete driver at the very end, when ? markers are
// rewritten into the placeholder syntax the backend expects.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
)

// Fragment is a piece of SQL text plus the bind parameters it references.
// Args are ordered to match the ? markers in SQL left to right.
type Fragment struct {
	SQL  string
	Args []any
}

// Raw returns a fragment of literal SQL text with no parameters.
func Raw(sql string) Fragment {
	return Fragment{SQL: sql}
}

// Param returns a fragment holding a single bind parameter.
func Param(v any) Fragment {
	return Fragment{SQL: "?", Args: []any{v}}
}

// Join concatenates fragments with sep between their SQL texts,
// appending their parameters in order.
func Join(sep string, frags ...Fragment) Fragment {
	if len(frags) == 1 {
		return frags[0]
	}
	parts := make([]string, len(frags))
	var args []any
	for i, f := range frags {
		parts[i] = f.SQL
		args = append(args, f.Args...)
	}
	return Fragment{SQL: strings.Join(parts, sep), Args: args}
}

// Interp substitutes $name slots in template with the named fragments.
// Parameters merge in the order the slots appear in the template, so the
// resulting fragment keeps its ? markers aligned with Args. A slot with no
// matching bind is an error; so is a bind no slot consumes. A slot may be
// referenced more than once, duplicating its parameters each time.
func Interp(template string, binds map[string]Fragment) (Fragment, error) {
	var out strings.Builder
	var args []any
	used := make(map[string]bool, len(binds))

	for i := 0; i < len(template); {
		c := template[i]
		if c != '$' {
			out.WriteByte(c)
			i++
			continue
		}
		j := i + 1
		for j < len(template) && isSlotChar(template[j]) {
			j++
		}
		name := template[i+1 : j]
		if name == "" {
			return Fragment{}, fmt.Errorf("sql template: bare $ at offset %d", i)
		}
		bind, ok := binds[name]
		if !ok {
			return Fragment{}, fmt.Errorf("sql template: no binding for $%s", name)
		}
		used[name] = true
		out.WriteString(bind.SQL)
		args = append(args, bind.Args...)
		i = j
	}

	for name := range binds {
		if !used[name] {
			return Fragment{}, fmt.Errorf("sql template: binding $%s never referenced", name)
		}
	}
	return Fragment{SQL: out.String(), Args: args}, nil
}

func isSlotChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// Finalize renders a fragment for execution. When numbered is true the ?
// markers are rewritten to $1..$n positional placeholders; otherwise the
// text is returned as is. The marker count must match the argument count.
func Finalize(f Fragment, numbered bool) (string, []any, error) {
	markers := strings.Count(f.SQL, "?")
	if markers != len(f.Args) {
		return "", nil, fmt.Errorf("sql render: %d placeholders for %d arguments", markers, len(f.Args))
	}
	if !numbered {
		return f.SQL, f.Args, nil
	}
	var out strings.Builder
	out.Grow(len(f.SQL))
	n := 0
	for i := 0; i < len(f.SQL); i++ {
		if f.SQL[i] != '?' {
			out.WriteByte(f.SQL[i])
			continue
		}
		n++
		out.WriteByte('$')
		out.WriteString(strconv.Itoa(n))
	}
	return out.String(), f.Args, nil
}
