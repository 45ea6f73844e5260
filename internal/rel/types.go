package rel

import "strings"

// Type describes the element type of a compiled expression.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and keeps
// type switches in the compiler exhaustive.
type Type interface {
	typeNode() // Marker method - seals interface to this package

	// String returns the display name used in error messages,
	// e.g. "int", "list[string]", "table[id: int, rank: int]".
	String() string

	// Numeric reports whether the type supports arithmetic aggregation.
	Numeric() bool
}

// IntType is a signed integer.
type IntType struct{}

// FloatType is a double-precision float.
type FloatType struct{}

// StringType is a text value.
type StringType struct{}

// BoolType is a boolean.
type BoolType struct{}

// TimestampType is a point in time.
type TimestampType struct{}

// NullType is the type of a null literal with no more specific type.
type NullType struct{}

// UnknownType marks an expression whose type could not be determined.
// It satisfies no capability checks; feeding it to a typed operation
// fails the same way any other wrong kind does.
type UnknownType struct{}

// ListType is an ordered collection of elements of one type. A list
// renders as a single-column relation whose column is named "value".
type ListType struct {
	Elem Type
}

// Column is a named, typed table column.
type Column struct {
	Name string
	Type Type
}

// TableType is a row shape: an ordered set of named columns.
type TableType struct {
	Columns []Column
}

func (IntType) typeNode()       {}
func (FloatType) typeNode()     {}
func (StringType) typeNode()    {}
func (BoolType) typeNode()      {}
func (TimestampType) typeNode() {}
func (NullType) typeNode()      {}
func (UnknownType) typeNode()   {}
func (ListType) typeNode()      {}
func (TableType) typeNode()     {}

func (IntType) String() string       { return "int" }
func (FloatType) String() string     { return "float" }
func (StringType) String() string    { return "string" }
func (BoolType) String() string      { return "bool" }
func (TimestampType) String() string { return "timestamp" }
func (NullType) String() string      { return "nulltype" }
func (UnknownType) String() string   { return "unknown" }

func (t ListType) String() string {
	return "list[" + t.Elem.String() + "]"
}

func (t TableType) String() string {
	var b strings.Builder
	b.WriteString("table[")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
		b.WriteString(": ")
		b.WriteString(c.Type.String())
	}
	b.WriteString("]")
	return b.String()
}

func (IntType) Numeric() bool       { return true }
func (FloatType) Numeric() bool     { return true }
func (StringType) Numeric() bool    { return false }
func (BoolType) Numeric() bool      { return false }
func (TimestampType) Numeric() bool { return false }
func (NullType) Numeric() bool      { return false }
func (UnknownType) Numeric() bool   { return false }
func (ListType) Numeric() bool      { return false }
func (TableType) Numeric() bool     { return false }

// Column returns the named column of a table type.
func (t TableType) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ListColumn is the column name every list relation exposes.
const ListColumn = "value"

// ListTable is the table shape of a list: one "value" column.
func ListTable(elem Type) TableType {
	return TableType{Columns: []Column{{Name: ListColumn, Type: elem}}}
}
