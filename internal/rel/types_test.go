package rel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	testCases := []struct {
		typ  Type
		want string
	}{
		{IntType{}, "int"},
		{FloatType{}, "float"},
		{StringType{}, "string"},
		{BoolType{}, "bool"},
		{TimestampType{}, "timestamp"},
		{NullType{}, "nulltype"},
		{UnknownType{}, "unknown"},
		{ListType{Elem: IntType{}}, "list[int]"},
		{ListType{Elem: ListType{Elem: StringType{}}}, "list[list[string]]"},
		{TableType{}, "table[]"},
		{TableType{Columns: []Column{
			{Name: "id", Type: IntType{}},
			{Name: "rank", Type: IntType{}},
		}}, "table[id: int, rank: int]"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.typ.String())
		})
	}
}

func TestTypeNumeric(t *testing.T) {
	assert.True(t, IntType{}.Numeric())
	assert.True(t, FloatType{}.Numeric())

	assert.False(t, StringType{}.Numeric())
	assert.False(t, BoolType{}.Numeric())
	assert.False(t, TimestampType{}.Numeric())
	assert.False(t, NullType{}.Numeric())
	assert.False(t, UnknownType{}.Numeric())
	assert.False(t, ListType{Elem: IntType{}}.Numeric())
	assert.False(t, TableType{}.Numeric())
}

func TestTableType_Column(t *testing.T) {
	tt := TableType{Columns: []Column{
		{Name: "src", Type: IntType{}},
		{Name: "dst", Type: IntType{}},
	}}

	col, ok := tt.Column("dst")
	require.True(t, ok)
	assert.Equal(t, "dst", col.Name)
	assert.Equal(t, IntType{}, col.Type)

	_, ok = tt.Column("weight")
	assert.False(t, ok)
}

func TestListTable_Shape(t *testing.T) {
	tt := ListTable(FloatType{})
	require.Len(t, tt.Columns, 1)
	assert.Equal(t, ListColumn, tt.Columns[0].Name)
	assert.Equal(t, FloatType{}, tt.Columns[0].Type)
}

func TestLiteralConstructors(t *testing.T) {
	e := IntVal(7)
	assert.Equal(t, "?", e.Code.SQL)
	assert.Equal(t, []any{int64(7)}, e.Code.Args)
	assert.Equal(t, IntType{}, e.Type)
	assert.Equal(t, StateScalar, e.State)

	assert.Equal(t, FloatType{}, FloatVal(1.5).Type)
	assert.Equal(t, StringType{}, StringVal("x").Type)
	assert.Equal(t, BoolType{}, BoolVal(true).Type)

	n := NullVal()
	assert.Equal(t, "NULL", n.Code.SQL)
	assert.Empty(t, n.Code.Args)
	assert.Equal(t, NullType{}, n.Type)
}

func TestAggStateString(t *testing.T) {
	assert.Equal(t, "scalar", StateScalar.String())
	assert.Equal(t, "aggregate", StateAggregate.String())
	assert.Equal(t, "relation", StateRelation.String())
}
