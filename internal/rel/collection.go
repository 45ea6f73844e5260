package rel

// Collection is an aggregation input.
//
// This is a sealed interface - only types in this package implement it.
// Operations that accept "a column or a list" take a Collection and
// normalize every variant to the same internal shape before dispatch.
//
// Collection variants:
//   - Aggregate: a column expression already in aggregation state
//   - ScalarColumn: a relation viewed through one of its columns
//   - NestedCollection: an ordered sequence whose items are themselves
//     collections, aggregated independently and in order
type Collection interface {
	collectionNode() // Marker method - seals interface to this package
}

// Aggregate is an aggregation-ready column expression: applying a SQL
// aggregate call to Elem directly is well formed.
type Aggregate struct {
	Elem Expr
}

func (Aggregate) collectionNode() {}

// ScalarColumn is a relation viewed through a single column.
//
// Col may be empty, meaning "the relation's only column": the dispatcher
// then requires Source to have exactly one column and infers the element
// type from it. A named Col selects the aggregation target out of a wider
// relation.
type ScalarColumn struct {
	Source *Relation
	Col    string
}

func (ScalarColumn) collectionNode() {}

// NestedCollection is an ordered in-memory sequence of collections.
// Aggregating it reduces each item independently, preserving order.
type NestedCollection struct {
	Items []Collection
}

func (NestedCollection) collectionNode() {}
