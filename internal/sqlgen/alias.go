package sqlgen

import (
	"fmt"
	"sync/atomic"
)

// Aliases hands out unique relation aliases from a monotone counter.
// Every derived relation a compilation produces gets a fresh name, so
// nested subqueries never shadow each other. Safe for concurrent use.
type Aliases struct {
	n atomic.Int64
}

// Next returns the next alias for the given prefix, e.g. bfs_3.
func (a *Aliases) Next(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, a.n.Add(1))
}
