package gocas

import (
	set "github.com/hashicorp/go-set/v2"
)

// CountOpsGraph returns the number of distinct canonical nodes reachable
// from e through argument edges, computed in one traversal memoized by
// node identity. Heads are operator tokens, not counted nodes. Linear in
// the size of the DAG.
func (e *Expr) CountOpsGraph() int {
	seen := set.New[*Node](64)
	var walk func(n *Node)
	walk = func(n *Node) {
		if !seen.Insert(n) {
			return
		}
		for _, a := range n.args {
			walk(a)
		}
	}
	walk(e.node)
	return seen.Size()
}

// CountOpsTree returns the node count of the fully unshared expansion:
// every occurrence of a shared subexpression along every root-to-node path
// counts separately. The recursion is deliberately unmemoized, so the cost
// is exponential when sharing is heavy: squaring an expression N times
// roughly doubles this count per step while CountOpsGraph grows by a
// constant.
func (e *Expr) CountOpsTree() int {
	return treeCount(e.node)
}

func treeCount(n *Node) int {
	total := 1
	for _, a := range n.args {
		total += treeCount(a)
	}
	return total
}

// FreeSymbols returns the distinct Symbol leaves occurring in e.
func (e *Expr) FreeSymbols() *set.Set[*Expr] {
	syms := set.New[*Expr](8)
	seen := set.New[*Node](64)
	var walk func(n *Node)
	walk = func(n *Node) {
		if !seen.Insert(n) {
			return
		}
		if n.atomType == e.sys.Symbol {
			syms.Insert(e.sys.wrap(n))
			return
		}
		for _, a := range n.args {
			walk(a)
		}
	}
	walk(e.node)
	return syms
}
