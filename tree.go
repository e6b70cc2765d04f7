package gocas

import (
	"strconv"
	"strings"
	"sync"
)

// A ConstructionError is the panic value for attempts to build invalid
// structure: nil nodes, nodes from a different arena, or registration on a
// frozen evaluator.
type ConstructionError struct{ Reason string }

func (e *ConstructionError) Error() string { return "gocas: " + e.Reason }

// A Node is a canonical expression: either a leaf (atom type plus native
// value) or a call (head node applied to ordered argument nodes). Nodes are
// immutable and interned per arena, so n1 == n2 holds exactly when the two
// are structurally equal. Nodes are safe to use as map keys.
type Node struct {
	ar *Arena
	id uint64

	// Leaf fields. atomType holds the *AtomType[T] that built the leaf
	// and doubles as the evaluator dispatch key; nil for call nodes.
	atomType any
	atomName string
	value    any
	key      string

	// Call fields.
	head *Node
	args []*Node
}

// IsLeaf reports whether n is an atom.
func (n *Node) IsLeaf() bool { return n.atomType != nil }

// Head returns the head of a call node, or nil for a leaf.
func (n *Node) Head() *Node { return n.head }

// Args returns the argument nodes of a call. The slice must not be
// modified.
func (n *Node) Args() []*Node { return n.args }

// Value returns the native value of a leaf, or nil for a call node.
func (n *Node) Value() any { return n.value }

// Arena returns the owning arena.
func (n *Node) Arena() *Arena { return n.ar }

// String renders the raw structural form, e.g. "Add(x, Mul(-1, x))". This
// is a debugging aid used in error text; user-facing rendering goes
// through the facade's evaluators.
func (n *Node) String() string {
	if n.IsLeaf() {
		return n.key
	}
	var b strings.Builder
	b.WriteString(n.head.String())
	b.WriteByte('(')
	for i, a := range n.args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

type leafKey struct {
	typ any
	key string
}

// An Arena owns one session's canonicalization caches. Arenas are
// independent and disposable: dropping the last reference to an arena
// releases every node it interned. Nodes from different arenas must never
// be mixed; constructors panic if they are.
//
// Lookup-or-insert on the caches is a single atomic unit under one mutex,
// so an arena may be shared between goroutines without ever producing two
// canonical nodes for equal structure.
type Arena struct {
	mu     sync.Mutex
	nextID uint64
	leaves map[leafKey]*Node
	calls  map[string]*Node
}

// NewArena creates an empty session.
func NewArena() *Arena {
	return &Arena{
		leaves: make(map[leafKey]*Node),
		calls:  make(map[string]*Node),
	}
}

// Size returns the number of distinct nodes interned so far.
func (ar *Arena) Size() int {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return len(ar.leaves) + len(ar.calls)
}

// Leaf interns an atom. Repeated calls with an equal value return the
// identical node. A top-level function rather than a method because Go
// methods cannot introduce type parameters.
func Leaf[T any](ar *Arena, typ *AtomType[T], value T) *Node {
	if ar == nil {
		panic(&ConstructionError{Reason: "leaf arena is nil"})
	}
	if typ == nil {
		panic(&ConstructionError{Reason: "leaf atom type is nil"})
	}
	k := leafKey{typ: typ, key: typ.key(value)}
	ar.mu.Lock()
	defer ar.mu.Unlock()
	if n, ok := ar.leaves[k]; ok {
		return n
	}
	ar.nextID++
	n := &Node{
		ar:       ar,
		id:       ar.nextID,
		atomType: typ,
		atomName: typ.name,
		value:    value,
		key:      k.key,
	}
	ar.leaves[k] = n
	return n
}

// Call interns a call node. The head and every argument must already be
// canonical nodes of this arena, which is what makes cycles impossible:
// a node can only refer to nodes that existed before it.
func (ar *Arena) Call(head *Node, args ...*Node) *Node {
	if head == nil {
		panic(&ConstructionError{Reason: "call head is nil"})
	}
	if head.ar != ar {
		panic(&ConstructionError{Reason: "call head belongs to a different arena"})
	}
	for i, a := range args {
		if a == nil {
			panic(&ConstructionError{Reason: "call argument " + strconv.Itoa(i) + " is nil"})
		}
		if a.ar != ar {
			panic(&ConstructionError{Reason: "call argument " + strconv.Itoa(i) + " belongs to a different arena"})
		}
	}
	key := callKey(head, args)
	ar.mu.Lock()
	defer ar.mu.Unlock()
	if n, ok := ar.calls[key]; ok {
		return n
	}
	ar.nextID++
	n := &Node{
		ar:   ar,
		id:   ar.nextID,
		head: head,
		args: append([]*Node(nil), args...),
	}
	ar.calls[key] = n
	return n
}

// callKey builds the structural key of a call from the interned ids of its
// head and arguments.
func callKey(head *Node, args []*Node) string {
	b := make([]byte, 0, 4+8*len(args))
	b = strconv.AppendUint(b, head.id, 10)
	for _, a := range args {
		b = append(b, ',')
		b = strconv.AppendUint(b, a.id, 10)
	}
	return string(b)
}
