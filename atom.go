// Package gocas is a small computer-algebra kernel built around hash-consed
// expression trees.
//
// Every expression is a *Node owned by a per-session Arena. Construction
// interns nodes by structural key, so two structurally equal expressions are
// the same pointer and equality is a constant-time identity comparison. On
// top of the tree sit generic post-order Evaluators (text and LaTeX
// rendering, float evaluation, export to the minisym algebra system), a
// structural differentiation engine with an explicit per-head rule table,
// and two op-counting traversals that demonstrate the cost hash-consing
// avoids.
//
// The kernel never rewrites expressions: x - x stays Add(x, Mul(-1, x)).
// Construction with invalid inputs (nil or foreign-arena nodes, operands
// that cannot be coerced, registration on a frozen evaluator) panics with a
// typed value; every fallible operation returns an error instead.
package gocas

// An AtomType describes a category of leaf node tagged with a native value
// type. AtomTypes are identity-bearing: two types with the same name are
// still distinct dispatch keys.
//
// The key function maps a native value to the string used for structural
// interning. It must be injective up to the equality the atom wants, e.g.
// (*big.Int).String for arbitrary-precision integers.
type AtomType[T any] struct {
	name string
	key  func(T) string
}

// NewAtomType declares a leaf category.
func NewAtomType[T any](name string, key func(T) string) *AtomType[T] {
	if name == "" {
		panic(&ConstructionError{Reason: "atom type needs a name"})
	}
	if key == nil {
		panic(&ConstructionError{Reason: "atom type " + name + " needs a key function"})
	}
	return &AtomType[T]{name: name, key: key}
}

// Name returns the declared name of the atom type.
func (t *AtomType[T]) Name() string { return t.name }

func (t *AtomType[T]) String() string { return t.name }
