package gocas

// An UnhandledHeadError reports a node an Evaluator has no rule for: a call
// whose head has no registered operation of matching shape, or a leaf whose
// atom type has no handler and no substitution. There is never a default.
type UnhandledHeadError struct{ Node *Node }

func (e *UnhandledHeadError) Error() string {
	if e.Node.IsLeaf() {
		return "gocas: no handler for " + e.Node.atomName + " atom " + e.Node.String()
	}
	return "gocas: no handler for head " + e.Node.head.String()
}

// An Evaluator derives a result of type R from a canonical tree by
// post-order dispatch: atom handlers keyed by atom type, fixed-arity and
// variadic operations keyed by head node identity.
//
// An Evaluator is assembled by registration calls and then frozen; the
// first Eval freezes it implicitly. Registration after freezing panics.
// A frozen Evaluator is immutable and safe for concurrent use.
type Evaluator[R any] struct {
	atoms  map[any]func(any) R
	op1    map[*Node]func(R) R
	op2    map[*Node]func(R, R) R
	opn    map[*Node]func([]R) R
	frozen bool
}

// NewEvaluator creates an empty dispatch table.
func NewEvaluator[R any]() *Evaluator[R] {
	return &Evaluator[R]{
		atoms: make(map[any]func(any) R),
		op1:   make(map[*Node]func(R) R),
		op2:   make(map[*Node]func(R, R) R),
		opn:   make(map[*Node]func([]R) R),
	}
}

// AddAtom registers a handler for leaves of the given atom type. A
// top-level function because Go methods cannot introduce type parameters.
func AddAtom[R, T any](e *Evaluator[R], typ *AtomType[T], fn func(T) R) {
	e.checkOpen()
	if typ == nil || fn == nil {
		panic(&ConstructionError{Reason: "atom handler registration needs a type and a function"})
	}
	e.atoms[typ] = func(v any) R { return fn(v.(T)) }
}

// AddOp1 registers a unary operation for calls with the given head.
func (e *Evaluator[R]) AddOp1(head *Node, fn func(R) R) {
	e.checkHead(head, fn == nil)
	e.op1[head] = fn
}

// AddOp2 registers a binary operation for calls with the given head.
func (e *Evaluator[R]) AddOp2(head *Node, fn func(a, b R) R) {
	e.checkHead(head, fn == nil)
	e.op2[head] = fn
}

// AddOpN registers a variadic operation for calls with the given head. It
// receives the evaluated results of all arguments in order.
func (e *Evaluator[R]) AddOpN(head *Node, fn func(args []R) R) {
	e.checkHead(head, fn == nil)
	e.opn[head] = fn
}

func (e *Evaluator[R]) checkHead(head *Node, nilFn bool) {
	e.checkOpen()
	if head == nil || nilFn {
		panic(&ConstructionError{Reason: "operation registration needs a head and a function"})
	}
}

func (e *Evaluator[R]) checkOpen() {
	if e.frozen {
		panic(&ConstructionError{Reason: "evaluator is frozen"})
	}
}

// Freeze seals the dispatch table. Returns e for chaining.
func (e *Evaluator[R]) Freeze() *Evaluator[R] {
	e.frozen = true
	return e
}

// Eval evaluates n post-order. A leaf present in subs returns its mapped
// value directly, bypassing any atom handler; other leaves dispatch on
// their atom type. A call first evaluates all arguments, then dispatches on
// exact head identity: a fixed-arity operation whose arity matches, else a
// variadic operation, else *UnhandledHeadError.
//
// Within one Eval call results are memoized by node identity, so a
// subexpression shared N times is computed once.
func (e *Evaluator[R]) Eval(n *Node, subs map[*Node]R) (R, error) {
	if n == nil {
		panic(&ConstructionError{Reason: "evaluate nil node"})
	}
	// Keep the frozen path read-only so a frozen Evaluator can be shared.
	if !e.frozen {
		e.frozen = true
	}
	memo := make(map[*Node]R)
	return e.eval(n, subs, memo)
}

func (e *Evaluator[R]) eval(n *Node, subs, memo map[*Node]R) (R, error) {
	var zero R
	if r, ok := memo[n]; ok {
		return r, nil
	}
	if n.IsLeaf() {
		if r, ok := subs[n]; ok {
			memo[n] = r
			return r, nil
		}
		fn, ok := e.atoms[n.atomType]
		if !ok {
			return zero, &UnhandledHeadError{Node: n}
		}
		r := fn(n.value)
		memo[n] = r
		return r, nil
	}
	vals := make([]R, len(n.args))
	for i, a := range n.args {
		v, err := e.eval(a, subs, memo)
		if err != nil {
			return zero, err
		}
		vals[i] = v
	}
	var r R
	switch {
	case len(vals) == 1 && e.op1[n.head] != nil:
		r = e.op1[n.head](vals[0])
	case len(vals) == 2 && e.op2[n.head] != nil:
		r = e.op2[n.head](vals[0], vals[1])
	case e.opn[n.head] != nil:
		r = e.opn[n.head](vals)
	default:
		return zero, &UnhandledHeadError{Node: n}
	}
	memo[n] = r
	return r, nil
}
