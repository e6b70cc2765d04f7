package gocas

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/dmoretti/gocas/minisym"
)

// A CoercionError is the panic value when an arithmetic method receives an
// operand that cannot be converted to an expression of the same system.
// Checked callers use System.Expressify instead.
type CoercionError struct{ Value any }

func (e *CoercionError) Error() string {
	return fmt.Sprintf("gocas: cannot coerce %T value to an expression", e.Value)
}

// A System is one self-contained algebra session: an arena, the standard
// atom types and heads, the rendering and float evaluators, and the
// differentiation rule table. Systems are independent; expressions from
// one system cannot be combined with another's.
type System struct {
	ar *Arena

	// Standard atom types.
	Integer  *AtomType[*big.Int]
	Symbol   *AtomType[string]
	Function *AtomType[string]

	// Interned integer constants.
	Zero, One, NegOne *Expr

	// Standard heads. Add and Mul are variadic in the tree even though the
	// arithmetic methods only ever build them binary.
	Add, Mul, Pow, Sin, Cos *Expr

	mu    sync.Mutex
	exprs map[*Node]*Expr

	reprEval *Evaluator[string]
	texEval  *Evaluator[string]
	f64Eval  *Evaluator[float64]

	diffRules map[*Node]DiffRule

	msOnce sync.Once
	msEval *Evaluator[minisym.Expr]
}

// An Expr is the user-level value wrapping exactly one canonical node.
// Exprs are canonicalized 1:1 with their nodes, so e1 == e2 (pointer
// equality) holds exactly when the wrapped expressions are structurally
// equal.
type Expr struct {
	sys  *System
	node *Node
}

// Node returns the wrapped canonical node.
func (e *Expr) Node() *Node { return e.node }

// System returns the owning system.
func (e *Expr) System() *System { return e.sys }

func ident(s string) string { return s }

// NewSystem creates a fresh session with the standard atoms, heads,
// rendering and float evaluators, and differentiation rules installed.
func NewSystem() *System {
	s := &System{
		ar:        NewArena(),
		exprs:     make(map[*Node]*Expr),
		diffRules: make(map[*Node]DiffRule),
	}
	s.Integer = NewAtomType[*big.Int]("Integer", (*big.Int).String)
	s.Symbol = NewAtomType[string]("Symbol", ident)
	s.Function = NewAtomType[string]("Function", ident)

	s.Zero = s.Int(0)
	s.One = s.Int(1)
	s.NegOne = s.Int(-1)

	s.Add = s.Func("Add")
	s.Mul = s.Func("Mul")
	s.Pow = s.Func("pow")
	s.Sin = s.Func("sin")
	s.Cos = s.Func("cos")

	s.reprEval = s.newReprEvaluator()
	s.texEval = s.newLaTeXEvaluator()
	s.f64Eval = s.newF64Evaluator()
	s.installDiffRules()
	return s
}

// Arena returns the system's arena for direct core-level construction.
func (s *System) Arena() *Arena { return s.ar }

// wrap canonicalizes a node as a facade value through the second identity
// cache.
func (s *System) wrap(n *Node) *Expr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.exprs[n]; ok {
		return e
	}
	e := &Expr{sys: s, node: n}
	s.exprs[n] = e
	return e
}

// Wrap canonicalizes an existing node of this system's arena as an Expr.
func (s *System) Wrap(n *Node) *Expr {
	if n == nil {
		panic(&ConstructionError{Reason: "wrap nil node"})
	}
	if n.ar != s.ar {
		panic(&ConstructionError{Reason: "wrap node from a different arena"})
	}
	return s.wrap(n)
}

// Declare registers a new leaf category and returns its atom type together
// with a constructor for facade values of that category. The atom type is
// what evaluator handlers are registered against.
func Declare[T any](s *System, name string, key func(T) string) (*AtomType[T], func(T) *Expr) {
	typ := NewAtomType[T](name, key)
	ctor := func(v T) *Expr { return s.wrap(Leaf(s.ar, typ, v)) }
	return typ, ctor
}

// Int interns an integer literal.
func (s *System) Int(n int64) *Expr { return s.BigInt(big.NewInt(n)) }

// BigInt interns an arbitrary-precision integer literal. The value is
// copied.
func (s *System) BigInt(v *big.Int) *Expr {
	if v == nil {
		panic(&ConstructionError{Reason: "nil *big.Int literal"})
	}
	return s.wrap(Leaf(s.ar, s.Integer, new(big.Int).Set(v)))
}

// Sym interns a named symbol. Names are normalized to NFC before
// interning so that visually identical spellings share one leaf.
func (s *System) Sym(name string) *Expr {
	return s.wrap(Leaf(s.ar, s.Symbol, norm.NFC.String(name)))
}

// Func interns a named function. Applying it with Call builds symbolic
// function application.
func (s *System) Func(name string) *Expr {
	return s.wrap(Leaf(s.ar, s.Function, norm.NFC.String(name)))
}

// Expressify converts a native value to an expression of this system.
// Accepted literals: *Expr (of this system), int, int64, *big.Int.
func (s *System) Expressify(v any) (*Expr, error) {
	switch x := v.(type) {
	case *Expr:
		if x == nil || x.sys != s {
			return nil, &CoercionError{Value: v}
		}
		return x, nil
	case int:
		return s.Int(int64(x)), nil
	case int64:
		return s.Int(x), nil
	case *big.Int:
		return s.BigInt(x), nil
	}
	return nil, &CoercionError{Value: v}
}

func (s *System) expressify(v any) *Expr {
	e, err := s.Expressify(v)
	if err != nil {
		panic(err)
	}
	return e
}

// apply builds the canonical call head(args...) and wraps it.
func (s *System) apply(head *Expr, args ...*Expr) *Expr {
	nodes := make([]*Node, len(args))
	for i, a := range args {
		nodes[i] = a.node
	}
	return s.wrap(s.ar.Call(head.node, nodes...))
}

// Pos returns e unchanged.
func (e *Expr) Pos() *Expr { return e }

// Neg builds Mul(-1, e).
func (e *Expr) Neg() *Expr { return e.sys.apply(e.sys.Mul, e.sys.NegOne, e) }

// Add builds Add(e, other). Like the other arithmetic methods it accepts
// an expression or an integer literal and panics with *CoercionError on
// anything else.
func (e *Expr) Add(other any) *Expr {
	return e.sys.apply(e.sys.Add, e, e.sys.expressify(other))
}

// Sub builds Add(e, Mul(-1, other)). Subtraction is never collapsed:
// x.Sub(x) is Add(x, Mul(-1, x)), not zero.
func (e *Expr) Sub(other any) *Expr {
	return e.sys.apply(e.sys.Add, e, e.sys.expressify(other).Neg())
}

// Mul builds Mul(e, other).
func (e *Expr) Mul(other any) *Expr {
	return e.sys.apply(e.sys.Mul, e, e.sys.expressify(other))
}

// Div builds Mul(e, Pow(other, -1)).
func (e *Expr) Div(other any) *Expr {
	o := e.sys.expressify(other)
	return e.sys.apply(e.sys.Mul, e, e.sys.apply(e.sys.Pow, o, e.sys.NegOne))
}

// Pow builds Pow(e, other).
func (e *Expr) Pow(other any) *Expr {
	return e.sys.apply(e.sys.Pow, e, e.sys.expressify(other))
}

// Call applies e as a function head to the given arguments, the mechanism
// for symbolic function application: sys.Sin.Call(x) is sin(x).
func (e *Expr) Call(args ...any) *Expr {
	exprs := make([]*Expr, len(args))
	for i, a := range args {
		exprs[i] = e.sys.expressify(a)
	}
	return e.sys.apply(e, exprs...)
}

// ============================================================
// Rendering
// ============================================================

func (s *System) newReprEvaluator() *Evaluator[string] {
	ev := NewEvaluator[string]()
	AddAtom(ev, s.Integer, (*big.Int).String)
	AddAtom(ev, s.Symbol, ident)
	AddAtom(ev, s.Function, ident)
	ev.AddOp1(s.Sin.node, func(a string) string { return "sin(" + a + ")" })
	ev.AddOp1(s.Cos.node, func(a string) string { return "cos(" + a + ")" })
	ev.AddOp2(s.Pow.node, func(b, e string) string { return b + "**" + e })
	ev.AddOpN(s.Add.node, func(args []string) string {
		return "(" + strings.Join(args, " + ") + ")"
	})
	ev.AddOpN(s.Mul.node, func(args []string) string {
		return "(" + strings.Join(args, "*") + ")"
	})
	return ev.Freeze()
}

func (s *System) newLaTeXEvaluator() *Evaluator[string] {
	ev := NewEvaluator[string]()
	AddAtom(ev, s.Integer, (*big.Int).String)
	AddAtom(ev, s.Symbol, ident)
	AddAtom(ev, s.Function, ident)
	ev.AddOp1(s.Sin.node, func(a string) string { return `\sin(` + a + `)` })
	ev.AddOp1(s.Cos.node, func(a string) string { return `\cos(` + a + `)` })
	ev.AddOp2(s.Pow.node, func(b, e string) string { return b + "^{" + e + "}" })
	ev.AddOpN(s.Add.node, func(args []string) string {
		return "(" + strings.Join(args, " + ") + ")"
	})
	ev.AddOpN(s.Mul.node, func(args []string) string {
		return "(" + strings.Join(args, ` \times `) + ")"
	})
	return ev.Freeze()
}

// Repr renders the fully parenthesized plain-text form, e.g.
// "((x + x) + x)" or "sin(cos(x))". It fails on any head the text
// evaluator has no rule for; there is no fallback rendering.
func (e *Expr) Repr() (string, error) {
	return e.sys.reprEval.Eval(e.node, nil)
}

// LaTeX renders the typeset form. Fails on unregistered heads.
func (e *Expr) LaTeX() (string, error) {
	return e.sys.texEval.Eval(e.node, nil)
}

// ============================================================
// Float evaluation
// ============================================================

func (s *System) newF64Evaluator() *Evaluator[float64] {
	ev := NewEvaluator[float64]()
	AddAtom(ev, s.Integer, func(v *big.Int) float64 {
		f, _ := new(big.Float).SetInt(v).Float64()
		return f
	})
	ev.AddOp1(s.Sin.node, math.Sin)
	ev.AddOp1(s.Cos.node, math.Cos)
	ev.AddOp2(s.Pow.node, math.Pow)
	ev.AddOpN(s.Add.node, fsum)
	ev.AddOpN(s.Mul.node, fprod)
	return ev.Freeze()
}

// fsum is Neumaier-compensated summation over the full term list: the
// accumulation is stable rather than a naive pairwise fold.
func fsum(xs []float64) float64 {
	var sum, comp float64
	for _, x := range xs {
		t := sum + x
		if math.Abs(sum) >= math.Abs(x) {
			comp += (sum - t) + x
		} else {
			comp += (x - t) + sum
		}
		sum = t
	}
	return sum + comp
}

func fprod(xs []float64) float64 {
	p := 1.0
	for _, x := range xs {
		p *= x
	}
	return p
}

// EvalF64 evaluates the expression as an IEEE double. Free symbols are
// bound through vals, which maps leaf expressions directly to their
// numeric values; Integer literals convert via their native value. An
// unbound symbol or an unregistered head fails with *UnhandledHeadError.
func (e *Expr) EvalF64(vals map[*Expr]float64) (float64, error) {
	var subs map[*Node]float64
	if len(vals) > 0 {
		subs = make(map[*Node]float64, len(vals))
		for k, v := range vals {
			if k == nil || k.sys != e.sys {
				panic(&ConstructionError{Reason: "binding for expression of a different system"})
			}
			subs[k.node] = v
		}
	}
	return e.sys.f64Eval.Eval(e.node, subs)
}
