// Package minisym is a small self-contained algebra system used as the
// foreign-conversion target of the gocas kernel. It keeps its own
// conventions: value-typed nodes, exact rational numbers, and a
// deterministic rule-based simplifier. Unlike the kernel it is free to
// rewrite expressions, and it deliberately contains constructs the kernel
// has no mapping for (non-integer rationals, applied functions beyond
// sin and cos, unevaluated infinities).
package minisym

import (
	"math/big"
	"sort"
	"strings"
)

/* =======================
   Rational
======================= */

type Rational struct{ *big.Rat }

func NewInt(n int64) Rational     { return Rational{big.NewRat(n, 1)} }
func NewFrac(a, b int64) Rational { return Rational{big.NewRat(a, b)} }
func Zero() Rational              { return NewInt(0) }
func One() Rational               { return NewInt(1) }

func (r Rational) Add(o Rational) Rational { return Rational{new(big.Rat).Add(r.Rat, o.Rat)} }
func (r Rational) Mul(o Rational) Rational { return Rational{new(big.Rat).Mul(r.Rat, o.Rat)} }
func (r Rational) Neg() Rational           { return Rational{new(big.Rat).Neg(r.Rat)} }
func (r Rational) IsZero() bool            { return r.Sign() == 0 }
func (r Rational) IsOne() bool             { return r.Cmp(big.NewRat(1, 1)) == 0 }
func (r Rational) String() string          { return r.Rat.RatString() }

/* =======================
   Expr Core
======================= */

type Expr interface {
	Simplify() Expr
	String() string
	Sub(varName string, value Expr) Expr
}

/* Public Helpers */

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.Simplify().String() }

/* ---------- Num ---------- */

type Num struct{ V Rational }

func N(n int64) Expr    { return Num{NewInt(n)} }
func F(a, b int64) Expr { return Num{NewFrac(a, b)} }

func (n Num) Simplify() Expr        { return n }
func (n Num) String() string        { return n.V.String() }
func (n Num) Sub(string, Expr) Expr { return n }

/* ---------- Sym ---------- */

type Sym struct{ Name string }

func S(name string) Expr { return Sym{Name: name} }

func (s Sym) Simplify() Expr { return s }
func (s Sym) String() string { return s.Name }
func (s Sym) Sub(v string, val Expr) Expr {
	if s.Name == v {
		return val
	}
	return s
}

/* ---------- Add ---------- */

type Add struct{ Terms []Expr }

func AddOf(terms ...Expr) Expr { return Add{terms}.Simplify() }

func (a Add) Simplify() Expr {
	var flat []Expr
	sum := Zero()

	for _, t := range a.Terms {
		t = t.Simplify()
		switch v := t.(type) {
		case Add:
			flat = append(flat, v.Terms...)
		case Num:
			sum = sum.Add(v.V)
		default:
			flat = append(flat, t)
		}
	}

	if !sum.IsZero() {
		flat = append(flat, Num{sum})
	}

	if len(flat) == 0 {
		return Num{Zero()}
	}
	if len(flat) == 1 {
		return flat[0]
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].String() < flat[j].String()
	})

	return Add{flat}
}

func (a Add) String() string {
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a Add) Sub(v string, val Expr) Expr {
	out := make([]Expr, len(a.Terms))
	for i, t := range a.Terms {
		out[i] = t.Sub(v, val)
	}
	return AddOf(out...)
}

/* ---------- Mul ---------- */

type Mul struct{ Factors []Expr }

func MulOf(factors ...Expr) Expr { return Mul{factors}.Simplify() }

func (m Mul) Simplify() Expr {
	var flat []Expr
	prod := One()

	for _, f := range m.Factors {
		f = f.Simplify()
		switch v := f.(type) {
		case Mul:
			flat = append(flat, v.Factors...)
		case Num:
			prod = prod.Mul(v.V)
		default:
			flat = append(flat, f)
		}
	}

	if prod.IsZero() {
		return Num{Zero()}
	}
	if !prod.IsOne() {
		flat = append(flat, Num{prod})
	}

	if len(flat) == 0 {
		return Num{prod}
	}
	if len(flat) == 1 {
		return flat[0]
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].String() < flat[j].String()
	})

	return Mul{flat}
}

func (m Mul) String() string {
	parts := make([]string, len(m.Factors))
	for i, f := range m.Factors {
		parts[i] = f.String()
	}
	return strings.Join(parts, "*")
}

func (m Mul) Sub(v string, val Expr) Expr {
	out := make([]Expr, len(m.Factors))
	for i, f := range m.Factors {
		out[i] = f.Sub(v, val)
	}
	return MulOf(out...)
}

/* ---------- Pow ---------- */

type Pow struct{ Base, Exp Expr }

func PowOf(b, e Expr) Expr { return Pow{b, e}.Simplify() }

func (p Pow) Simplify() Expr {
	b := p.Base.Simplify()
	e := p.Exp.Simplify()

	if en, ok := e.(Num); ok {
		if en.V.IsZero() {
			return Num{One()}
		}
		if en.V.IsOne() {
			return b
		}
	}

	return Pow{b, e}
}

func (p Pow) String() string {
	return "(" + p.Base.String() + ")^" + p.Exp.String()
}

func (p Pow) Sub(v string, val Expr) Expr {
	return PowOf(p.Base.Sub(v, val), p.Exp.Sub(v, val))
}

/* ---------- Func ---------- */

// Func is a named function application: sin(x), gamma(x), or with no
// arguments an undefined function head.
type Func struct {
	Name string
	Args []Expr
}

func FuncOf(name string, args ...Expr) Expr { return Func{Name: name, Args: args}.Simplify() }

func (f Func) Simplify() Expr {
	out := make([]Expr, len(f.Args))
	for i, a := range f.Args {
		out[i] = a.Simplify()
	}
	return Func{Name: f.Name, Args: out}
}

func (f Func) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (f Func) Sub(v string, val Expr) Expr {
	out := make([]Expr, len(f.Args))
	for i, a := range f.Args {
		out[i] = a.Sub(v, val)
	}
	return Func{Name: f.Name, Args: out}
}

/* ---------- Inf ---------- */

// Inf is an unevaluated signed infinity. It never simplifies away.
type Inf struct{ Sign int }

func (o Inf) Simplify() Expr { return o }
func (o Inf) String() string {
	if o.Sign < 0 {
		return "-oo"
	}
	return "oo"
}
func (o Inf) Sub(string, Expr) Expr { return o }

/* =======================
   Polynomial Utilities
======================= */

func Degree(e Expr, v string) int {
	switch t := e.(type) {

	case Num:
		return 0

	case Sym:
		if t.Name == v {
			return 1
		}
		return 0

	case Add:
		max := 0
		for _, term := range t.Terms {
			d := Degree(term, v)
			if d > max {
				max = d
			}
		}
		return max

	case Mul:
		sum := 0
		for _, f := range t.Factors {
			sum += Degree(f, v)
		}
		return sum

	case Pow:
		if base, ok := t.Base.(Sym); ok && base.Name == v {
			if exp, ok := t.Exp.(Num); ok {
				i, _ := exp.V.Float64()
				return int(i)
			}
		}
	}

	return 0
}
