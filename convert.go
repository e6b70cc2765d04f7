package gocas

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/dmoretti/gocas/minisym"
)

// An UnsupportedConversionError reports a construct on either side of the
// minisym bridge with no mapping. It carries the offending value; the
// bridge is deliberately incomplete and fails fast rather than guessing.
type UnsupportedConversionError struct{ Value any }

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("gocas: unsupported construct in conversion: %v", e.Value)
}

// minisymEvaluator lazily builds the outbound dispatch table. It
// constructs raw minisym composites (never the simplifying constructors)
// so a supported expression round-trips to the identical canonical node.
func (s *System) minisymEvaluator() *Evaluator[minisym.Expr] {
	s.msOnce.Do(func() {
		ev := NewEvaluator[minisym.Expr]()
		AddAtom(ev, s.Integer, func(v *big.Int) minisym.Expr {
			return minisym.Num{V: minisym.Rational{Rat: new(big.Rat).SetInt(v)}}
		})
		AddAtom(ev, s.Symbol, func(name string) minisym.Expr {
			return minisym.Sym{Name: name}
		})
		AddAtom(ev, s.Function, func(name string) minisym.Expr {
			return minisym.Func{Name: name}
		})
		ev.AddOp1(s.Sin.node, func(a minisym.Expr) minisym.Expr {
			return minisym.Func{Name: "sin", Args: []minisym.Expr{a}}
		})
		ev.AddOp1(s.Cos.node, func(a minisym.Expr) minisym.Expr {
			return minisym.Func{Name: "cos", Args: []minisym.Expr{a}}
		})
		ev.AddOp2(s.Pow.node, func(b, e minisym.Expr) minisym.Expr {
			return minisym.Pow{Base: b, Exp: e}
		})
		ev.AddOpN(s.Add.node, func(args []minisym.Expr) minisym.Expr {
			return minisym.Add{Terms: args}
		})
		ev.AddOpN(s.Mul.node, func(args []minisym.Expr) minisym.Expr {
			return minisym.Mul{Factors: args}
		})
		s.msEval = ev.Freeze()
	})
	return s.msEval
}

// ToMinisym exports e to the minisym system. A head outside the mapped
// vocabulary (an applied user function, say) fails with
// *UnsupportedConversionError naming the node.
func (s *System) ToMinisym(e *Expr) (minisym.Expr, error) {
	if e == nil || e.sys != s {
		panic(&ConstructionError{Reason: "export of expression from a different system"})
	}
	me, err := s.minisymEvaluator().Eval(e.node, nil)
	if err != nil {
		var uh *UnhandledHeadError
		if errors.As(err, &uh) {
			return nil, &UnsupportedConversionError{Value: uh.Node}
		}
		return nil, err
	}
	return me, nil
}

// FromMinisym imports a minisym expression by structural case analysis
// over its taxonomy. Constructs with no mapping (non-integer rationals,
// applied functions other than sin and cos, unevaluated infinities) fail
// with *UnsupportedConversionError carrying the offending value.
func (s *System) FromMinisym(me minisym.Expr) (*Expr, error) {
	if me == nil {
		panic(&ConstructionError{Reason: "import of nil minisym expression"})
	}
	n, err := s.fromMinisym(me)
	if err != nil {
		return nil, err
	}
	return s.wrap(n), nil
}

func (s *System) fromMinisym(me minisym.Expr) (*Node, error) {
	switch v := me.(type) {
	case minisym.Num:
		if !v.V.IsInt() {
			return nil, &UnsupportedConversionError{Value: v}
		}
		return s.BigInt(v.V.Num()).node, nil
	case minisym.Sym:
		return s.Sym(v.Name).node, nil
	case minisym.Add:
		args, err := s.fromMinisymSlice(v.Terms, v)
		if err != nil {
			return nil, err
		}
		return s.ar.Call(s.Add.node, args...), nil
	case minisym.Mul:
		args, err := s.fromMinisymSlice(v.Factors, v)
		if err != nil {
			return nil, err
		}
		return s.ar.Call(s.Mul.node, args...), nil
	case minisym.Pow:
		b, err := s.fromMinisym(v.Base)
		if err != nil {
			return nil, errors.Wrap(err, "base of pow")
		}
		x, err := s.fromMinisym(v.Exp)
		if err != nil {
			return nil, errors.Wrap(err, "exponent of pow")
		}
		return s.ar.Call(s.Pow.node, b, x), nil
	case minisym.Func:
		switch {
		case v.Name == "sin" && len(v.Args) == 1:
			a, err := s.fromMinisym(v.Args[0])
			if err != nil {
				return nil, errors.Wrap(err, "argument of sin")
			}
			return s.ar.Call(s.Sin.node, a), nil
		case v.Name == "cos" && len(v.Args) == 1:
			a, err := s.fromMinisym(v.Args[0])
			if err != nil {
				return nil, errors.Wrap(err, "argument of cos")
			}
			return s.ar.Call(s.Cos.node, a), nil
		case len(v.Args) == 0:
			return s.Func(v.Name).node, nil
		}
		// Special functions (gamma, erf, ...) have no kernel mapping.
		return nil, &UnsupportedConversionError{Value: v}
	case minisym.Inf:
		return nil, &UnsupportedConversionError{Value: v}
	}
	return nil, &UnsupportedConversionError{Value: me}
}

func (s *System) fromMinisymSlice(parts []minisym.Expr, parent minisym.Expr) ([]*Node, error) {
	out := make([]*Node, len(parts))
	for i, p := range parts {
		n, err := s.fromMinisym(p)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d of %s", i, parent)
		}
		out[i] = n
	}
	return out, nil
}
