package gocas_test

import (
	"errors"
	"testing"

	gocas "github.com/dmoretti/gocas"
	"github.com/dmoretti/gocas/minisym"
)

// ============================================================
// Export
// ============================================================

func TestToMinisym_Raw(t *testing.T) {
	sys := gocas.NewSystem()
	x := sys.Sym("x")
	me, err := sys.ToMinisym(x.Add(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Export is structural: no simplification on the way out.
	if me.String() != "x + 1" {
		t.Errorf("want x + 1, got %s", me.String())
	}
}

func TestToMinisym_SubStaysUnreduced(t *testing.T) {
	sys := gocas.NewSystem()
	x := sys.Sym("x")
	me, err := sys.ToMinisym(x.Sub(x))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.String() != "x + -1*x" {
		t.Errorf("want x + -1*x, got %s", me.String())
	}
	// The receiving system is free to rewrite: it flattens, folds numeric
	// parts and sorts terms.
	if minisym.String(me) != "-1*x + x" {
		t.Errorf("want -1*x + x after simplification, got %s", minisym.String(me))
	}
}

func TestToMinisym_Functions(t *testing.T) {
	sys := gocas.NewSystem()
	x := sys.Sym("x")
	me, err := sys.ToMinisym(sys.Sin.Call(sys.Cos.Call(x)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.String() != "sin(cos(x))" {
		t.Errorf("want sin(cos(x)), got %s", me.String())
	}
}

func TestToMinisym_AppliedUserFunctionFails(t *testing.T) {
	sys := gocas.NewSystem()
	x := sys.Sym("x")
	f := sys.Func("f")
	_, err := sys.ToMinisym(f.Call(x))
	var uc *gocas.UnsupportedConversionError
	if !errors.As(err, &uc) {
		t.Fatalf("want *UnsupportedConversionError, got %v", err)
	}
}

func TestToMinisym_ForeignExpressionPanics(t *testing.T) {
	sys := gocas.NewSystem()
	other := gocas.NewSystem()
	wantConstructionPanic(t, func() { sys.ToMinisym(other.Sym("x")) })
}

// ============================================================
// Import
// ============================================================

func TestFromMinisym_RoundTrip(t *testing.T) {
	sys := gocas.NewSystem()
	x := sys.Sym("x")
	e := x.Add(1).Mul(sys.Sin.Call(x)).Pow(2)
	me, err := sys.ToMinisym(e)
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}
	back, err := sys.FromMinisym(me)
	if err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}
	if back != e {
		t.Errorf("round trip should intern to the identical expression")
	}
}

func TestFromMinisym_BareFunctionRoundTrip(t *testing.T) {
	sys := gocas.NewSystem()
	g := sys.Func("g")
	me, err := sys.ToMinisym(g)
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}
	back, err := sys.FromMinisym(me)
	if err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}
	if back != g {
		t.Errorf("bare function name should round-trip to the same leaf")
	}
}

func TestFromMinisym_Composite(t *testing.T) {
	sys := gocas.NewSystem()
	me := minisym.Pow{Base: minisym.Sym{Name: "x"}, Exp: minisym.Num{V: minisym.NewInt(2)}}
	got, err := sys.FromMinisym(me)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sys.Sym("x").Pow(2) {
		t.Errorf("want x**2, got %s", got.Node().String())
	}
}

func TestFromMinisym_NonIntegerRationalFails(t *testing.T) {
	sys := gocas.NewSystem()
	_, err := sys.FromMinisym(minisym.F(1, 2))
	var uc *gocas.UnsupportedConversionError
	if !errors.As(err, &uc) {
		t.Fatalf("want *UnsupportedConversionError, got %v", err)
	}
}

func TestFromMinisym_InfinityFails(t *testing.T) {
	sys := gocas.NewSystem()
	_, err := sys.FromMinisym(minisym.Inf{Sign: 1})
	var uc *gocas.UnsupportedConversionError
	if !errors.As(err, &uc) {
		t.Fatalf("want *UnsupportedConversionError, got %v", err)
	}
}

func TestFromMinisym_SpecialFunctionFails(t *testing.T) {
	sys := gocas.NewSystem()
	me := minisym.Func{Name: "gamma", Args: []minisym.Expr{minisym.Sym{Name: "x"}}}
	_, err := sys.FromMinisym(me)
	var uc *gocas.UnsupportedConversionError
	if !errors.As(err, &uc) {
		t.Fatalf("want *UnsupportedConversionError, got %v", err)
	}
}

func TestFromMinisym_NestedFailureIsWrapped(t *testing.T) {
	sys := gocas.NewSystem()
	me := minisym.Add{Terms: []minisym.Expr{minisym.Sym{Name: "x"}, minisym.Inf{Sign: -1}}}
	_, err := sys.FromMinisym(me)
	if err == nil {
		t.Fatalf("want error for infinity inside a sum")
	}
	var uc *gocas.UnsupportedConversionError
	if !errors.As(err, &uc) {
		t.Fatalf("wrapped error should still match *UnsupportedConversionError, got %v", err)
	}
	if _, ok := uc.Value.(minisym.Inf); !ok {
		t.Errorf("error should carry the offending inner value, got %T", uc.Value)
	}
}
