package gocas_test

import (
	"errors"
	"testing"

	gocas "github.com/dmoretti/gocas"
)

// The evaluator tests work against a raw arena with their own atom types,
// independent of the standard algebra facade.

func newWordArena() (*gocas.Arena, *gocas.AtomType[string]) {
	return gocas.NewArena(), gocas.NewAtomType[string]("Word", ident)
}

// ============================================================
// Dispatch
// ============================================================

func TestEval_Atom(t *testing.T) {
	ar, word := newWordArena()
	ev := gocas.NewEvaluator[int]()
	gocas.AddAtom(ev, word, func(s string) int { return len(s) })
	got, err := ev.Eval(gocas.Leaf(ar, word, "hello"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5 {
		t.Errorf("want 5, got %d", got)
	}
}

func TestEval_Op2(t *testing.T) {
	ar, word := newWordArena()
	pair := gocas.Leaf(ar, word, "pair")
	ev := gocas.NewEvaluator[string]()
	gocas.AddAtom(ev, word, ident)
	ev.AddOp2(pair, func(a, b string) string { return "(" + a + ", " + b + ")" })
	n := ar.Call(pair, gocas.Leaf(ar, word, "a"), gocas.Leaf(ar, word, "b"))
	got, err := ev.Eval(n, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(a, b)" {
		t.Errorf("want (a, b), got %s", got)
	}
}

func TestEval_FixedArityBeatsVariadic(t *testing.T) {
	ar, word := newWordArena()
	h := gocas.Leaf(ar, word, "h")
	x := gocas.Leaf(ar, word, "x")
	ev := gocas.NewEvaluator[string]()
	gocas.AddAtom(ev, word, ident)
	ev.AddOp2(h, func(a, b string) string { return "fixed" })
	ev.AddOpN(h, func(args []string) string { return "variadic" })

	got, _ := ev.Eval(ar.Call(h, x, x), nil)
	if got != "fixed" {
		t.Errorf("binary call should use the binary operation, got %s", got)
	}
	got, _ = ev.Eval(ar.Call(h, x, x, x), nil)
	if got != "variadic" {
		t.Errorf("ternary call should fall through to the variadic operation, got %s", got)
	}
}

func TestEval_Substitution(t *testing.T) {
	ar, word := newWordArena()
	x := gocas.Leaf(ar, word, "x")
	ev := gocas.NewEvaluator[int]()
	gocas.AddAtom(ev, word, func(string) int { return -1 })
	got, err := ev.Eval(x, map[*gocas.Node]int{x: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("substitution should bypass the atom handler: want 42, got %d", got)
	}
}

func TestEval_SubstitutionWithoutHandler(t *testing.T) {
	ar, word := newWordArena()
	x := gocas.Leaf(ar, word, "x")
	ev := gocas.NewEvaluator[int]()
	got, err := ev.Eval(x, map[*gocas.Node]int{x: 7})
	if err != nil {
		t.Fatalf("substituted leaf needs no atom handler, got error: %v", err)
	}
	if got != 7 {
		t.Errorf("want 7, got %d", got)
	}
}

// ============================================================
// Memoization
// ============================================================

func TestEval_SharedSubtreeEvaluatedOnce(t *testing.T) {
	ar, word := newWordArena()
	f := gocas.Leaf(ar, word, "f")
	plus := gocas.Leaf(ar, word, "plus")
	x := gocas.Leaf(ar, word, "x")
	shared := ar.Call(f, x)
	top := ar.Call(plus, shared, shared)

	calls := 0
	ev := gocas.NewEvaluator[int]()
	gocas.AddAtom(ev, word, func(string) int { calls++; return 1 })
	ev.AddOp1(f, func(a int) int { calls++; return a + 1 })
	ev.AddOpN(plus, func(args []int) int {
		calls++
		sum := 0
		for _, a := range args {
			sum += a
		}
		return sum
	})

	got, err := ev.Eval(top, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4 {
		t.Errorf("want 4, got %d", got)
	}
	// x once, f(x) once, the top node once.
	if calls != 3 {
		t.Errorf("want 3 handler invocations, got %d", calls)
	}
}

func TestEval_MemoNotSharedAcrossCalls(t *testing.T) {
	ar, word := newWordArena()
	x := gocas.Leaf(ar, word, "x")
	calls := 0
	ev := gocas.NewEvaluator[int]()
	gocas.AddAtom(ev, word, func(string) int { calls++; return 0 })
	ev.Eval(x, nil)
	ev.Eval(x, nil)
	if calls != 2 {
		t.Errorf("memo should be per Eval call: want 2 invocations, got %d", calls)
	}
}

// ============================================================
// Freezing and errors
// ============================================================

func TestEval_FreezeRejectsRegistration(t *testing.T) {
	_, word := newWordArena()
	ev := gocas.NewEvaluator[int]().Freeze()
	wantConstructionPanic(t, func() {
		gocas.AddAtom(ev, word, func(string) int { return 0 })
	})
}

func TestEval_FirstEvalFreezes(t *testing.T) {
	ar, word := newWordArena()
	x := gocas.Leaf(ar, word, "x")
	ev := gocas.NewEvaluator[int]()
	gocas.AddAtom(ev, word, func(string) int { return 0 })
	ev.Eval(x, nil)
	wantConstructionPanic(t, func() {
		ev.AddOp1(x, func(a int) int { return a })
	})
}

func TestEval_UnhandledAtom(t *testing.T) {
	ar, word := newWordArena()
	x := gocas.Leaf(ar, word, "x")
	ev := gocas.NewEvaluator[int]()
	_, err := ev.Eval(x, nil)
	var uh *gocas.UnhandledHeadError
	if !errors.As(err, &uh) {
		t.Fatalf("want *UnhandledHeadError, got %v", err)
	}
	if uh.Node != x {
		t.Errorf("error should carry the offending node")
	}
}

func TestEval_UnhandledHead(t *testing.T) {
	ar, word := newWordArena()
	f := gocas.Leaf(ar, word, "f")
	x := gocas.Leaf(ar, word, "x")
	n := ar.Call(f, x)
	ev := gocas.NewEvaluator[int]()
	gocas.AddAtom(ev, word, func(string) int { return 0 })
	_, err := ev.Eval(n, nil)
	var uh *gocas.UnhandledHeadError
	if !errors.As(err, &uh) {
		t.Fatalf("want *UnhandledHeadError, got %v", err)
	}
	if uh.Node != n {
		t.Errorf("error should carry the offending call node")
	}
}

func TestEval_ArityMismatchIsUnhandled(t *testing.T) {
	ar, word := newWordArena()
	f := gocas.Leaf(ar, word, "f")
	x := gocas.Leaf(ar, word, "x")
	ev := gocas.NewEvaluator[string]()
	gocas.AddAtom(ev, word, ident)
	ev.AddOp1(f, func(a string) string { return a })
	_, err := ev.Eval(ar.Call(f, x, x), nil)
	var uh *gocas.UnhandledHeadError
	if !errors.As(err, &uh) {
		t.Fatalf("binary call with only a unary rule should be unhandled, got %v", err)
	}
}
