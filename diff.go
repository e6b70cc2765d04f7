package gocas

// An UnsupportedDifferentiationError reports a head or exponent shape the
// rule table cannot differentiate. There is no silent default.
type UnsupportedDifferentiationError struct {
	Node   *Node
	Reason string
}

func (e *UnsupportedDifferentiationError) Error() string {
	return "gocas: cannot differentiate " + e.Node.String() + ": " + e.Reason
}

// A DiffRule builds the derivative of a call from its argument nodes and
// their already-computed derivatives. Rules are keyed by interned head
// identity in a table separate from the evaluators, because the product
// and chain rules need both a subexpression and its derivative at once,
// which the single-result Evaluator protocol cannot express.
type DiffRule func(s *System, args, dargs []*Node) (*Node, error)

// RegisterDiffRule installs or replaces the differentiation rule for a
// head.
func (s *System) RegisterDiffRule(head *Expr, rule DiffRule) {
	if head == nil || head.sys != s {
		panic(&ConstructionError{Reason: "differentiation rule head is nil or from a different system"})
	}
	if rule == nil {
		panic(&ConstructionError{Reason: "differentiation rule is nil"})
	}
	s.diffRules[head.node] = rule
}

// Diff differentiates e with respect to the symbol v by structural
// recursion, memoized by node identity so shared subexpressions are
// differentiated once. The result is returned in unreduced constructed
// form: no rule ever simplifies, so d/dx(x**3) contains the literal
// exponent (3 + -1).
func (e *Expr) Diff(v *Expr) (*Expr, error) {
	if v == nil || v.sys != e.sys {
		panic(&ConstructionError{Reason: "differentiation variable from a different system"})
	}
	if v.node.atomType != e.sys.Symbol {
		panic(&ConstructionError{Reason: "differentiation variable must be a Symbol atom"})
	}
	memo := make(map[*Node]*Node)
	n, err := e.sys.diffNode(e.node, v.node, memo)
	if err != nil {
		return nil, err
	}
	return e.sys.wrap(n), nil
}

func (s *System) diffNode(n, v *Node, memo map[*Node]*Node) (*Node, error) {
	if d, ok := memo[n]; ok {
		return d, nil
	}
	var d *Node
	switch {
	case n == v:
		d = s.One.node
	case n.IsLeaf():
		// Distinct symbols, integer literals and bare function names all
		// have derivative zero.
		d = s.Zero.node
	default:
		rule, ok := s.diffRules[n.head]
		if !ok {
			return nil, &UnsupportedDifferentiationError{Node: n, Reason: "no rule for head " + n.head.String()}
		}
		dargs := make([]*Node, len(n.args))
		for i, a := range n.args {
			da, err := s.diffNode(a, v, memo)
			if err != nil {
				return nil, err
			}
			dargs[i] = da
		}
		var err error
		d, err = rule(s, n.args, dargs)
		if err != nil {
			return nil, err
		}
	}
	memo[n] = d
	return d, nil
}

func (s *System) installDiffRules() {
	s.RegisterDiffRule(s.Add, diffAdd)
	s.RegisterDiffRule(s.Mul, diffMul)
	s.RegisterDiffRule(s.Pow, diffPow)
	s.RegisterDiffRule(s.Sin, diffSin)
	s.RegisterDiffRule(s.Cos, diffCos)
}

// diffAdd: d(a + b + ...) = d(a) + d(b) + ...
func diffAdd(s *System, args, dargs []*Node) (*Node, error) {
	return s.SumOf(dargs...), nil
}

// diffMul is the general Leibniz rule: one term per factor, with that
// factor replaced in place by its derivative. On a binary node this is
// exactly d(a)*b + a*d(b).
func diffMul(s *System, args, dargs []*Node) (*Node, error) {
	terms := make([]*Node, 0, len(args))
	for i := range args {
		if dargs[i] == s.Zero.node {
			continue
		}
		factors := make([]*Node, len(args))
		copy(factors, args)
		factors[i] = dargs[i]
		terms = append(terms, s.ProductOf(factors...))
	}
	return s.SumOf(terms...), nil
}

// diffPow: d(b**e) = e * b**(e + -1) * d(b), defined only for a constant
// Integer exponent. A non-constant exponent fails rather than
// approximating.
func diffPow(s *System, args, dargs []*Node) (*Node, error) {
	if len(args) != 2 {
		return nil, &UnsupportedDifferentiationError{
			Node:   s.Pow.node,
			Reason: "pow expects exactly two arguments",
		}
	}
	base, exp := args[0], args[1]
	if exp.atomType != s.Integer {
		return nil, &UnsupportedDifferentiationError{
			Node:   exp,
			Reason: "exponent is not a constant integer",
		}
	}
	expm1 := s.ar.Call(s.Add.node, exp, s.NegOne.node)
	return s.ProductOf(exp, s.ar.Call(s.Pow.node, base, expm1), dargs[0]), nil
}

// diffSin: d(sin(u)) = cos(u) * d(u).
func diffSin(s *System, args, dargs []*Node) (*Node, error) {
	if len(args) != 1 {
		return nil, &UnsupportedDifferentiationError{Node: s.Sin.node, Reason: "sin expects one argument"}
	}
	return s.ProductOf(s.ar.Call(s.Cos.node, args[0]), dargs[0]), nil
}

// diffCos: d(cos(u)) = -1 * sin(u) * d(u).
func diffCos(s *System, args, dargs []*Node) (*Node, error) {
	if len(args) != 1 {
		return nil, &UnsupportedDifferentiationError{Node: s.Cos.node, Reason: "cos expects one argument"}
	}
	return s.ProductOf(s.NegOne.node, s.ar.Call(s.Sin.node, args[0]), dargs[0]), nil
}

// SumOf and ProductOf combine already-constructed derivative pieces.
// They elide additive and multiplicative identities and short-circuit a
// zero factor. This is part of the rule table's contract, not general
// simplification: it is what makes d(sin(x)) come out as cos(x) rather
// than Mul(cos(x), 1), while x - x still differentiates to the unreduced
// Add(1, -1). Registered rules are expected to build their results with
// these.
func (s *System) SumOf(terms ...*Node) *Node {
	var kept []*Node
	for _, t := range terms {
		if t == s.Zero.node {
			continue
		}
		kept = append(kept, t)
	}
	switch len(kept) {
	case 0:
		return s.Zero.node
	case 1:
		return kept[0]
	}
	return s.ar.Call(s.Add.node, kept...)
}

func (s *System) ProductOf(factors ...*Node) *Node {
	var kept []*Node
	for _, f := range factors {
		if f == s.Zero.node {
			return s.Zero.node
		}
		if f == s.One.node {
			continue
		}
		kept = append(kept, f)
	}
	switch len(kept) {
	case 0:
		return s.One.node
	case 1:
		return kept[0]
	}
	return s.ar.Call(s.Mul.node, kept...)
}
