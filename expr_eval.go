package reel

import (
	"fmt"
	"math"
)

// EvalContext carries the per-frame bindings an expression evaluates
// against. A renderer's frame loop or an export sampler builds one per
// query.
type EvalContext struct {
	// Time is the timeline time in seconds.
	Time Time
	// Frame is the frame number at Time.
	Frame int
	// Duration is the total timeline duration in seconds, or 0 if unknown.
	Duration float64
	// FPS is the timeline frame rate.
	FPS float64
}

// Progress returns Time/Duration, or 0 when Duration is not positive.
func (c EvalContext) Progress() float64 {
	if c.Duration > 0 {
		return c.Time / c.Duration
	}
	return 0
}

// Expression is an immutable, parsed arithmetic expression. Evaluation is
// pure and stateless, so a single Expression may be evaluated concurrently.
type Expression struct {
	src  string
	root exprNode
}

// NewExpression parses expression source. The returned Expression is
// immutable; a parse failure wraps ErrSyntax.
func NewExpression(src string) (*Expression, error) {
	root, err := parseExpression(src)
	if err != nil {
		return nil, fmt.Errorf("reel: parse %q: %w", src, err)
	}
	return &Expression{src: src, root: root}, nil
}

// Source returns the original expression source string.
func (e *Expression) Source() string {
	return e.src
}

// Evaluate computes the expression value against the context. Overrides, if
// non-nil, resolve identifiers before constants and context bindings.
func (e *Expression) Evaluate(ctx EvalContext, overrides map[string]float64) (float64, error) {
	env := &exprEnv{ctx: ctx, overrides: overrides}
	v, err := e.root.eval(env)
	if err != nil {
		return 0, fmt.Errorf("reel: evaluate %q: %w", e.src, err)
	}
	return v, nil
}

// EvalExpression parses and evaluates source in one step. Prefer
// NewExpression when evaluating the same source repeatedly.
func EvalExpression(src string, ctx EvalContext) (float64, error) {
	e, err := NewExpression(src)
	if err != nil {
		return 0, err
	}
	return e.Evaluate(ctx, nil)
}

// exprEnv is the per-evaluation environment threaded through the tree walk.
type exprEnv struct {
	ctx       EvalContext
	overrides map[string]float64
}

// exprConstants are the named mathematical constants.
var exprConstants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
}

// lookup resolves an identifier: overrides, then constants, then context
// bindings.
func (env *exprEnv) lookup(name string) (float64, bool) {
	if v, ok := env.overrides[name]; ok {
		return v, true
	}
	if v, ok := exprConstants[name]; ok {
		return v, true
	}
	switch name {
	case "time", "t":
		return env.ctx.Time, true
	case "frame", "f":
		return float64(env.ctx.Frame), true
	case "duration":
		return env.ctx.Duration, true
	case "progress", "p":
		return env.ctx.Progress(), true
	case "fps":
		return env.ctx.FPS, true
	}
	return 0, false
}

func (n *numberNode) eval(*exprEnv) (float64, error) {
	return n.value, nil
}

func (n *identNode) eval(env *exprEnv) (float64, error) {
	v, ok := env.lookup(n.name)
	if !ok {
		return 0, fmt.Errorf("%q: %w", n.name, ErrUnknownVariable)
	}
	return v, nil
}

func (n *unaryNode) eval(env *exprEnv) (float64, error) {
	v, err := n.operand.eval(env)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n *binaryNode) eval(env *exprEnv) (float64, error) {
	left, err := n.left.eval(env)
	if err != nil {
		return 0, err
	}
	right, err := n.right.eval(env)
	if err != nil {
		return 0, err
	}

	switch n.op {
	case tokenPlus:
		return left + right, nil
	case tokenMinus:
		return left - right, nil
	case tokenStar:
		return left * right, nil
	case tokenSlash:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left / right, nil
	case tokenPercent:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return math.Mod(left, right), nil
	case tokenCaret:
		return math.Pow(left, right), nil
	}
	return 0, fmt.Errorf("operator %s: %w", n.op, ErrSyntax)
}

func (n *callNode) eval(env *exprEnv) (float64, error) {
	fn, ok := exprFunctions[n.name]
	if !ok {
		return 0, fmt.Errorf("%q: %w", n.name, ErrUnknownFunction)
	}
	if len(n.args) != fn.arity {
		return 0, fmt.Errorf("%s takes %d argument(s), got %d: %w",
			n.name, fn.arity, len(n.args), ErrInvalidArguments)
	}

	args := make([]float64, len(n.args))
	for i, arg := range n.args {
		v, err := arg.eval(env)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return fn.call(args)
}

// exprFunc is a built-in function: fixed arity, pure.
type exprFunc struct {
	arity int
	call  func(args []float64) (float64, error)
}

func pureFn1(f func(float64) float64) exprFunc {
	return exprFunc{arity: 1, call: func(a []float64) (float64, error) { return f(a[0]), nil }}
}

func pureFn2(f func(float64, float64) float64) exprFunc {
	return exprFunc{arity: 2, call: func(a []float64) (float64, error) { return f(a[0], a[1]), nil }}
}

func pureFn3(f func(float64, float64, float64) float64) exprFunc {
	return exprFunc{arity: 3, call: func(a []float64) (float64, error) { return f(a[0], a[1], a[2]), nil }}
}

// exprFunctions is the closed built-in function table. The language has no
// user-defined functions, which bounds worst-case evaluation cost.
var exprFunctions = map[string]exprFunc{
	// Trigonometric.
	"sin":   pureFn1(math.Sin),
	"cos":   pureFn1(math.Cos),
	"tan":   pureFn1(math.Tan),
	"asin":  pureFn1(math.Asin),
	"acos":  pureFn1(math.Acos),
	"atan":  pureFn1(math.Atan),
	"atan2": pureFn2(math.Atan2),

	// Exponential and logarithmic.
	"exp":   pureFn1(math.Exp),
	"log":   pureFn1(math.Log),
	"log2":  pureFn1(math.Log2),
	"log10": pureFn1(math.Log10),
	"sqrt":  pureFn1(math.Sqrt),
	"pow":   pureFn2(math.Pow),

	// Rounding and sign.
	"floor": pureFn1(math.Floor),
	"ceil":  pureFn1(math.Ceil),
	"round": pureFn1(math.Round),
	"abs":   pureFn1(math.Abs),
	"sign":  pureFn1(sign),

	// Range helpers.
	"min":   pureFn2(math.Min),
	"max":   pureFn2(math.Max),
	"clamp": pureFn3(clamp),

	// Blending.
	"lerp":         pureFn3(lerp),
	"smoothstep":   pureFn3(smoothstep),
	"smootherstep": pureFn3(smootherstep),

	// Deterministic pseudo-randomness.
	"random": pureFn1(hashRandom),
	"noise":  pureFn1(valueNoise),

	// Periodic helpers.
	"pulse":    pureFn2(pulse),
	"sawtooth": pureFn2(sawtooth),
	"triangle": pureFn2(triangle),
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func smootherstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * t * (t*(t*6-15) + 10)
}

// hashRandom maps a seed deterministically to [0, 1) with SplitMix64-style
// bit mixing. Equal seeds always produce equal values.
func hashRandom(seed float64) float64 {
	return float64(mix64(math.Float64bits(seed))>>11) / float64(1<<53)
}

// valueNoise is 1D value noise: hash values at integer lattice points,
// smoothstep-interpolated between them. Continuous in x, deterministic.
func valueNoise(x float64) float64 {
	i := math.Floor(x)
	f := x - i
	a := hashRandom(i)
	b := hashRandom(i + 1)
	t := f * f * (3 - 2*f)
	return a + t*(b-a)
}

func mix64(v uint64) uint64 {
	v += 0x9e3779b97f4a7c15
	v = (v ^ (v >> 30)) * 0xbf58476d1ce4e5b9
	v = (v ^ (v >> 27)) * 0x94d049bb133111eb
	return v ^ (v >> 31)
}

// pulse is a square wave in {0, 1} with a 50% duty cycle. A non-positive
// period yields 0.
func pulse(t, period float64) float64 {
	if period <= 0 {
		return 0
	}
	if mod(t, period) < period/2 {
		return 1
	}
	return 0
}

// sawtooth ramps 0 -> 1 once per period. A non-positive period yields 0.
func sawtooth(t, period float64) float64 {
	if period <= 0 {
		return 0
	}
	return mod(t, period) / period
}

// triangle ramps 0 -> 1 -> 0 once per period. A non-positive period
// yields 0.
func triangle(t, period float64) float64 {
	if period <= 0 {
		return 0
	}
	phase := mod(t, period) / period
	return 1 - math.Abs(2*phase-1)
}
