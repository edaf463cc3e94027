package reel

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

func evalOK(t *testing.T, src string, ctx EvalContext) float64 {
	t.Helper()
	v, err := EvalExpression(src, ctx)
	if err != nil {
		t.Fatalf("EvalExpression(%q): %v", src, err)
	}
	return v
}

func TestArithmeticPrecedence(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 - 4 - 3", 3},
		{"12 / 4 / 3", 1},
		{"7 % 4", 3},
		{"2 ^ 3 ^ 2", 512}, // right-associative
		{"2 * 3 ^ 2", 18},
		{"-2 ^ 2", 4}, // unary binds tighter than power
		{"2 * -3", -6},
		{"--5", 5},
		{"1.5e2", 150},
	}
	for _, c := range cases {
		assertNear(t, c.src, evalOK(t, c.src, EvalContext{}), c.want)
	}
}

func TestContextBindings(t *testing.T) {
	ctx := EvalContext{Time: 2, Frame: 60, Duration: 8, FPS: 30}
	assertNear(t, "time", evalOK(t, "time", ctx), 2)
	assertNear(t, "t alias", evalOK(t, "t", ctx), 2)
	assertNear(t, "frame", evalOK(t, "frame", ctx), 60)
	assertNear(t, "f alias", evalOK(t, "f", ctx), 60)
	assertNear(t, "duration", evalOK(t, "duration", ctx), 8)
	assertNear(t, "progress", evalOK(t, "progress", ctx), 0.25)
	assertNear(t, "p alias", evalOK(t, "p", ctx), 0.25)
	assertNear(t, "fps", evalOK(t, "fps", ctx), 30)

	// Progress is 0 when duration is unknown.
	assertNear(t, "progress no duration", evalOK(t, "progress", EvalContext{Time: 5}), 0)
}

func TestConstantsAndOverrides(t *testing.T) {
	assertNear(t, "pi", evalOK(t, "pi", EvalContext{}), math.Pi)
	assertNear(t, "tau", evalOK(t, "tau", EvalContext{}), 2*math.Pi)
	assertNear(t, "e", evalOK(t, "e", EvalContext{}), math.E)

	e, err := NewExpression("amp * sin(time)")
	if err != nil {
		t.Fatal(err)
	}
	v, err := e.Evaluate(EvalContext{Time: math.Pi / 2}, map[string]float64{"amp": 3})
	if err != nil {
		t.Fatal(err)
	}
	assertNear(t, "override", v, 3)

	// Overrides shadow constants and bindings.
	v, err = e.Evaluate(EvalContext{Time: math.Pi / 2}, map[string]float64{"amp": 1, "time": 0})
	if err != nil {
		t.Fatal(err)
	}
	assertNear(t, "override shadows binding", v, 0)
}

func TestBuiltinFunctions(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"clamp(5, 0, 1)", 1},
		{"clamp(-5, 0, 1)", 0},
		{"lerp(0, 10, 0.5)", 5},
		{"min(3, 7)", 3},
		{"max(3, 7)", 7},
		{"floor(2.7)", 2},
		{"ceil(2.2)", 3},
		{"round(2.5)", 3},
		{"abs(-4)", 4},
		{"sign(-9)", -1},
		{"sqrt(16)", 4},
		{"pow(2, 10)", 1024},
		{"log(e)", 1},
		{"log10(1000)", 3},
		{"sin(0)", 0},
		{"cos(0)", 1},
		{"atan2(1, 1)", math.Pi / 4},
		{"smoothstep(0, 1, 0.5)", 0.5},
		{"smootherstep(0, 1, 0.5)", 0.5},
		{"smoothstep(0, 1, -1)", 0},
		{"smoothstep(0, 1, 2)", 1},
		{"pulse(0.25, 1)", 1},
		{"pulse(0.75, 1)", 0},
		{"sawtooth(1.25, 1)", 0.25},
		{"triangle(0.5, 1)", 1},
		{"triangle(0.25, 1)", 0.5},
	}
	for _, c := range cases {
		assertNear(t, c.src, evalOK(t, c.src, EvalContext{}), c.want)
	}
}

func TestRandomAndNoiseDeterministic(t *testing.T) {
	a := evalOK(t, "random(42)", EvalContext{})
	b := evalOK(t, "random(42)", EvalContext{})
	if a != b {
		t.Errorf("random(42) not deterministic: %v vs %v", a, b)
	}
	if a < 0 || a >= 1 {
		t.Errorf("random(42) = %v, want [0, 1)", a)
	}
	if evalOK(t, "random(1)", EvalContext{}) == evalOK(t, "random(2)", EvalContext{}) {
		t.Error("different seeds produced identical values")
	}

	// Noise is the lattice hash at integers and continuous between them.
	assertNear(t, "noise at lattice", evalOK(t, "noise(3)", EvalContext{}), hashRandom(3))
	n1 := evalOK(t, "noise(3.499)", EvalContext{})
	n2 := evalOK(t, "noise(3.501)", EvalContext{})
	if math.Abs(n1-n2) > 0.01 {
		t.Errorf("noise discontinuous: %v vs %v", n1, n2)
	}
}

func TestExpressionErrors(t *testing.T) {
	cases := []struct {
		src  string
		want error
	}{
		{"1 / 0", ErrDivisionByZero},
		{"5 % 0", ErrDivisionByZero},
		{"nosuchfunc(1)", ErrUnknownFunction},
		{"nosuchvar", ErrUnknownVariable},
		{"clamp(1, 2)", ErrInvalidArguments},
		{"sin()", ErrInvalidArguments},
		{"2 +", ErrSyntax},
		{"(2 + 3", ErrSyntax},
		{"2 @ 3", ErrSyntax},
		{"2 3", ErrSyntax},
		{"lerp(1, 2,", ErrSyntax},
	}
	for _, c := range cases {
		_, err := EvalExpression(c.src, EvalContext{})
		if !errors.Is(err, c.want) {
			t.Errorf("EvalExpression(%q) error = %v, want %v", c.src, err, c.want)
		}
	}
}

func TestExpressionSourceIsRetained(t *testing.T) {
	e, err := NewExpression("1 + 2")
	if err != nil {
		t.Fatal(err)
	}
	if e.Source() != "1 + 2" {
		t.Errorf("Source = %q, want %q", e.Source(), "1 + 2")
	}
}

func TestExpressionConcurrentEvaluation(t *testing.T) {
	e, err := NewExpression("sin(time * tau) * 0.5 + 0.5")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 8)
	for g := 0; g < 8; g++ {
		go func(g int) {
			for i := 0; i < 200; i++ {
				if _, err := e.Evaluate(EvalContext{Time: float64(g*i) / 100}, nil); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(g)
	}
	for g := 0; g < 8; g++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}

// dumpNode renders a parsed expression tree in prefix notation for golden
// comparison.
func dumpNode(n exprNode) string {
	switch node := n.(type) {
	case *numberNode:
		return fmt.Sprintf("%g", node.value)
	case *identNode:
		return node.name
	case *unaryNode:
		return fmt.Sprintf("(neg %s)", dumpNode(node.operand))
	case *binaryNode:
		return fmt.Sprintf("(%s %s %s)", node.op.opSymbol(), dumpNode(node.left), dumpNode(node.right))
	case *callNode:
		parts := make([]string, 0, len(node.args)+1)
		parts = append(parts, node.name)
		for _, arg := range node.args {
			parts = append(parts, dumpNode(arg))
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
	return "?"
}

func (k tokenKind) opSymbol() string {
	switch k {
	case tokenPlus:
		return "+"
	case tokenMinus:
		return "-"
	case tokenStar:
		return "*"
	case tokenSlash:
		return "/"
	case tokenPercent:
		return "%"
	case tokenCaret:
		return "^"
	}
	return "?"
}

func TestParserGolden(t *testing.T) {
	sources := []string{
		"2 + 3 * 4",
		"-2 ^ 2",
		"lerp(0, 10, clamp(time / duration, 0, 1))",
		"sin(time * tau) * 0.5 + 0.5",
		"a % b - -c",
	}

	var sb strings.Builder
	for _, src := range sources {
		root, err := parseExpression(src)
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}
		fmt.Fprintf(&sb, "%s => %s\n", src, dumpNode(root))
	}

	g := goldie.New(t)
	g.Assert(t, "parser_dump", []byte(sb.String()))
}
