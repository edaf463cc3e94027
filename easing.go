package reel

import (
	"math"

	"github.com/tanema/gween/ease"
)

// CubicBezier defines a timing curve from (0,0) to (1,1) with control points
// (X1,Y1) and (X2,Y2). X components are clamped to [0,1] so the curve is
// monotonic in x and therefore invertible; Y components are unconstrained,
// allowing overshoot.
type CubicBezier struct {
	X1, Y1, X2, Y2 float64
}

// NewCubicBezier creates a timing curve, clamping x-control components
// into [0,1].
func NewCubicBezier(x1, y1, x2, y2 float64) CubicBezier {
	return CubicBezier{
		X1: clamp(x1, 0, 1),
		Y1: y1,
		X2: clamp(x2, 0, 1),
		Y2: y2,
	}
}

// EaseBezier is the default bezier timing curve, matching the CSS "ease"
// control points.
var EaseBezier = CubicBezier{0.25, 0.1, 0.25, 1.0}

const (
	bezierMaxIterations = 8
	bezierEpsilon       = 1e-10
)

// Evaluate solves the curve for the given x (progress) and returns y
// (eased progress). x is clamped into [0,1].
//
// The x polynomial has no closed-form inverse, so the parameter u with
// bezierX(u) == x is found by Newton-Raphson: at most 8 iterations with
// u clamped into [0,1] each step. The fixed cap bounds worst-case latency.
func (b CubicBezier) Evaluate(x float64) float64 {
	x = clamp(x, 0, 1)

	u := x // initial guess
	for i := 0; i < bezierMaxIterations; i++ {
		residual := bezierComponent(u, b.X1, b.X2) - x
		if math.Abs(residual) < bezierEpsilon {
			break
		}
		deriv := bezierDerivative(u, b.X1, b.X2)
		if math.Abs(deriv) < bezierEpsilon {
			break
		}
		u = clamp(u-residual/deriv, 0, 1)
	}

	return bezierComponent(u, b.Y1, b.Y2)
}

// bezierComponent evaluates one axis of a cubic bezier anchored at 0 and 1
// with control values c1, c2, at parameter u.
//
//	B(u) = 3(1-u)²u·c1 + 3(1-u)u²·c2 + u³
func bezierComponent(u, c1, c2 float64) float64 {
	inv := 1 - u
	return 3*inv*inv*u*c1 + 3*inv*u*u*c2 + u*u*u
}

// bezierDerivative evaluates dB/du for the same axis.
func bezierDerivative(u, c1, c2 float64) float64 {
	inv := 1 - u
	return 3*inv*inv*c1 + 6*inv*u*(c2-c1) + 3*u*u*(1-c2)
}

// applyEase passes a normalized progress t through the named interpolation
// policy. The bezier policy uses the supplied curve.
func applyEase(interp Interpolation, curve CubicBezier, t float64) float64 {
	switch interp {
	case InterpolationLinear:
		return t
	case InterpolationEaseIn:
		return t * t
	case InterpolationEaseOut:
		return t * (2 - t)
	case InterpolationEaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	case InterpolationStep:
		// Hold the start value until t reaches 1, then jump.
		if t < 1 {
			return 0
		}
		return 1
	case InterpolationBezier:
		return curve.Evaluate(t)
	default:
		return t
	}
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// easingTable maps authored easing names to gween easing functions.
// Names are the lowerCamel forms content tools emit.
var easingTable = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inQuad":       ease.InQuad,
	"outQuad":      ease.OutQuad,
	"inOutQuad":    ease.InOutQuad,
	"inCubic":      ease.InCubic,
	"outCubic":     ease.OutCubic,
	"inOutCubic":   ease.InOutCubic,
	"inQuart":      ease.InQuart,
	"outQuart":     ease.OutQuart,
	"inOutQuart":   ease.InOutQuart,
	"inQuint":      ease.InQuint,
	"outQuint":     ease.OutQuint,
	"inOutQuint":   ease.InOutQuint,
	"inSine":       ease.InSine,
	"outSine":      ease.OutSine,
	"inOutSine":    ease.InOutSine,
	"inExpo":       ease.InExpo,
	"outExpo":      ease.OutExpo,
	"inOutExpo":    ease.InOutExpo,
	"inCirc":       ease.InCirc,
	"outCirc":      ease.OutCirc,
	"inOutCirc":    ease.InOutCirc,
	"inBack":       ease.InBack,
	"outBack":      ease.OutBack,
	"inOutBack":    ease.InOutBack,
	"inBounce":     ease.InBounce,
	"outBounce":    ease.OutBounce,
	"inOutBounce":  ease.InOutBounce,
	"inElastic":    ease.InElastic,
	"outElastic":   ease.OutElastic,
	"inOutElastic": ease.InOutElastic,
}

// EasingByName returns the gween easing function for an authored easing
// name, or ease.Linear with ok=false when the name is unknown.
func EasingByName(name string) (ease.TweenFunc, bool) {
	if fn, ok := easingTable[name]; ok {
		return fn, true
	}
	return ease.Linear, false
}

// easeProgress applies a gween easing function to a normalized progress
// value in [0,1].
func easeProgress(fn ease.TweenFunc, t float64) float64 {
	if fn == nil {
		return t
	}
	return float64(fn(float32(t), 0, 1, 1))
}
