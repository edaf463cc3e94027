package reel

import (
	"math"
	"sort"
)

// Interpolatable is the capability required of any value type animated by a
// KeyframeTrack: a pure blend between two values at a normalized parameter.
type Interpolatable[T any] interface {
	Interpolate(to T, t float64) T
}

// catmullRomable is the optional capability for the Catmull-Rom
// interpolation policy: blending through the two keyframes flanking the
// bracketing pair. Types without it (checked at evaluation time) fall back
// to linear for that segment.
type catmullRomable[T any] interface {
	CatmullRom(prev, to, next T, t float64) T
}

// Interpolation selects how normalized time is eased between a bracketing
// keyframe pair.
type Interpolation uint8

const (
	InterpolationLinear Interpolation = iota
	InterpolationEaseIn
	InterpolationEaseOut
	InterpolationEaseInOut
	// InterpolationStep holds the start value until the segment ends, then
	// jumps to the end value.
	InterpolationStep
	// InterpolationBezier eases through the track's Bezier timing curve.
	InterpolationBezier
	// InterpolationCatmullRom interpolates through the keyframes flanking
	// the bracketing pair, duplicating boundary keyframes as virtual
	// neighbors at the track ends. Value types that do not implement the
	// Catmull-Rom capability fall back to linear.
	InterpolationCatmullRom
)

// Extrapolation selects track behavior for times outside the keyframe range.
type Extrapolation uint8

const (
	// ExtrapolationHold returns the nearest boundary value.
	ExtrapolationHold Extrapolation = iota
	// ExtrapolationLinear extends the slope of the two nearest boundary
	// keyframes.
	ExtrapolationLinear
	// ExtrapolationLoop wraps time into the keyframe range.
	ExtrapolationLoop
	// ExtrapolationPingPong wraps time into the keyframe range, mirroring
	// direction on odd cycles.
	ExtrapolationPingPong
)

// Keyframe is an authored (time, value) anchor for an animated property.
// InTangent and OutTangent optionally override the track's Bezier timing
// curve for the segments adjacent to this keyframe.
type Keyframe[T Interpolatable[T]] struct {
	Time  Time
	Value T
	// OutTangent, when non-nil, supplies (x1,y1) of the timing curve for
	// the segment leaving this keyframe.
	OutTangent *Vec2
	// InTangent, when non-nil, supplies (x2,y2) of the timing curve for
	// the segment entering this keyframe.
	InTangent *Vec2
}

// KeyframeTrack animates a value over time through an ordered keyframe list.
// Keyframes are kept sorted ascending by time; AddKeyframe re-sorts on every
// insert.
//
// A track must contain at least one keyframe before Evaluate is called;
// evaluating an empty track panics. That is a precondition violation on the
// caller, not a recoverable condition.
//
// A track is not safe for concurrent mutation; the owning registry
// serializes access. Evaluation against a track that is not being mutated
// may run concurrently.
type KeyframeTrack[T Interpolatable[T]] struct {
	keyframes []Keyframe[T]

	// Interpolation is the easing policy applied between keyframe pairs.
	Interpolation Interpolation
	// ControlPoints is the timing curve used by InterpolationBezier when a
	// segment's keyframes carry no tangent overrides.
	ControlPoints CubicBezier
	// PreExtrapolation applies before the first keyframe.
	PreExtrapolation Extrapolation
	// PostExtrapolation applies after the last keyframe.
	PostExtrapolation Extrapolation
}

// NewKeyframeTrack creates a track with linear interpolation, hold
// extrapolation on both ends, and the given keyframes.
func NewKeyframeTrack[T Interpolatable[T]](keyframes ...Keyframe[T]) *KeyframeTrack[T] {
	track := &KeyframeTrack[T]{ControlPoints: EaseBezier}
	for _, k := range keyframes {
		track.AddKeyframe(k)
	}
	return track
}

// AddKeyframe inserts a keyframe, preserving ascending time order.
func (tr *KeyframeTrack[T]) AddKeyframe(k Keyframe[T]) {
	tr.keyframes = append(tr.keyframes, k)
	sort.SliceStable(tr.keyframes, func(i, j int) bool {
		return tr.keyframes[i].Time < tr.keyframes[j].Time
	})
}

// RemoveKeyframe removes the keyframe at the given index. Out-of-range
// indices are ignored.
func (tr *KeyframeTrack[T]) RemoveKeyframe(index int) {
	if index < 0 || index >= len(tr.keyframes) {
		return
	}
	tr.keyframes = append(tr.keyframes[:index], tr.keyframes[index+1:]...)
}

// Len returns the number of keyframes.
func (tr *KeyframeTrack[T]) Len() int {
	return len(tr.keyframes)
}

// Keyframes returns the keyframes in ascending time order. The returned
// slice is the track's backing store; callers must not mutate it.
func (tr *KeyframeTrack[T]) Keyframes() []Keyframe[T] {
	return tr.keyframes
}

// Evaluate returns the track value at the given time. A single-keyframe
// track is a constant function. Times outside the keyframe range go through
// the pre/post extrapolation policy; interior times are eased between the
// bracketing pair.
func (tr *KeyframeTrack[T]) Evaluate(t Time) T {
	if len(tr.keyframes) == 0 {
		panic("reel: Evaluate on empty KeyframeTrack")
	}
	if len(tr.keyframes) == 1 {
		return tr.keyframes[0].Value
	}

	first := tr.keyframes[0]
	last := tr.keyframes[len(tr.keyframes)-1]

	if t < first.Time {
		return tr.extrapolate(t, tr.PreExtrapolation)
	}
	if t > last.Time {
		return tr.extrapolate(t, tr.PostExtrapolation)
	}
	return tr.interior(t)
}

// interior evaluates a time within [firstTime, lastTime].
func (tr *KeyframeTrack[T]) interior(t Time) T {
	// Linear scan for the bracketing pair. O(n) per evaluation; fine for
	// authored track sizes. Binary search is the obvious optimization if
	// tracks ever grow large.
	i := 0
	for i < len(tr.keyframes)-2 && tr.keyframes[i+1].Time <= t {
		i++
	}
	k0 := tr.keyframes[i]
	k1 := tr.keyframes[i+1]

	span := k1.Time - k0.Time
	if span <= 0 {
		// Coincident keyframe times: the later keyframe wins.
		return k1.Value
	}
	norm := (t - k0.Time) / span

	if tr.Interpolation == InterpolationCatmullRom {
		if v, ok := tr.catmullRomSegment(i, norm); ok {
			return v
		}
	}

	eased := applyEase(tr.Interpolation, tr.segmentCurve(k0, k1), norm)
	return k0.Value.Interpolate(k1.Value, eased)
}

// segmentCurve returns the Bezier timing curve for the segment k0->k1:
// per-keyframe tangent overrides when present, else the track curve.
func (tr *KeyframeTrack[T]) segmentCurve(k0, k1 Keyframe[T]) CubicBezier {
	curve := tr.ControlPoints
	if k0.OutTangent != nil {
		curve.X1 = clamp(k0.OutTangent.X, 0, 1)
		curve.Y1 = k0.OutTangent.Y
	}
	if k1.InTangent != nil {
		curve.X2 = clamp(k1.InTangent.X, 0, 1)
		curve.Y2 = k1.InTangent.Y
	}
	return curve
}

// catmullRomSegment evaluates segment i with the full 4-point Catmull-Rom
// form, duplicating the boundary keyframes as virtual neighbors. Returns
// ok=false when T lacks the Catmull-Rom capability.
func (tr *KeyframeTrack[T]) catmullRomSegment(i int, norm float64) (T, bool) {
	k1 := tr.keyframes[i]
	k2 := tr.keyframes[i+1]

	cr, ok := any(k1.Value).(catmullRomable[T])
	if !ok {
		var zero T
		return zero, false
	}

	prev := k1.Value
	if i > 0 {
		prev = tr.keyframes[i-1].Value
	}
	next := k2.Value
	if i+2 < len(tr.keyframes) {
		next = tr.keyframes[i+2].Value
	}
	return cr.CatmullRom(prev, k2.Value, next, norm), true
}

// extrapolate handles times outside the keyframe range.
func (tr *KeyframeTrack[T]) extrapolate(t Time, policy Extrapolation) T {
	first := tr.keyframes[0]
	last := tr.keyframes[len(tr.keyframes)-1]
	span := last.Time - first.Time

	switch policy {
	case ExtrapolationHold:
		if t < first.Time {
			return first.Value
		}
		return last.Value

	case ExtrapolationLinear:
		if t < first.Time {
			k1 := tr.keyframes[1]
			segSpan := k1.Time - first.Time
			if segSpan <= 0 {
				return first.Value
			}
			// Extend the first segment's slope backward: the normalized
			// parameter goes negative.
			norm := (t - first.Time) / segSpan
			return first.Value.Interpolate(k1.Value, norm)
		}
		k0 := tr.keyframes[len(tr.keyframes)-2]
		segSpan := last.Time - k0.Time
		if segSpan <= 0 {
			return last.Value
		}
		norm := (t - k0.Time) / segSpan
		return k0.Value.Interpolate(last.Value, norm)

	case ExtrapolationLoop:
		if span <= 0 {
			return first.Value
		}
		wrapped := first.Time + mod(t-first.Time, span)
		return tr.interior(wrapped)

	case ExtrapolationPingPong:
		if span <= 0 {
			return first.Value
		}
		offset := mod(t-first.Time, span)
		cycle := int(math.Floor((t - first.Time) / span))
		if cycle%2 != 0 {
			offset = span - offset
		}
		return tr.interior(first.Time + offset)
	}

	// Unknown policy: hold.
	if t < first.Time {
		return first.Value
	}
	return last.Value
}

// mod is a floor-based modulo whose result is always in [0, m) for m > 0.
func mod(v, m float64) float64 {
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	return r
}
