package reel

import "math"

// Time is a point on the timeline axis, in seconds. Times are not required
// to be non-negative at evaluation time; extrapolation policies handle
// out-of-range queries.
type Time = float64

// FrameAt converts a time in seconds to a frame number by rounding.
// TimeAt(FrameAt(t, fps), fps) is NOT guaranteed to equal t: frame
// quantization loses sub-frame precision. This is intentional.
func FrameAt(t Time, fps float64) int {
	return int(math.Round(t * fps))
}

// TimeAt converts a frame number back to a time in seconds.
func TimeAt(frame int, fps float64) Time {
	return float64(frame) / fps
}

// Float is a float64 that satisfies the interpolation capability required
// by KeyframeTrack. It is the value type for all scalar animation.
type Float float64

// Interpolate linearly blends f toward to by t.
func (f Float) Interpolate(to Float, t float64) Float {
	return f + Float(t)*(to-f)
}

// CatmullRom evaluates the Catmull-Rom spline through (prev, f, to, next)
// at parameter t, where f and to bracket the segment.
func (f Float) CatmullRom(prev, to, next Float, t float64) Float {
	return Float(catmullRom(float64(prev), float64(f), float64(to), float64(next), t))
}

// Vec2 is a 2D point, used for Bezier tangent handles.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3-component vector used for positions, rotations (Euler radians),
// and scales throughout the API.
type Vec3 struct {
	X, Y, Z float64
}

// Interpolate linearly blends v toward to by t, componentwise.
func (v Vec3) Interpolate(to Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + t*(to.X-v.X),
		Y: v.Y + t*(to.Y-v.Y),
		Z: v.Z + t*(to.Z-v.Z),
	}
}

// CatmullRom evaluates the componentwise Catmull-Rom spline through
// (prev, v, to, next) at parameter t.
func (v Vec3) CatmullRom(prev, to, next Vec3, t float64) Vec3 {
	return Vec3{
		X: catmullRom(prev.X, v.X, to.X, next.X, t),
		Y: catmullRom(prev.Y, v.Y, to.Y, next.Y, t),
		Z: catmullRom(prev.Z, v.Z, to.Z, next.Z, t),
	}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mat4 is a 4x4 matrix in row-major order:
//
//	| m[0]  m[1]  m[2]  m[3]  |
//	| m[4]  m[5]  m[6]  m[7]  |
//	| m[8]  m[9]  m[10] m[11] |
//	| m[12] m[13] m[14] m[15] |
type Mat4 [16]float64

// Mat4Identity returns the identity matrix.
func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Multiply returns m * other.
func (m Mat4) Multiply(other Mat4) Mat4 {
	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * other[k*4+col]
			}
			out[row*4+col] = sum
		}
	}
	return out
}

// TransformPoint applies m to a point (w=1) and returns the transformed point.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// ComposeTRS builds a transform matrix from translation, rotation (Euler
// angles in radians, applied Z then Y then X), and scale.
//
// Composition order: Scale -> Rotate -> Translate.
func ComposeTRS(translation, rotation, scale Vec3) Mat4 {
	sinX, cosX := math.Sincos(rotation.X)
	sinY, cosY := math.Sincos(rotation.Y)
	sinZ, cosZ := math.Sincos(rotation.Z)

	// R = Rx * Ry * Rz
	r00 := cosY * cosZ
	r01 := -cosY * sinZ
	r02 := sinY
	r10 := cosX*sinZ + sinX*sinY*cosZ
	r11 := cosX*cosZ - sinX*sinY*sinZ
	r12 := -sinX * cosY
	r20 := sinX*sinZ - cosX*sinY*cosZ
	r21 := sinX*cosZ + cosX*sinY*sinZ
	r22 := cosX * cosY

	return Mat4{
		r00 * scale.X, r01 * scale.Y, r02 * scale.Z, translation.X,
		r10 * scale.X, r11 * scale.Y, r12 * scale.Z, translation.Y,
		r20 * scale.X, r21 * scale.Y, r22 * scale.Z, translation.Z,
		0, 0, 0, 1,
	}
}

// catmullRom evaluates the uniform Catmull-Rom spline through p0..p3 at t,
// where p1 and p2 bracket the segment.
func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}
