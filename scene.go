package reel

import (
	"errors"
	"fmt"
	"sync"
)

// Camera property paths and defaults. A scene without camera animation is
// normal: unregistered camera paths resolve to these defaults. Any other
// resolution failure (cycle, bad expression) propagates.
const (
	cameraPositionPath = "camera.position"
	cameraTargetPath   = "camera.target"
	cameraFOVPath      = "camera.fov"

	defaultCameraFOV = 60.0
)

var defaultCameraPosition = Vec3{0, 0, 5}

// CameraPose is a resolved camera state at one time.
type CameraPose struct {
	Position Vec3
	Target   Vec3
	// FOV is the vertical field of view in degrees.
	FOV float64
}

// SceneResolver evaluates camera pose, transform matrices, and opacity from
// the animated values registered on a PropertyDriver.
//
// Results are cached by time quantized to 1ms. The cache is strictly an
// optimization: a miss is always fully recomputable, and ClearCache is the
// only invalidation. Safe for concurrent use.
type SceneResolver struct {
	driver *PropertyDriver

	mu          sync.Mutex
	cache       map[sceneCacheKey]any
	opacityExpr *Expression
}

// sceneCacheKey identifies one cached resolution: what was resolved, for
// which path, at which millisecond.
type sceneCacheKey struct {
	kind string
	path string
	ms   int64
}

// cacheMillis quantizes a time to the cache's 1ms tolerance.
func cacheMillis(t Time) int64 {
	return int64(t * 1000)
}

// NewSceneResolver creates a resolver reading from the given registry.
func NewSceneResolver(driver *PropertyDriver) *SceneResolver {
	return &SceneResolver{
		driver: driver,
		cache:  make(map[sceneCacheKey]any),
	}
}

// SetOpacityOverride installs an expression that overrides keyframed
// opacity. An empty source removes the override.
func (r *SceneResolver) SetOpacityOverride(src string) error {
	if src == "" {
		r.mu.Lock()
		r.opacityExpr = nil
		r.mu.Unlock()
		return nil
	}
	expr, err := NewExpression(src)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.opacityExpr = expr
	r.mu.Unlock()
	return nil
}

// ClearCache drops all cached resolutions. Call after mutating the
// underlying property registry.
func (r *SceneResolver) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[sceneCacheKey]any)
	r.mu.Unlock()
}

func (r *SceneResolver) cached(key sceneCacheKey) (any, bool) {
	r.mu.Lock()
	v, ok := r.cache[key]
	r.mu.Unlock()
	return v, ok
}

func (r *SceneResolver) store(key sceneCacheKey, v any) {
	r.mu.Lock()
	r.cache[key] = v
	r.mu.Unlock()
}

// ResolveCamera computes the camera pose at the context time. Unregistered
// camera paths fall back to defaults.
func (r *SceneResolver) ResolveCamera(ctx EvalContext) (CameraPose, error) {
	key := sceneCacheKey{kind: "camera", ms: cacheMillis(ctx.Time)}
	if v, ok := r.cached(key); ok {
		return v.(CameraPose), nil
	}

	pose := CameraPose{Position: defaultCameraPosition, FOV: defaultCameraFOV}

	position, err := r.driver.EvaluateVector(cameraPositionPath, ctx)
	switch {
	case err == nil:
		pose.Position = position
	case !errors.Is(err, ErrPropertyNotFound):
		return CameraPose{}, fmt.Errorf("reel: resolve camera: %w", err)
	}

	target, err := r.driver.EvaluateVector(cameraTargetPath, ctx)
	switch {
	case err == nil:
		pose.Target = target
	case !errors.Is(err, ErrPropertyNotFound):
		return CameraPose{}, fmt.Errorf("reel: resolve camera: %w", err)
	}

	fov, err := r.driver.Evaluate(cameraFOVPath, ctx)
	switch {
	case err == nil:
		pose.FOV = fov
	case !errors.Is(err, ErrPropertyNotFound):
		return CameraPose{}, fmt.Errorf("reel: resolve camera: %w", err)
	}

	r.store(key, pose)
	return pose, nil
}

// ResolveTransform computes the 4x4 transform matrix for a scene element
// from the vector properties prefix+".position", ".rotation", and ".scale".
// Missing position and rotation default to zero; missing scale defaults
// to (1,1,1).
func (r *SceneResolver) ResolveTransform(prefix string, ctx EvalContext) (Mat4, error) {
	key := sceneCacheKey{kind: "transform", path: prefix, ms: cacheMillis(ctx.Time)}
	if v, ok := r.cached(key); ok {
		return v.(Mat4), nil
	}

	var position, rotation Vec3
	scale := Vec3{1, 1, 1}

	v, err := r.driver.EvaluateVector(prefix+".position", ctx)
	switch {
	case err == nil:
		position = v
	case !errors.Is(err, ErrPropertyNotFound):
		return Mat4{}, fmt.Errorf("reel: resolve transform %q: %w", prefix, err)
	}

	v, err = r.driver.EvaluateVector(prefix+".rotation", ctx)
	switch {
	case err == nil:
		rotation = v
	case !errors.Is(err, ErrPropertyNotFound):
		return Mat4{}, fmt.Errorf("reel: resolve transform %q: %w", prefix, err)
	}

	v, err = r.driver.EvaluateVector(prefix+".scale", ctx)
	switch {
	case err == nil:
		scale = v
	case !errors.Is(err, ErrPropertyNotFound):
		return Mat4{}, fmt.Errorf("reel: resolve transform %q: %w", prefix, err)
	}

	m := ComposeTRS(position, rotation, scale)
	r.store(key, m)
	return m, nil
}

// ResolveOpacity computes the opacity for prefix+".opacity", clamped to
// [0, 1]. An installed override expression takes precedence over the
// registered driver; with neither, opacity is 1.
func (r *SceneResolver) ResolveOpacity(prefix string, ctx EvalContext) (float64, error) {
	r.mu.Lock()
	override := r.opacityExpr
	r.mu.Unlock()

	if override != nil {
		v, err := override.Evaluate(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("reel: resolve opacity %q: %w", prefix, err)
		}
		return clamp(v, 0, 1), nil
	}

	key := sceneCacheKey{kind: "opacity", path: prefix, ms: cacheMillis(ctx.Time)}
	if v, ok := r.cached(key); ok {
		return v.(float64), nil
	}

	v, err := r.driver.Evaluate(prefix+".opacity", ctx)
	switch {
	case errors.Is(err, ErrPropertyNotFound):
		v = 1
	case err != nil:
		return 0, fmt.Errorf("reel: resolve opacity %q: %w", prefix, err)
	}

	out := clamp(v, 0, 1)
	r.store(key, out)
	return out, nil
}

// SampleCamera resolves the camera pose once per frame over [from, to].
// Intended for export samplers. Returns ErrInvalidTimeRange when the range
// is reversed or fps is not positive.
func (r *SceneResolver) SampleCamera(from, to Time, fps float64) ([]CameraPose, error) {
	if to < from || fps <= 0 {
		return nil, fmt.Errorf("reel: sample camera [%v, %v] at %v fps: %w",
			from, to, fps, ErrInvalidTimeRange)
	}

	first := FrameAt(from, fps)
	last := FrameAt(to, fps)
	poses := make([]CameraPose, 0, last-first+1)
	for frame := first; frame <= last; frame++ {
		t := TimeAt(frame, fps)
		pose, err := r.ResolveCamera(EvalContext{Time: t, Frame: frame, FPS: fps})
		if err != nil {
			return nil, err
		}
		poses = append(poses, pose)
	}
	return poses, nil
}
