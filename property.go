package reel

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// SemanticKind names an extension point whose value comes from an external
// perception collaborator (speaker tracking, saliency analysis, and so on).
// This package defines the contract and a deterministic fallback, not the
// behavior.
type SemanticKind uint8

const (
	SemanticTrackSpeaker SemanticKind = iota
	SemanticTrackFace
	SemanticPanSaliency
	SemanticZoomEmotion
	SemanticAutoFrame
	SemanticFollowMotion
)

var semanticNames = map[SemanticKind]string{
	SemanticTrackSpeaker: "trackSpeaker",
	SemanticTrackFace:    "trackFace",
	SemanticPanSaliency:  "panSaliency",
	SemanticZoomEmotion:  "zoomEmotion",
	SemanticAutoFrame:    "autoFrame",
	SemanticFollowMotion: "followMotion",
}

func (k SemanticKind) String() string {
	if name, ok := semanticNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SemanticKind(%d)", uint8(k))
}

// SemanticKindByName returns the kind for an authored driver name.
func SemanticKindByName(name string) (SemanticKind, bool) {
	for kind, n := range semanticNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

// fallbackValue is the deterministic value a semantic driver yields when no
// provider is attached or the provider has no answer. Zoom is neutral at 1;
// every positional driver is neutral at 0.
func (k SemanticKind) fallbackValue() float64 {
	if k == SemanticZoomEmotion {
		return 1
	}
	return 0
}

// SemanticProvider supplies real values for semantic drivers. Returning
// ok=false falls back to the kind's deterministic neutral value.
type SemanticProvider interface {
	SemanticValue(kind SemanticKind, path string, ctx EvalContext) (value float64, ok bool)
}

// driverKind tags the DrivenProperty variant. The set is closed: dispatch
// is an exhaustive switch, and adding a kind is a deliberate breaking
// change.
type driverKind uint8

const (
	driverKeyframes driverKind = iota
	driverExpression
	driverSemantic
	driverLinked
	driverVectorKeyframes
)

// DrivenProperty binds a property path to one animation source. Exactly one
// of the variant fields is populated, selected by kind.
type DrivenProperty struct {
	kind driverKind

	track      *KeyframeTrack[Float]
	expr       *Expression
	semantic   SemanticKind
	linkPath   string
	linkOffset float64
	vecTrack   *KeyframeTrack[Vec3]
}

// PropertyDriver is the registry mapping property paths to their animation
// sources, with cycle-safe recursive resolution of linked properties.
//
// All methods are safe for concurrent use; the registry serializes mutation
// against reads.
type PropertyDriver struct {
	mu       sync.RWMutex
	drivers  map[string]*DrivenProperty
	provider SemanticProvider
	log      zerolog.Logger
}

// NewPropertyDriver creates an empty registry. Logging is disabled until
// SetLogger is called.
func NewPropertyDriver() *PropertyDriver {
	return &PropertyDriver{
		drivers: make(map[string]*DrivenProperty),
		log:     zerolog.Nop(),
	}
}

// SetLogger attaches a structured logger for registry events.
func (d *PropertyDriver) SetLogger(log zerolog.Logger) {
	d.mu.Lock()
	d.log = log
	d.mu.Unlock()
}

// SetSemanticProvider attaches the perception collaborator that supplies
// semantic driver values.
func (d *PropertyDriver) SetSemanticProvider(p SemanticProvider) {
	d.mu.Lock()
	d.provider = p
	d.mu.Unlock()
}

// RegisterKeyframes drives path with a scalar keyframe track.
func (d *PropertyDriver) RegisterKeyframes(path string, track *KeyframeTrack[Float]) {
	d.register(path, &DrivenProperty{kind: driverKeyframes, track: track})
}

// RegisterVectorKeyframes drives path with a combined Vec3 keyframe track.
func (d *PropertyDriver) RegisterVectorKeyframes(path string, track *KeyframeTrack[Vec3]) {
	d.register(path, &DrivenProperty{kind: driverVectorKeyframes, vecTrack: track})
}

// RegisterExpression drives path with an expression. The source is parsed
// here so authoring errors surface at registration, not at frame time.
func (d *PropertyDriver) RegisterExpression(path, src string) error {
	expr, err := NewExpression(src)
	if err != nil {
		return err
	}
	d.register(path, &DrivenProperty{kind: driverExpression, expr: expr})
	return nil
}

// RegisterSemantic drives path with a semantic driver kind.
func (d *PropertyDriver) RegisterSemantic(path string, kind SemanticKind) {
	d.register(path, &DrivenProperty{kind: driverSemantic, semantic: kind})
}

// RegisterLinked drives path by resolving sourcePath and adding offset to
// its value.
func (d *PropertyDriver) RegisterLinked(path, sourcePath string, offset float64) {
	d.register(path, &DrivenProperty{kind: driverLinked, linkPath: sourcePath, linkOffset: offset})
}

func (d *PropertyDriver) register(path string, prop *DrivenProperty) {
	d.mu.Lock()
	d.drivers[path] = prop
	d.log.Debug().Str("path", path).Uint8("kind", uint8(prop.kind)).Msg("property registered")
	d.mu.Unlock()
}

// Unregister removes the driver for path, if any.
func (d *PropertyDriver) Unregister(path string) {
	d.mu.Lock()
	delete(d.drivers, path)
	d.log.Debug().Str("path", path).Msg("property unregistered")
	d.mu.Unlock()
}

// ClearAll removes every registered driver.
func (d *PropertyDriver) ClearAll() {
	d.mu.Lock()
	d.drivers = make(map[string]*DrivenProperty)
	d.log.Debug().Msg("property registry cleared")
	d.mu.Unlock()
}

// Paths returns the registered property paths in sorted order.
func (d *PropertyDriver) Paths() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	paths := make([]string, 0, len(d.drivers))
	for path := range d.drivers {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Evaluate resolves the scalar value of path at the context. Linked
// properties recurse into their source path carrying a visited-path set; a
// revisit fails with ErrCircularDependency, an unregistered path with
// ErrPropertyNotFound.
func (d *PropertyDriver) Evaluate(path string, ctx EvalContext) (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.evaluateLocked(path, ctx, map[string]bool{})
}

// evaluateLocked resolves path with d.mu held for reading.
func (d *PropertyDriver) evaluateLocked(path string, ctx EvalContext, visited map[string]bool) (float64, error) {
	if visited[path] {
		return 0, fmt.Errorf("path %q: %w", path, ErrCircularDependency)
	}
	visited[path] = true

	prop, ok := d.drivers[path]
	if !ok {
		return 0, fmt.Errorf("path %q: %w", path, ErrPropertyNotFound)
	}

	switch prop.kind {
	case driverKeyframes:
		return float64(prop.track.Evaluate(ctx.Time)), nil

	case driverExpression:
		return prop.expr.Evaluate(ctx, nil)

	case driverSemantic:
		if d.provider != nil {
			if v, ok := d.provider.SemanticValue(prop.semantic, path, ctx); ok {
				return v, nil
			}
		}
		return prop.semantic.fallbackValue(), nil

	case driverLinked:
		v, err := d.evaluateLocked(prop.linkPath, ctx, visited)
		if err != nil {
			return 0, err
		}
		return v + prop.linkOffset, nil

	case driverVectorKeyframes:
		return 0, fmt.Errorf("path %q drives a vector: %w", path, ErrInvalidPropertyType)
	}

	return 0, fmt.Errorf("path %q: unknown driver kind %d: %w", path, prop.kind, ErrInvalidPropertyType)
}

// EvaluateVector resolves the Vec3 value of path. A combined vector track
// wins; otherwise the scalar drivers at path+".x", ".y", ".z" are resolved
// independently, with missing axes defaulting to 0. If neither form is
// registered the result is ErrPropertyNotFound.
func (d *PropertyDriver) EvaluateVector(path string, ctx EvalContext) (Vec3, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if prop, ok := d.drivers[path]; ok {
		switch prop.kind {
		case driverVectorKeyframes:
			return prop.vecTrack.Evaluate(ctx.Time), nil
		case driverKeyframes, driverExpression, driverSemantic, driverLinked:
			return Vec3{}, fmt.Errorf("path %q drives a scalar: %w", path, ErrInvalidPropertyType)
		}
	}

	var out Vec3
	found := false
	for _, axis := range [3]struct {
		suffix string
		dst    *float64
	}{
		{".x", &out.X},
		{".y", &out.Y},
		{".z", &out.Z},
	} {
		axisPath := path + axis.suffix
		if _, ok := d.drivers[axisPath]; !ok {
			continue // missing axis stays 0
		}
		v, err := d.evaluateLocked(axisPath, ctx, map[string]bool{})
		if err != nil {
			return Vec3{}, err
		}
		*axis.dst = v
		found = true
	}
	if !found {
		return Vec3{}, fmt.Errorf("path %q: %w", path, ErrPropertyNotFound)
	}
	return out, nil
}

// EvaluateAll resolves every registered scalar path independently, each
// with a fresh visited set. There is no cross-path memoization within one
// pass: correctness under concurrent mutation is favored over speed.
// Vector-track paths are skipped (use EvaluateVector). Failed paths are
// omitted from the result and collected into the joined error.
func (d *PropertyDriver) EvaluateAll(ctx EvalContext) (map[string]float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	values := make(map[string]float64, len(d.drivers))
	var errs []error
	for path, prop := range d.drivers {
		if prop.kind == driverVectorKeyframes {
			continue
		}
		v, err := d.evaluateLocked(path, ctx, map[string]bool{})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values[path] = v
	}
	return values, errors.Join(errs...)
}
