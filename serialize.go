package reel

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Persistence sits with an external collaborator, but the in-memory track
// and timeline representations must reconstruct exactly from a serialized
// form. This file defines that form: policies as strings, keyframes as
// plain (time, value) records, YAML as the carrier (the shape authoring
// tools emit).

var interpolationNames = map[Interpolation]string{
	InterpolationLinear:     "linear",
	InterpolationEaseIn:     "easeIn",
	InterpolationEaseOut:    "easeOut",
	InterpolationEaseInOut:  "easeInOut",
	InterpolationStep:       "step",
	InterpolationBezier:     "bezier",
	InterpolationCatmullRom: "catmullRom",
}

var extrapolationNames = map[Extrapolation]string{
	ExtrapolationHold:     "hold",
	ExtrapolationLinear:   "linear",
	ExtrapolationLoop:     "loop",
	ExtrapolationPingPong: "pingPong",
}

func (i Interpolation) String() string {
	if name, ok := interpolationNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Interpolation(%d)", uint8(i))
}

func (e Extrapolation) String() string {
	if name, ok := extrapolationNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Extrapolation(%d)", uint8(e))
}

// ParseInterpolation returns the interpolation policy for its serialized
// name.
func ParseInterpolation(name string) (Interpolation, error) {
	for policy, n := range interpolationNames {
		if n == name {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("reel: unknown interpolation %q", name)
}

// ParseExtrapolation returns the extrapolation policy for its serialized
// name.
func ParseExtrapolation(name string) (Extrapolation, error) {
	for policy, n := range extrapolationNames {
		if n == name {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("reel: unknown extrapolation %q", name)
}

// KeyframeSpec is the serialized form of one scalar keyframe. Tangents are
// optional (x, y) pairs.
type KeyframeSpec struct {
	Time       Time        `yaml:"time"`
	Value      float64     `yaml:"value"`
	OutTangent *[2]float64 `yaml:"outTangent,omitempty"`
	InTangent  *[2]float64 `yaml:"inTangent,omitempty"`
}

// TrackSpec is the serialized form of a scalar keyframe track.
type TrackSpec struct {
	Keyframes         []KeyframeSpec `yaml:"keyframes"`
	Interpolation     string         `yaml:"interpolation,omitempty"`
	ControlPoints     *[4]float64    `yaml:"controlPoints,omitempty"`
	PreExtrapolation  string         `yaml:"preExtrapolation,omitempty"`
	PostExtrapolation string         `yaml:"postExtrapolation,omitempty"`
}

// BuildTrack reconstructs a scalar keyframe track from its serialized
// form. Empty policy names mean linear interpolation and hold
// extrapolation.
func (s TrackSpec) BuildTrack() (*KeyframeTrack[Float], error) {
	track := NewKeyframeTrack[Float]()

	if s.Interpolation != "" {
		policy, err := ParseInterpolation(s.Interpolation)
		if err != nil {
			return nil, err
		}
		track.Interpolation = policy
	}
	if s.ControlPoints != nil {
		cp := *s.ControlPoints
		track.ControlPoints = NewCubicBezier(cp[0], cp[1], cp[2], cp[3])
	}
	if s.PreExtrapolation != "" {
		policy, err := ParseExtrapolation(s.PreExtrapolation)
		if err != nil {
			return nil, err
		}
		track.PreExtrapolation = policy
	}
	if s.PostExtrapolation != "" {
		policy, err := ParseExtrapolation(s.PostExtrapolation)
		if err != nil {
			return nil, err
		}
		track.PostExtrapolation = policy
	}

	for _, k := range s.Keyframes {
		key := Keyframe[Float]{Time: k.Time, Value: Float(k.Value)}
		if k.OutTangent != nil {
			key.OutTangent = &Vec2{X: k.OutTangent[0], Y: k.OutTangent[1]}
		}
		if k.InTangent != nil {
			key.InTangent = &Vec2{X: k.InTangent[0], Y: k.InTangent[1]}
		}
		track.AddKeyframe(key)
	}
	return track, nil
}

// SpecFromTrack captures a scalar track into its serialized form. The
// result reconstructs the track exactly through BuildTrack.
func SpecFromTrack(track *KeyframeTrack[Float]) TrackSpec {
	spec := TrackSpec{
		Interpolation:     track.Interpolation.String(),
		PreExtrapolation:  track.PreExtrapolation.String(),
		PostExtrapolation: track.PostExtrapolation.String(),
	}
	if track.ControlPoints != (CubicBezier{}) {
		cp := [4]float64{
			track.ControlPoints.X1, track.ControlPoints.Y1,
			track.ControlPoints.X2, track.ControlPoints.Y2,
		}
		spec.ControlPoints = &cp
	}
	for _, k := range track.Keyframes() {
		ks := KeyframeSpec{Time: k.Time, Value: float64(k.Value)}
		if k.OutTangent != nil {
			ks.OutTangent = &[2]float64{k.OutTangent.X, k.OutTangent.Y}
		}
		if k.InTangent != nil {
			ks.InTangent = &[2]float64{k.InTangent.X, k.InTangent.Y}
		}
		spec.Keyframes = append(spec.Keyframes, ks)
	}
	return spec
}

// DecodeTimeline parses a YAML timeline and validates it.
func DecodeTimeline(data []byte) (*Timeline, error) {
	var tl Timeline
	if err := yaml.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("reel: decode timeline: %w", err)
	}
	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return &tl, nil
}

// EncodeTimeline serializes a timeline to YAML.
func EncodeTimeline(tl *Timeline) ([]byte, error) {
	data, err := yaml.Marshal(tl)
	if err != nil {
		return nil, fmt.Errorf("reel: encode timeline: %w", err)
	}
	return data, nil
}

// DecodeTrackSpec parses a YAML scalar track spec.
func DecodeTrackSpec(data []byte) (TrackSpec, error) {
	var spec TrackSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return TrackSpec{}, fmt.Errorf("reel: decode track: %w", err)
	}
	return spec, nil
}

// EncodeTrackSpec serializes a scalar track spec to YAML.
func EncodeTrackSpec(spec TrackSpec) ([]byte, error) {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("reel: encode track: %w", err)
	}
	return data, nil
}
