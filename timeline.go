package reel

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Clip places a trimmed span of a source asset on the timeline. Speed
// rescales source time: a clip's timeline duration is
// (SourceOut - SourceIn) / Speed.
type Clip struct {
	ID         string  `yaml:"id" validate:"required"`
	Source     string  `yaml:"source" validate:"required"`
	SourceIn   Time    `yaml:"sourceIn" validate:"gte=0"`
	SourceOut  Time    `yaml:"sourceOut" validate:"gtfield=SourceIn"`
	TimelineIn Time    `yaml:"timelineIn"`
	Speed      float64 `yaml:"speed" validate:"gt=0"`
	Volume     float64 `yaml:"volume" validate:"gte=0"`
}

// NewClip creates a clip with speed 1, full volume, and a fresh UUID id.
func NewClip(source string, sourceIn, sourceOut, timelineIn Time) Clip {
	return Clip{
		ID:         uuid.NewString(),
		Source:     source,
		SourceIn:   sourceIn,
		SourceOut:  sourceOut,
		TimelineIn: timelineIn,
		Speed:      1,
		Volume:     1,
	}
}

// TimelineOut returns the exclusive end of the clip on the timeline:
// TimelineIn + (SourceOut - SourceIn) / Speed.
func (c Clip) TimelineOut() Time {
	if c.Speed == 0 {
		return c.TimelineIn
	}
	return c.TimelineIn + (c.SourceOut-c.SourceIn)/c.Speed
}

// Contains reports whether t lies in the clip's half-open timeline
// interval [TimelineIn, TimelineOut).
func (c Clip) Contains(t Time) bool {
	return t >= c.TimelineIn && t < c.TimelineOut()
}

// SourceTime maps a timeline time to the clip's source time:
// SourceIn + (t - TimelineIn) * Speed. The caller is responsible for t
// being inside the clip.
func (c Clip) SourceTime(t Time) Time {
	return c.SourceIn + (t-c.TimelineIn)*c.Speed
}

// TransitionType names the blend between two adjacent clips. The resolver
// passes the type through; the compositor decides what it looks like.
type TransitionType string

const (
	TransitionCrossfade  TransitionType = "crossfade"
	TransitionDipToBlack TransitionType = "dipToBlack"
	TransitionWipe       TransitionType = "wipe"
	TransitionSlide      TransitionType = "slide"
)

// Transition is a timed cross-blend between two clips. The clips either
// overlap by Duration or sit adjacent, with the blend window centered on
// the cut.
type Transition struct {
	FromClip string         `yaml:"fromClip" validate:"required"`
	ToClip   string         `yaml:"toClip" validate:"required"`
	Type     TransitionType `yaml:"type" validate:"required"`
	// Easing is an authored easing name from the easing table, or empty
	// for linear.
	Easing   string  `yaml:"easing,omitempty"`
	Duration float64 `yaml:"duration" validate:"gt=0"`
}

// Track is an ordered clip list. Clips are contiguous except where
// transition overlaps are authored.
type Track struct {
	ID          string       `yaml:"id" validate:"required"`
	Clips       []Clip       `yaml:"clips" validate:"dive"`
	Transitions []Transition `yaml:"transitions,omitempty" validate:"dive"`
}

// Timeline is the whole edit: tracks, frame rate, and duration. The clip
// resolver holds a reference to one Timeline and treats it as immutable;
// edits replace the timeline wholesale.
type Timeline struct {
	Tracks   []Track `yaml:"tracks" validate:"required,min=1,dive"`
	FPS      float64 `yaml:"fps" validate:"gt=0"`
	Duration float64 `yaml:"duration" validate:"gte=0"`
}

// PrimaryTrack returns the first track, or nil for an empty timeline.
func (tl *Timeline) PrimaryTrack() *Track {
	if len(tl.Tracks) == 0 {
		return nil
	}
	return &tl.Tracks[0]
}

// TrackByID returns the track with the given id, or nil.
func (tl *Timeline) TrackByID(id string) *Track {
	for i := range tl.Tracks {
		if tl.Tracks[i].ID == id {
			return &tl.Tracks[i]
		}
	}
	return nil
}

// clipByID returns the clip with the given id on the track, or nil.
func (tr *Track) clipByID(id string) *Clip {
	for i := range tr.Clips {
		if tr.Clips[i].ID == id {
			return &tr.Clips[i]
		}
	}
	return nil
}

const transitionOverlapTolerance = 1e-6

// timelineValidator carries the struct-tag rules plus the cross-field
// invariants tags cannot express.
var timelineValidator = newTimelineValidator()

func newTimelineValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateTrack, Track{})
	return v
}

// validateTrack enforces the invariants between clips and transitions on
// one track: referenced clips exist, and each transition's clip pair is
// laid out to carry a blend window of the transition's duration.
func validateTrack(sl validator.StructLevel) {
	track := sl.Current().Interface().(Track)

	for _, tn := range track.Transitions {
		from := track.clipByID(tn.FromClip)
		to := track.clipByID(tn.ToClip)
		if from == nil {
			sl.ReportError(tn.FromClip, "FromClip", "fromClip", "clipref", "")
			continue
		}
		if to == nil {
			sl.ReportError(tn.ToClip, "ToClip", "toClip", "clipref", "")
			continue
		}
		// Two authored forms are accepted: clips overlapping by exactly
		// the transition duration, or adjacent clips (a centered blend
		// window straddling the cut).
		overlap := from.TimelineOut() - to.TimelineIn
		if math.Abs(overlap-tn.Duration) > transitionOverlapTolerance &&
			math.Abs(overlap) > transitionOverlapTolerance {
			sl.ReportError(tn.Duration, "Duration", "duration", "overlap", "")
		}
	}
}

// Validate checks the timeline against its declared invariants: field
// constraints, clip references, and transition overlap windows.
func (tl *Timeline) Validate() error {
	if err := timelineValidator.Struct(tl); err != nil {
		return fmt.Errorf("reel: invalid timeline: %w", err)
	}
	return nil
}
