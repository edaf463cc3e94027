package reel

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// ClipContext is the resolved mapping from a timeline time to an active
// clip and its source time. During a transition the context is flagged and
// carries the secondary clip, so a compositor can sample and blend both.
type ClipContext struct {
	Clip       Clip
	SourceTime Time

	// InTransition reports that the time falls inside a transition's
	// blend window. Progress is raw (pre-easing) in [0, 1].
	InTransition   bool
	Progress       float64
	TransitionType TransitionType

	// Secondary is the other clip of the active transition, with its own
	// source time. Nil outside transitions.
	Secondary           *Clip
	SecondarySourceTime Time
}

// TransitionContext resolves both sides of an active transition: each
// clip's source time and the transition progress passed through the
// transition's easing.
type TransitionContext struct {
	Transition Transition

	From           Clip
	FromSourceTime Time
	To             Clip
	ToSourceTime   Time

	// Progress is clamped to [0, 1] and eased by the transition's easing
	// function.
	Progress float64

	// Start and End bound the blend window on the timeline.
	Start Time
	End   Time
}

// UpcomingTransition pairs a transition with when it becomes active,
// for prefetch planning.
type UpcomingTransition struct {
	Transition Transition
	TrackID    string
	// Start is the timeline time the blend window opens.
	Start Time
	// In is the time remaining until Start, measured from the query time.
	In float64
}

// clipCacheKey indexes the frame cache: one entry per (track, frame).
type clipCacheKey struct {
	trackID string
	frame   int
}

// clipCacheLimit bounds the frame cache. On overflow the cache is reset
// wholesale; it is opportunistic, so correctness never depends on a hit.
const clipCacheLimit = 512

// ClipResolver maps timeline times onto clips and source times for the
// current edit timeline. It holds a reference to the timeline, never
// mutating it; edits replace the timeline wholesale via SetTimeline, which
// invalidates the frame cache.
//
// Safe for concurrent use.
type ClipResolver struct {
	mu       sync.Mutex
	timeline *Timeline
	cache    map[clipCacheKey]*ClipContext
	log      zerolog.Logger
}

// NewClipResolver creates a resolver for the given timeline. The timeline
// may be nil until SetTimeline is called; every query on a nil timeline
// returns empty results.
func NewClipResolver(timeline *Timeline) *ClipResolver {
	return &ClipResolver{
		timeline: timeline,
		cache:    make(map[clipCacheKey]*ClipContext),
		log:      zerolog.Nop(),
	}
}

// SetLogger attaches a structured logger for timeline replacement and
// cache events.
func (r *ClipResolver) SetLogger(log zerolog.Logger) {
	r.mu.Lock()
	r.log = log
	r.mu.Unlock()
}

// SetTimeline replaces the edit timeline and clears the frame cache.
func (r *ClipResolver) SetTimeline(timeline *Timeline) {
	r.mu.Lock()
	r.timeline = timeline
	r.cache = make(map[clipCacheKey]*ClipContext)
	r.log.Debug().Msg("timeline replaced, frame cache cleared")
	r.mu.Unlock()
}

// Timeline returns the current edit timeline reference.
func (r *ClipResolver) Timeline() *Timeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeline
}

// FPS returns the current timeline's frame rate, or 0 with no timeline.
func (r *ClipResolver) FPS() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeline == nil {
		return 0
	}
	return r.timeline.FPS
}

// FrameNumber converts a timeline time to a frame number at the timeline's
// frame rate. The round trip through TimeOf is lossy: frames quantize time.
func (r *ClipResolver) FrameNumber(t Time) int {
	return FrameAt(t, r.FPS())
}

// TimeOf converts a frame number to a timeline time.
func (r *ClipResolver) TimeOf(frame int) Time {
	fps := r.FPS()
	if fps <= 0 {
		return 0
	}
	return TimeAt(frame, fps)
}

// Resolve maps a timeline time to the active clip on the primary track.
// Inside a transition's blend window the context is transition-flagged
// with both clips; transition resolution takes precedence over the plain
// single-clip mapping. No covering clip means nil: a gap is a normal
// state, not an error.
func (r *ClipResolver) Resolve(t Time) *ClipContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	track := r.primaryTrackLocked()
	return resolveOnTrack(track, t)
}

// ResolveOnTrack is Resolve against a specific track id. An unknown track
// id resolves to nil.
func (r *ClipResolver) ResolveOnTrack(t Time, trackID string) *ClipContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeline == nil {
		return nil
	}
	return resolveOnTrack(r.timeline.TrackByID(trackID), t)
}

// ResolveFrame maps a frame number to its clip context through the frame
// cache, resolving on the primary track.
func (r *ClipResolver) ResolveFrame(frame int) *ClipContext {
	r.mu.Lock()
	defer r.mu.Unlock()

	track := r.primaryTrackLocked()
	if track == nil {
		return nil
	}

	key := clipCacheKey{trackID: track.ID, frame: frame}
	if cached, ok := r.cache[key]; ok {
		return cached
	}

	ctx := resolveOnTrack(track, TimeAt(frame, r.timeline.FPS))
	if len(r.cache) >= clipCacheLimit {
		r.cache = make(map[clipCacheKey]*ClipContext)
		r.log.Debug().Int("limit", clipCacheLimit).Msg("frame cache reset")
	}
	r.cache[key] = ctx
	return ctx
}

// ResolveBatch resolves each frame independently. The result is aligned
// with the input; frames over gaps hold nil.
func (r *ClipResolver) ResolveBatch(frames []int) []*ClipContext {
	out := make([]*ClipContext, len(frames))
	for i, frame := range frames {
		out[i] = r.ResolveFrame(frame)
	}
	return out
}

// TransitionContext resolves the active transition at t on the primary
// track, or nil when t is not inside any blend window.
func (r *ClipResolver) TransitionContext(t Time) *TransitionContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return transitionOnTrack(r.primaryTrackLocked(), t)
}

// TransitionContextOnTrack is TransitionContext against a specific track
// id. An unknown track id resolves to nil.
func (r *ClipResolver) TransitionContextOnTrack(t Time, trackID string) *TransitionContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeline == nil {
		return nil
	}
	return transitionOnTrack(r.timeline.TrackByID(trackID), t)
}

// ResolveRange returns the distinct clips whose timeline intervals
// intersect [from, to], across all tracks, in timeline order. Feeds a
// prefetch collaborator.
func (r *ClipResolver) ResolveRange(from, to Time) []Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeline == nil || to < from {
		return nil
	}

	var clips []Clip
	seen := map[string]bool{}
	for i := range r.timeline.Tracks {
		for _, clip := range r.timeline.Tracks[i].Clips {
			if clip.TimelineOut() <= from || clip.TimelineIn > to {
				continue
			}
			if seen[clip.ID] {
				continue
			}
			seen[clip.ID] = true
			clips = append(clips, clip)
		}
	}
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].TimelineIn < clips[j].TimelineIn
	})
	return clips
}

// SourcesNeeded returns the distinct source identifiers needed in
// [from, from+lookahead], ordered by first appearance on the timeline.
func (r *ClipResolver) SourcesNeeded(from Time, lookahead float64) []string {
	clips := r.ResolveRange(from, from+lookahead)
	var sources []string
	seen := map[string]bool{}
	for _, clip := range clips {
		if seen[clip.Source] {
			continue
		}
		seen[clip.Source] = true
		sources = append(sources, clip.Source)
	}
	return sources
}

// UpcomingTransitions returns transitions whose to-clip starts within
// (from, from+lookahead], across all tracks, sorted by time until start
// ascending.
func (r *ClipResolver) UpcomingTransitions(from Time, lookahead float64) []UpcomingTransition {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeline == nil {
		return nil
	}

	var upcoming []UpcomingTransition
	for i := range r.timeline.Tracks {
		track := &r.timeline.Tracks[i]
		for _, tn := range track.Transitions {
			to := track.clipByID(tn.ToClip)
			if to == nil {
				continue
			}
			if to.TimelineIn <= from || to.TimelineIn > from+lookahead {
				continue
			}
			start, _ := transitionWindow(track, tn)
			upcoming = append(upcoming, UpcomingTransition{
				Transition: tn,
				TrackID:    track.ID,
				Start:      start,
				In:         to.TimelineIn - from,
			})
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].In < upcoming[j].In
	})
	return upcoming
}

// primaryTrackLocked returns the primary track with r.mu held.
func (r *ClipResolver) primaryTrackLocked() *Track {
	if r.timeline == nil {
		return nil
	}
	return r.timeline.PrimaryTrack()
}

// transitionWindow computes the blend window for a transition on a track.
// The window is centered on the midpoint between the outgoing clip's end
// and the incoming clip's start: for clips overlapping by exactly the
// transition duration that is the overlap itself, and for adjacent clips
// it is a window of the same duration straddling the cut.
func transitionWindow(track *Track, tn Transition) (start, end Time) {
	from := track.clipByID(tn.FromClip)
	to := track.clipByID(tn.ToClip)
	if from == nil || to == nil {
		return 0, 0
	}
	center := (from.TimelineOut() + to.TimelineIn) / 2
	start = center - tn.Duration/2
	return start, start + tn.Duration
}

// activeTransition finds the transition whose blend window contains t.
func activeTransition(track *Track, t Time) (Transition, Time, Time, bool) {
	for _, tn := range track.Transitions {
		start, end := transitionWindow(track, tn)
		if end > start && t >= start && t < end {
			return tn, start, end, true
		}
	}
	return Transition{}, 0, 0, false
}

// resolveOnTrack maps t onto a clip context for one track.
func resolveOnTrack(track *Track, t Time) *ClipContext {
	if track == nil {
		return nil
	}

	if tn, start, _, ok := activeTransition(track, t); ok {
		from := track.clipByID(tn.FromClip)
		to := track.clipByID(tn.ToClip)

		// The primary mapping stays on whichever clip plainly covers t;
		// during the overlap the outgoing clip wins.
		primary, secondary := from, to
		if !from.Contains(t) && to.Contains(t) {
			primary, secondary = to, from
		}
		sec := *secondary

		return &ClipContext{
			Clip:                *primary,
			SourceTime:          primary.SourceTime(t),
			InTransition:        true,
			Progress:            clamp((t-start)/tn.Duration, 0, 1),
			TransitionType:      tn.Type,
			Secondary:           &sec,
			SecondarySourceTime: sec.SourceTime(t),
		}
	}

	for i := range track.Clips {
		if track.Clips[i].Contains(t) {
			clip := track.Clips[i]
			return &ClipContext{
				Clip:       clip,
				SourceTime: clip.SourceTime(t),
			}
		}
	}
	return nil
}

// transitionOnTrack resolves the active transition context for one track.
func transitionOnTrack(track *Track, t Time) *TransitionContext {
	if track == nil {
		return nil
	}
	tn, start, end, ok := activeTransition(track, t)
	if !ok {
		return nil
	}

	from := track.clipByID(tn.FromClip)
	to := track.clipByID(tn.ToClip)

	progress := clamp((t-start)/tn.Duration, 0, 1)
	if tn.Easing != "" {
		fn, _ := EasingByName(tn.Easing)
		progress = easeProgress(fn, progress)
	}

	// Source times extrapolate linearly past each clip's trim during the
	// blend window; the decoder samples handle media there.
	return &TransitionContext{
		Transition:     tn,
		From:           *from,
		FromSourceTime: from.SourceTime(t),
		To:             *to,
		ToSourceTime:   to.SourceTime(t),
		Progress:       progress,
		Start:          start,
		End:            end,
	}
}
