package reel

import (
	"testing"
)

func TestResolvePlainClips(t *testing.T) {
	r := NewClipResolver(twoClipTimeline())

	cc := r.Resolve(2.5)
	if cc == nil {
		t.Fatal("expected clip A at t=2.5")
	}
	if cc.Clip.ID != "A" || cc.InTransition {
		t.Fatalf("got clip %s (inTransition=%v), want plain A", cc.Clip.ID, cc.InTransition)
	}
	assertNear(t, "A source time", cc.SourceTime, 2.5)

	cc = r.Resolve(7)
	if cc == nil || cc.Clip.ID != "B" {
		t.Fatal("expected clip B at t=7")
	}
	assertNear(t, "B source time", cc.SourceTime, 2)
}

func TestResolveGapIsNil(t *testing.T) {
	r := NewClipResolver(twoClipTimeline())
	if cc := r.Resolve(12); cc != nil {
		t.Fatalf("expected nil over the gap, got clip %s", cc.Clip.ID)
	}
	if cc := r.Resolve(-1); cc != nil {
		t.Fatal("expected nil before the first clip")
	}
}

func TestResolveWithSpeed(t *testing.T) {
	c := NewClip("fast", 10, 20, 0)
	c.ID = "F"
	c.Speed = 2 // 10s of source over 5s of timeline
	r := NewClipResolver(&Timeline{
		Tracks: []Track{{ID: "v", Clips: []Clip{c}}},
		FPS:    30,
	})
	cc := r.Resolve(3)
	if cc == nil {
		t.Fatal("expected clip F")
	}
	assertNear(t, "speed-scaled source time", cc.SourceTime, 16)
}

func TestResolveInsideTransitionWindow(t *testing.T) {
	tl := withTransition(twoClipTimeline(), Transition{
		FromClip: "A", ToClip: "B", Type: TransitionCrossfade, Duration: 1,
	})
	r := NewClipResolver(tl)

	// The 1s window is centered on the cut at t=5: [4.5, 5.5).
	cc := r.Resolve(4.6)
	if cc == nil || !cc.InTransition {
		t.Fatal("expected transition-flagged context at t=4.6")
	}
	assertNearTol(t, "raw progress", cc.Progress, 0.1, 1e-9)
	if cc.TransitionType != TransitionCrossfade {
		t.Errorf("type = %s, want crossfade", cc.TransitionType)
	}
	if cc.Clip.ID != "A" || cc.Secondary == nil || cc.Secondary.ID != "B" {
		t.Fatalf("primary %s / secondary %v, want A / B", cc.Clip.ID, cc.Secondary)
	}
	assertNear(t, "primary source", cc.SourceTime, 4.6)
	// The incoming clip extrapolates before its trim.
	assertNear(t, "secondary source", cc.SecondarySourceTime, -0.4)

	// Past the cut the incoming clip is primary.
	cc = r.Resolve(5.2)
	if cc == nil || !cc.InTransition || cc.Clip.ID != "B" {
		t.Fatal("expected B primary at t=5.2")
	}
	assertNearTol(t, "late progress", cc.Progress, 0.7, 1e-9)

	// Outside the window resolution is plain.
	cc = r.Resolve(4.4)
	if cc == nil || cc.InTransition {
		t.Fatal("expected plain context at t=4.4")
	}
	cc = r.Resolve(5.5)
	if cc == nil || cc.InTransition || cc.Clip.ID != "B" {
		t.Fatal("expected plain B at t=5.5")
	}
}

func TestTransitionContext(t *testing.T) {
	tl := withTransition(twoClipTimeline(), Transition{
		FromClip: "A", ToClip: "B", Type: TransitionCrossfade, Duration: 1,
	})
	r := NewClipResolver(tl)

	tc := r.TransitionContext(5)
	if tc == nil {
		t.Fatal("expected transition context at the cut")
	}
	assertNear(t, "progress at center", tc.Progress, 0.5)
	assertNear(t, "from source", tc.FromSourceTime, 5)
	assertNear(t, "to source", tc.ToSourceTime, 0)
	assertNear(t, "window start", tc.Start, 4.5)
	assertNear(t, "window end", tc.End, 5.5)
	if tc.From.ID != "A" || tc.To.ID != "B" {
		t.Errorf("clips %s -> %s, want A -> B", tc.From.ID, tc.To.ID)
	}

	if tc := r.TransitionContext(2); tc != nil {
		t.Error("no transition context outside the window")
	}
}

func TestTransitionEasingApplied(t *testing.T) {
	tl := withTransition(twoClipTimeline(), Transition{
		FromClip: "A", ToClip: "B", Type: TransitionCrossfade,
		Easing: "inQuad", Duration: 1,
	})
	r := NewClipResolver(tl)

	tc := r.TransitionContext(5)
	if tc == nil {
		t.Fatal("expected transition context")
	}
	// inQuad squares the raw midpoint progress.
	assertNearTol(t, "eased progress", tc.Progress, 0.25, 1e-6)
}

func TestOverlappingClipsTransition(t *testing.T) {
	a := NewClip("srcA", 0, 5, 0)
	a.ID = "A"
	b := NewClip("srcB", 0, 5, 4) // genuine 1s overlap
	b.ID = "B"
	tl := &Timeline{
		Tracks: []Track{{
			ID:    "v",
			Clips: []Clip{a, b},
			Transitions: []Transition{{
				FromClip: "A", ToClip: "B", Type: TransitionWipe, Duration: 1,
			}},
		}},
		FPS: 24,
	}
	r := NewClipResolver(tl)

	// The window is the overlap itself: [4, 5).
	tc := r.TransitionContext(4.25)
	if tc == nil {
		t.Fatal("expected transition context in the overlap")
	}
	assertNear(t, "progress", tc.Progress, 0.25)
	assertNear(t, "to source inside trim", tc.ToSourceTime, 0.25)

	// The outgoing clip stays primary through the overlap.
	cc := r.Resolve(4.25)
	if cc == nil || cc.Clip.ID != "A" {
		t.Fatal("outgoing clip should stay primary")
	}
}

func TestFrameConversionsAreLossy(t *testing.T) {
	r := NewClipResolver(twoClipTimeline()) // 24 fps

	if got := r.FrameNumber(1); got != 24 {
		t.Errorf("FrameNumber(1) = %d, want 24", got)
	}
	assertNear(t, "TimeOf", r.TimeOf(36), 1.5)

	// round(t*fps) then /fps does not reproduce arbitrary times.
	const before = 1.007
	after := r.TimeOf(r.FrameNumber(before))
	if before == after {
		t.Error("expected lossy frame round-trip for off-frame times")
	}
}

func TestResolveFrameUsesCache(t *testing.T) {
	r := NewClipResolver(twoClipTimeline())

	first := r.ResolveFrame(60) // t=2.5
	if first == nil || first.Clip.ID != "A" {
		t.Fatal("expected clip A at frame 60")
	}
	second := r.ResolveFrame(60)
	if first != second {
		t.Error("second lookup should return the cached context")
	}

	// Replacing the timeline invalidates the cache.
	r.SetTimeline(twoClipTimeline())
	third := r.ResolveFrame(60)
	if third == first {
		t.Error("cache must be cleared on timeline replacement")
	}
	if third == nil || third.Clip.ID != "A" {
		t.Fatal("recomputed context should still resolve clip A")
	}
}

func TestResolveBatch(t *testing.T) {
	r := NewClipResolver(twoClipTimeline())
	frames := []int{0, 60, 168, 400} // t = 0, 2.5, 7, ~16.7
	contexts := r.ResolveBatch(frames)
	if len(contexts) != len(frames) {
		t.Fatalf("len = %d, want %d", len(contexts), len(frames))
	}
	if contexts[0] == nil || contexts[0].Clip.ID != "A" {
		t.Error("frame 0 should resolve A")
	}
	if contexts[1] == nil || contexts[1].Clip.ID != "A" {
		t.Error("frame 60 should resolve A")
	}
	if contexts[2] == nil || contexts[2].Clip.ID != "B" {
		t.Error("frame 168 should resolve B")
	}
	if contexts[3] != nil {
		t.Error("frame 400 is a gap")
	}
}

func TestResolveRange(t *testing.T) {
	r := NewClipResolver(twoClipTimeline())

	clips := r.ResolveRange(4, 6)
	if len(clips) != 2 || clips[0].ID != "A" || clips[1].ID != "B" {
		t.Fatalf("ResolveRange(4,6) = %v, want [A B]", clipIDs(clips))
	}

	clips = r.ResolveRange(0, 1)
	if len(clips) != 1 || clips[0].ID != "A" {
		t.Fatalf("ResolveRange(0,1) = %v, want [A]", clipIDs(clips))
	}

	if clips := r.ResolveRange(20, 30); len(clips) != 0 {
		t.Errorf("range past the edit should be empty, got %v", clipIDs(clips))
	}
	if clips := r.ResolveRange(6, 4); len(clips) != 0 {
		t.Error("reversed range should be empty")
	}
}

func clipIDs(clips []Clip) []string {
	ids := make([]string, len(clips))
	for i, c := range clips {
		ids[i] = c.ID
	}
	return ids
}

func TestSourcesNeeded(t *testing.T) {
	r := NewClipResolver(twoClipTimeline())

	sources := r.SourcesNeeded(0, 6)
	if len(sources) != 2 || sources[0] != "srcA" || sources[1] != "srcB" {
		t.Fatalf("SourcesNeeded(0,6) = %v, want [srcA srcB]", sources)
	}

	sources = r.SourcesNeeded(0, 2)
	if len(sources) != 1 || sources[0] != "srcA" {
		t.Fatalf("SourcesNeeded(0,2) = %v, want [srcA]", sources)
	}
}

func TestSourcesNeededDeduplicates(t *testing.T) {
	a := NewClip("shared", 0, 2, 0)
	a.ID = "A"
	b := NewClip("shared", 3, 5, 2)
	b.ID = "B"
	r := NewClipResolver(&Timeline{
		Tracks: []Track{{ID: "v", Clips: []Clip{a, b}}},
		FPS:    24,
	})
	sources := r.SourcesNeeded(0, 10)
	if len(sources) != 1 || sources[0] != "shared" {
		t.Fatalf("SourcesNeeded = %v, want [shared]", sources)
	}
}

func TestUpcomingTransitions(t *testing.T) {
	tl := withTransition(twoClipTimeline(), Transition{
		FromClip: "A", ToClip: "B", Type: TransitionCrossfade, Duration: 1,
	})
	r := NewClipResolver(tl)

	upcoming := r.UpcomingTransitions(0, 6)
	if len(upcoming) != 1 {
		t.Fatalf("len = %d, want 1", len(upcoming))
	}
	up := upcoming[0]
	if up.TrackID != "video1" || up.Transition.ToClip != "B" {
		t.Errorf("unexpected transition %+v", up)
	}
	assertNear(t, "time until start", up.In, 5)
	assertNear(t, "window start", up.Start, 4.5)

	// A window that ends before the to-clip starts sees nothing.
	if got := r.UpcomingTransitions(0, 4); len(got) != 0 {
		t.Errorf("UpcomingTransitions(0,4) = %v, want empty", got)
	}
	// Transitions already started are not upcoming.
	if got := r.UpcomingTransitions(5.1, 10); len(got) != 0 {
		t.Errorf("UpcomingTransitions(5.1,10) = %v, want empty", got)
	}
}

func TestUnknownTrackIsEmptyEverywhere(t *testing.T) {
	r := NewClipResolver(twoClipTimeline())
	if r.ResolveOnTrack(2.5, "nope") != nil {
		t.Error("ResolveOnTrack on unknown track should be nil")
	}
	if r.TransitionContextOnTrack(5, "nope") != nil {
		t.Error("TransitionContextOnTrack on unknown track should be nil")
	}
}

func TestNilTimelineIsEmptyEverywhere(t *testing.T) {
	r := NewClipResolver(nil)
	if r.Resolve(0) != nil {
		t.Error("Resolve without timeline should be nil")
	}
	if r.ResolveFrame(0) != nil {
		t.Error("ResolveFrame without timeline should be nil")
	}
	if r.TransitionContext(0) != nil {
		t.Error("TransitionContext without timeline should be nil")
	}
	if len(r.ResolveRange(0, 10)) != 0 {
		t.Error("ResolveRange without timeline should be empty")
	}
	if len(r.SourcesNeeded(0, 10)) != 0 {
		t.Error("SourcesNeeded without timeline should be empty")
	}
	if len(r.UpcomingTransitions(0, 10)) != 0 {
		t.Error("UpcomingTransitions without timeline should be empty")
	}
}

func TestResolveOnNamedTrack(t *testing.T) {
	tl := twoClipTimeline()
	c := NewClip("overlay", 0, 3, 1)
	c.ID = "O"
	tl.Tracks = append(tl.Tracks, Track{ID: "video2", Clips: []Clip{c}})
	r := NewClipResolver(tl)

	cc := r.ResolveOnTrack(2, "video2")
	if cc == nil || cc.Clip.ID != "O" {
		t.Fatal("expected overlay clip on video2")
	}
	assertNear(t, "overlay source time", cc.SourceTime, 1)

	// The primary track is unaffected.
	cc = r.Resolve(2)
	if cc == nil || cc.Clip.ID != "A" {
		t.Fatal("primary track should still resolve A")
	}
}

func TestConcurrentResolve(t *testing.T) {
	tl := withTransition(twoClipTimeline(), Transition{
		FromClip: "A", ToClip: "B", Type: TransitionCrossfade, Duration: 1,
	})
	r := NewClipResolver(tl)

	done := make(chan struct{}, 8)
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				r.ResolveFrame(i % 300)
				if g == 0 && i%50 == 0 {
					r.SetTimeline(twoClipTimeline())
				}
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
