// Package reel is the timeline and animation resolution engine of a
// video-editing and compositing pipeline.
//
// Reel converts time-indexed creative intent (authored keyframes, small
// math expressions, linked and semantic property bindings, and an edit
// timeline of clips and transitions) into concrete numeric values and
// source-time mappings, once per rendered frame. It does not render pixels,
// own source media, or perform I/O: it computes values and typed failures,
// and leaves recovery policy to the caller.
//
// # Animated values
//
// A [KeyframeTrack] interpolates any value type with the [Interpolatable]
// capability over an ordered keyframe list, with interpolation policies
// (linear, quadratic eases, step, Bezier, Catmull-Rom) and extrapolation
// policies (hold, linear, loop, ping-pong):
//
//	track := reel.NewKeyframeTrack(
//		reel.Keyframe[reel.Float]{Time: 0, Value: 0},
//		reel.Keyframe[reel.Float]{Time: 2, Value: 10},
//	)
//	v := track.Evaluate(1.0) // 5
//
// Expressions are a small closed arithmetic language bound to a per-frame
// [EvalContext]:
//
//	e, _ := reel.NewExpression("sin(time * tau) * 0.5 + 0.5")
//	v, _ := e.Evaluate(reel.EvalContext{Time: 0.25}, nil)
//
// A [PropertyDriver] maps dot-separated property paths to keyframe tracks,
// expressions, semantic drivers, or links to other paths, and resolves them
// cycle-safely. A [SceneResolver] layers camera pose, transform matrices,
// and opacity on top of the registry.
//
// # The edit timeline
//
// A [ClipResolver] maps timeline times onto clips and source times for the
// current [Timeline], including transition blend windows, batch and
// lookahead queries, and a frame-indexed cache:
//
//	resolver := reel.NewClipResolver(timeline)
//	if cc := resolver.Resolve(2.5); cc != nil {
//		// decode cc.Clip.Source at cc.SourceTime
//	}
//
// All stateful components serialize their own mutation and are safe for
// concurrent use; pure computations may run fully in parallel.
package reel
