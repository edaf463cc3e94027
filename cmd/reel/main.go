// Command reel inspects edit timelines and evaluates animation expressions
// from the shell. It is a thin wrapper over the reel library for debugging
// authored content; renderers embed the library directly.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/phanxgames/reel"
)

var (
	flagTimeline string
	flagTime     float64
	flagTrack    string
	flagVerbose  bool

	flagFrame    int
	flagDuration float64
	flagFPS      float64

	flagLookahead float64
)

func main() {
	root := &cobra.Command{
		Use:           "reel",
		Short:         "Inspect timelines and evaluate animation expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(resolveCmd(), evalCmd(), sourcesCmd(), validateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "reel:", err)
		os.Exit(1)
	}
}

func logger() zerolog.Logger {
	if !flagVerbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func loadResolver(path string) (*reel.ClipResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tl, err := reel.DecodeTimeline(data)
	if err != nil {
		return nil, err
	}
	resolver := reel.NewClipResolver(tl)
	resolver.SetLogger(logger())
	return resolver, nil
}

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Map a timeline time to its active clip and source time",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := loadResolver(flagTimeline)
			if err != nil {
				return err
			}

			var cc *reel.ClipContext
			if flagTrack != "" {
				cc = resolver.ResolveOnTrack(flagTime, flagTrack)
			} else {
				cc = resolver.Resolve(flagTime)
			}
			if cc == nil {
				fmt.Printf("t=%.3f: gap (no clip)\n", flagTime)
				return nil
			}

			fmt.Printf("t=%.3f: clip %s source=%s sourceTime=%.3f\n",
				flagTime, cc.Clip.ID, cc.Clip.Source, cc.SourceTime)
			if cc.InTransition {
				fmt.Printf("  transition %s progress=%.3f with %s sourceTime=%.3f\n",
					cc.TransitionType, cc.Progress, cc.Secondary.ID, cc.SecondarySourceTime)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagTimeline, "timeline", "", "timeline YAML file")
	cmd.Flags().Float64Var(&flagTime, "time", 0, "timeline time in seconds")
	cmd.Flags().StringVar(&flagTrack, "track", "", "track id (default: primary track)")
	cobra.CheckErr(cmd.MarkFlagRequired("timeline"))
	return cmd
}

func evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an animation expression at a time context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := strings.TrimSpace(args[0])
			frame := flagFrame
			if frame == 0 && flagFPS > 0 {
				frame = reel.FrameAt(flagTime, flagFPS)
			}
			v, err := reel.EvalExpression(src, reel.EvalContext{
				Time:     flagTime,
				Frame:    frame,
				Duration: flagDuration,
				FPS:      flagFPS,
			})
			if err != nil {
				return err
			}
			fmt.Printf("%g\n", v)
			return nil
		},
	}
	cmd.Flags().Float64Var(&flagTime, "time", 0, "time binding in seconds")
	cmd.Flags().IntVar(&flagFrame, "frame", 0, "frame binding (default: derived from time)")
	cmd.Flags().Float64Var(&flagDuration, "duration", 0, "duration binding in seconds")
	cmd.Flags().Float64Var(&flagFPS, "fps", 30, "fps binding")
	return cmd
}

func sourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List source assets needed in a lookahead window",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := loadResolver(flagTimeline)
			if err != nil {
				return err
			}
			for _, src := range resolver.SourcesNeeded(flagTime, flagLookahead) {
				fmt.Println(src)
			}
			for _, up := range resolver.UpcomingTransitions(flagTime, flagLookahead) {
				fmt.Printf("transition %s -> %s (%s) in %.3fs\n",
					up.Transition.FromClip, up.Transition.ToClip, up.Transition.Type, up.In)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagTimeline, "timeline", "", "timeline YAML file")
	cmd.Flags().Float64Var(&flagTime, "from", 0, "window start in seconds")
	cmd.Flags().Float64Var(&flagLookahead, "lookahead", 5, "window length in seconds")
	cobra.CheckErr(cmd.MarkFlagRequired("timeline"))
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <timeline.yaml>",
		Short: "Check a timeline against its invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := reel.DecodeTimeline(data); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
	return cmd
}
