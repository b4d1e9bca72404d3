package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jscyril/soundscape/api"
	"github.com/jscyril/soundscape/internal/library"
	"github.com/jscyril/soundscape/internal/scene"
)

// errCheckFailed reports that check found unplayable tracks
var errCheckFailed = errors.New("scene check found problems")

func newCheckCmd(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that every scene track can be played",
		Long: `Load the scene file and inspect each track: the path must be set, the
file must exist, its format must be supported and its tags readable.
Repaired track fields are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closer, err := a.newLogger(false)
			if err != nil {
				return err
			}
			defer closer.Close()

			cat, err := scene.NewStore(a.cfg.ScenesPath, logger).Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range cat.Warnings() {
				fmt.Fprintf(out, "warning: %s\n", w)
			}

			scenes := make([]api.Scene, 0, cat.Len())
			for _, name := range cat.Names() {
				if s, ok := cat.Scene(name); ok {
					scenes = append(scenes, s)
				}
			}

			reports, err := library.NewChecker(workers).Check(cmd.Context(), scenes)
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if !r.OK() {
					failed++
					fmt.Fprintf(out, "%s[%d] %s: %v\n", r.Scene, r.Index, displayPath(r.Track.Path), r.Err)
				}
			}
			fmt.Fprintf(out, "%d scenes, %d tracks, %d problems\n", len(scenes), len(reports), failed)

			if failed > 0 {
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "number of files inspected at once")
	return cmd
}

func displayPath(path string) string {
	if path == "" {
		return "(no path)"
	}
	return path
}
