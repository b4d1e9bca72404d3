package library

import (
	"context"

	"github.com/jscyril/soundscape/api"
	"github.com/jscyril/soundscape/internal/audio"
	"golang.org/x/sync/errgroup"
)

// Report is the check result for one track of one scene
type Report struct {
	Scene string
	Index int
	Track api.TrackSpec
	Info  *TrackInfo
	Err   error
}

// OK reports whether the track is playable
func (r Report) OK() bool {
	return r.Err == nil
}

// Checker verifies scene tracks concurrently using a bounded worker pool
type Checker struct {
	workers    int
	metaReader *MetadataReader
}

// NewChecker creates a checker running up to workers checks at once
func NewChecker(workers int) *Checker {
	if workers <= 0 {
		workers = 4 // Default worker count
	}
	return &Checker{
		workers:    workers,
		metaReader: NewMetadataReader(),
	}
}

// Check inspects every track of scenes. Reports keep scene and track order.
// The only error returned is cancellation of ctx.
func (c *Checker) Check(ctx context.Context, scenes []api.Scene) ([]Report, error) {
	var reports []Report
	for _, s := range scenes {
		for i, track := range s.Tracks {
			reports = append(reports, Report{Scene: s.Name, Index: i, Track: track})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i := range reports {
		r := &reports[i]
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.Info, r.Err = c.checkTrack(r.Track)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

// checkTrack applies the same rules the engine applies when loading
func (c *Checker) checkTrack(track api.TrackSpec) (*TrackInfo, error) {
	if err := audio.CheckFile(track.Path); err != nil {
		return nil, err
	}
	return c.metaReader.Read(track.Path)
}
