package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/rndmcnlly/democlips-gallery/internal/app"
	"github.com/rndmcnlly/democlips-gallery/internal/clients/stream"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
)

// Clips normally leave processing state when a gallery page load observes the
// provider report them ready. Clips in galleries nobody opens, or whose
// upload channel expired before any bytes arrived, stay in processing
// forever. This command probes those stragglers once: finished clips get
// their duration recorded, and clips the provider has forgotten can be purged
// together with their stars.
func main() {
	var olderThan time.Duration
	var limit int
	var dryRun bool
	var purge bool
	flag.DurationVar(&olderThan, "older-than", time.Hour, "only probe clips stuck in processing at least this long")
	flag.IntVar(&limit, "limit", 0, "limit number of clips probed")
	flag.BoolVar(&dryRun, "dry-run", false, "report without writing")
	flag.BoolVar(&purge, "purge", false, "delete rows for clips the provider no longer knows")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found")
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	dbc := dbctx.New(ctx)

	rows, err := application.Repos.Videos.ListProcessing(dbc, time.Now().Add(-olderThan), limit)
	if err != nil {
		fmt.Printf("list processing clips: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Println("no clips stuck in processing")
		return
	}

	var backfilled, purged, orphaned, pending, failed int
	for _, v := range rows {
		st, probeErr := application.Clients.Stream.GetVideo(ctx, v.ID)
		switch {
		case probeErr == nil && st.ReadyToStream && st.Duration > 0:
			if dryRun {
				fmt.Printf("would backfill %s (%s/%s) duration=%.1fs\n", v.ID, v.CourseID, v.AssignmentID, st.Duration)
			} else if err := application.Repos.Videos.SetDuration(dbc, v.ID, st.Duration); err != nil {
				fmt.Printf("backfill %s: %v\n", v.ID, err)
				failed++
				continue
			}
			backfilled++
		case errors.Is(probeErr, stream.ErrNotFound):
			if !purge {
				fmt.Printf("orphaned %s (%s/%s): provider has no such video, rerun with -purge to delete\n", v.ID, v.CourseID, v.AssignmentID)
				orphaned++
				continue
			}
			if dryRun {
				fmt.Printf("would purge %s (%s/%s)\n", v.ID, v.CourseID, v.AssignmentID)
				purged++
				continue
			}
			if err := application.Repos.Stars.DeleteByVideoIDs(dbc, []string{v.ID}); err != nil {
				fmt.Printf("purge %s stars: %v\n", v.ID, err)
				failed++
				continue
			}
			if err := application.Repos.Videos.DeleteByIDs(dbc, []string{v.ID}); err != nil {
				fmt.Printf("purge %s: %v\n", v.ID, err)
				failed++
				continue
			}
			purged++
		case probeErr != nil:
			fmt.Printf("probe %s: %v\n", v.ID, probeErr)
			failed++
		default:
			pending++
		}
	}

	fmt.Printf("probed=%d backfilled=%d purged=%d orphaned=%d still_transcoding=%d failed=%d\n",
		len(rows), backfilled, purged, orphaned, pending, failed)
}
