package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"slot-booking/internal/data/entity"
	"slot-booking/internal/scheduler"
	"slot-booking/internal/usecase"

	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var (
		dryRun    bool
		deleteOld bool
		days      int
	)

	c := &cobra.Command{
		Use:   "sweep",
		Short: "Expire lapsed holds once and optionally purge old terminal reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rt, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			rec, err := rt.recorder(ctx)
			if err != nil {
				return err
			}

			service := usecase.NewService(rt.repo, rt.config, rec, nil, time.Now, rt.logger)
			sweeper := &scheduler.Sweeper{
				Repo:      rt.repo,
				Manager:   service.Manager,
				Recorder:  rec,
				BatchSize: rt.config.Sweeper.BatchSize,
				Now:       time.Now,
				Log:       rt.logger,
			}

			if days == 0 {
				days = rt.config.Sweeper.RetentionDays
			}

			stats, err := sweeper.RunOnce(ctx, scheduler.SweepOptions{
				DryRun:        dryRun,
				DeleteOld:     deleteOld,
				RetentionDays: days,
			})
			if err != nil {
				return err
			}

			prefix := ""
			if dryRun {
				prefix = "[dry-run] "
			}
			fmt.Fprintf(os.Stdout, "%slapsed=%d expired=%d skipped=%d failed=%d purged=%d\n",
				prefix, stats.Lapsed, stats.Expired, stats.Skipped, stats.Failed, stats.Purged)

			statuses := make([]string, 0, len(stats.ByStatus))
			for status := range stats.ByStatus {
				statuses = append(statuses, string(status))
			}
			sort.Strings(statuses)
			for _, status := range statuses {
				fmt.Fprintf(os.Stdout, "  %-10s %d\n", status, stats.ByStatus[entity.ReservationStatus(status)])
			}
			return nil
		},
	}

	c.Flags().BoolVar(&dryRun, "dry-run", false, "report without changing anything")
	c.Flags().BoolVar(&deleteOld, "delete-old", false, "purge expired and cancelled reservations past retention")
	c.Flags().IntVar(&days, "days", 0, "retention in days for --delete-old (default SWEEP_RETENTION_DAYS)")
	return c
}
