package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
	"github.com/couchcryptid/eonet-event-tracker/internal/pipeline"
)

type queryOptions struct {
	status    string
	days      int
	minPlaces int
	category  int
}

func (q *queryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.status, "status", "open", "event status: open, closed or all")
	cmd.Flags().IntVar(&q.days, "days", 0, "only events from the last N days (0 for no limit)")
	cmd.Flags().IntVar(&q.minPlaces, "min-places", 0, "minimum number of affected places")
	cmd.Flags().IntVar(&q.category, "category", 0, "restrict to a category id")
}

func (q *queryOptions) fetch(ctx context.Context, svc *pipeline.Service) ([]domain.Event, error) {
	status, err := domain.ParseEventStatus(q.status)
	if err != nil {
		return nil, err
	}
	eq := pipeline.EventQuery{Status: status, PriorDays: q.days, MinAffectedPlaces: q.minPlaces}
	if q.category != 0 {
		return svc.CategoryEvents(ctx, q.category, eq)
	}
	return svc.Events(ctx, eq)
}

func newCategoriesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List event categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := opts.service(cmd).Categories(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, c := range categories {
				if err := enc.Encode(c); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newEventsCmd(opts *globalOptions) *cobra.Command {
	q := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print matching events as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			events, err := q.fetch(cmd.Context(), opts.service(cmd))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, ev := range events {
				if err := enc.Encode(ev); err != nil {
					return err
				}
			}
			return nil
		},
	}
	q.bind(cmd)
	return cmd
}

var errFeedDone = errors.New("feed done")

func newStreamCmd(opts *globalOptions) *cobra.Command {
	var (
		q        = &queryOptions{}
		count    int
		interval time.Duration
		rewrite  bool
	)
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Replay matching events as a paced live feed",
		Long:  `stream fetches the matching events once and prints one per tick, newest position first, cycling until --count events were printed or the command is interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			events, err := q.fetch(cmd.Context(), opts.service(cmd))
			if err != nil {
				return err
			}
			emitter := pipeline.NewEmitter(events, pipeline.EmitterOptions{
				Interval:          interval,
				RewriteTimestamps: rewrite,
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			printed := 0
			err = emitter.Run(cmd.Context(), func(ev domain.Event) error {
				if err := enc.Encode(ev); err != nil {
					return err
				}
				printed++
				if count > 0 && printed >= count {
					return errFeedDone
				}
				return nil
			})
			if errors.Is(err, errFeedDone) {
				return nil
			}
			return err
		},
	}
	q.bind(cmd)
	cmd.Flags().IntVar(&count, "count", 0, "stop after N events (0 runs until interrupted)")
	cmd.Flags().DurationVar(&interval, "interval", pipeline.DefaultInterval, "time between events")
	cmd.Flags().BoolVar(&rewrite, "rewrite-timestamps", false, "date every geometry with the emission time")
	return cmd
}
