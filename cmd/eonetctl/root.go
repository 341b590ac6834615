package main

import (
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/eonet-event-tracker/internal/adapter/eonet"
	"github.com/couchcryptid/eonet-event-tracker/internal/observability"
	"github.com/couchcryptid/eonet-event-tracker/internal/pipeline"
)

const defaultBaseURL = "https://eonet.sci.gsfc.nasa.gov/api/v2.1"

type globalOptions struct {
	baseURL  string
	timeout  time.Duration
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "eonetctl",
		Short:         "Query NASA EONET natural events",
		Long:          `eonetctl lists EONET categories and events and replays event batches as a paced live feed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", sharedcfg.EnvOrDefault("EONET_BASE_URL", defaultBaseURL), "EONET API root")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	cmd.AddCommand(
		newCategoriesCmd(opts),
		newEventsCmd(opts),
		newStreamCmd(opts),
	)
	return cmd
}

// service wires a retrieval service whose logs go to the command's stderr.
func (o *globalOptions) service(cmd *cobra.Command) *pipeline.Service {
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), o.logLevel, "text")
	metrics := observability.NewUnregisteredMetrics()
	client := eonet.NewClient(o.timeout, metrics, logger)
	return pipeline.NewService(client, strings.TrimRight(o.baseURL, "/"), logger, metrics)
}
