package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/prefixtrie/common/go/xcmd"
	"github.com/yanet-platform/prefixtrie/filter"
	"github.com/yanet-platform/prefixtrie/internal/metrics"
	"github.com/yanet-platform/prefixtrie/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP lookup API",
		Long: "Serve the HTTP lookup API.\n\n" +
			"Rules are reloaded from the configuration file on SIGHUP.",
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			err := runServe()
			if errors.As(err, &xcmd.Interrupted{}) {
				return nil
			}
			return err
		},
	}
}

func runServe() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f, err := filter.NewFilter(
		cfg.Filter,
		filter.WithLog(log),
		filter.WithMetrics(metrics.New(reg)),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize filter: %w", err)
	}

	srv := server.NewServer(
		cfg.Server,
		f,
		server.WithLog(log),
		server.WithGatherer(reg),
	)

	wg, ctx := errgroup.WithContext(context.Background())
	wg.Go(func() error {
		return srv.Run(ctx)
	})
	wg.Go(func() error {
		return xcmd.OnHangup(ctx, func() {
			reload(f, log)
		})
	})
	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		log.Infof("caught signal: %v", err)
		return err
	})

	return wg.Wait()
}

// reload re-reads the configuration file and replaces the filter rules.
//
// Only the filter section is applied; listener and logging changes require
// a restart.
func reload(f *filter.Filter, log *zap.SugaredLogger) {
	cfg, err := LoadConfig(cmd.ConfigPath)
	if err != nil {
		log.Errorw("failed to reload config", zap.Error(err))
		return
	}

	if err := f.Reload(cfg.Filter); err != nil {
		log.Errorw("failed to reload rules", zap.Error(err))
		return
	}

	log.Infow("reloaded rules", zap.Int("rules", f.Len()))
}
