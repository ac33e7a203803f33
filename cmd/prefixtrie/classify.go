package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/prefixtrie/filter"
	"github.com/yanet-platform/prefixtrie/internal/classify"
)

func newClassifyCmd() *cobra.Command {
	var dst bool

	c := &cobra.Command{
		Use:   "classify FILE",
		Short: "Classify packets of a pcap or pcapng capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			f, err := filter.NewFilter(cfg.Filter, filter.WithLog(log))
			if err != nil {
				return fmt.Errorf("failed to initialize filter: %w", err)
			}

			direction := classify.DirectionSource
			if dst {
				direction = classify.DirectionDestination
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open capture: %w", err)
			}
			defer file.Close()

			classifier := classify.NewClassifier(
				f,
				classify.WithDirection(direction),
				classify.WithLog(log),
			)
			stats, err := classifier.Classify(file)
			if err != nil {
				return err
			}

			return printStats(c.OutOrStdout(), stats)
		},
	}
	c.Flags().BoolVar(&dst, "dst", false, "Classify by destination address instead of source")

	return c
}

func printStats(out io.Writer, stats *classify.Stats) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "packets\t%d\n", stats.Packets)
	fmt.Fprintf(w, "non-ipv4\t%d\n", stats.NonIPv4)
	fmt.Fprintf(w, "matched\t%d\n", stats.Matched)

	actions := make([]filter.Action, 0, len(stats.Actions))
	for action := range stats.Actions {
		actions = append(actions, action)
	}
	slices.Sort(actions)

	for _, action := range actions {
		fmt.Fprintf(w, "%s\t%d\n", action, stats.Actions[action])
	}

	return w.Flush()
}
