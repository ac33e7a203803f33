package main

import (
	"fmt"
	"io"
	"net/netip"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/prefixtrie/filter"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup ADDR...",
		Short: "Look up the action for IPv4 addresses",
		Args:  cobra.MinimumNArgs(1),
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

			return runLookup(c.OutOrStdout(), f, args)
		},
	}
}

func runLookup(out io.Writer, f *filter.Filter, args []string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tACTION\tPREFIX")

	for _, arg := range args {
		addr, err := netip.ParseAddr(arg)
		if err != nil {
			return fmt.Errorf("failed to parse address: %w", err)
		}

		verdict, err := f.Lookup(addr)
		if err != nil {
			return err
		}

		prefix := "-"
		if verdict.Matched {
			prefix = verdict.Prefix.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", verdict.Addr, verdict.Action, prefix)
	}

	return w.Flush()
}
