package main

import (
	"fmt"
	"io"
	"net/netip"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/prefixtrie/internal/kroute"
	"github.com/yanet-platform/prefixtrie/lpm"
)

func newRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route ADDR...",
		Short: "Resolve IPv4 addresses against the kernel routing table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			routes, err := kroute.Load(cfg.Routes, kroute.WithLog(log))
			if err != nil {
				return fmt.Errorf("failed to load routes: %w", err)
			}
			log.Debugw("loaded routes",
				"table", cfg.Routes.Table,
				"prefixes", routes.Len(),
				"nodes", routes.Nodes(),
			)

			return runRoute(c.OutOrStdout(), routes, args)
		},
	}
}

func runRoute(out io.Writer, routes *lpm.Trie[kroute.Nexthop], args []string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tPREFIX\tNEXTHOP")

	for _, arg := range args {
		addr, err := netip.ParseAddr(arg)
		if err != nil {
			return fmt.Errorf("failed to parse address: %w", err)
		}

		if !addr.Unmap().Is4() {
			return fmt.Errorf("%s: %w", addr, lpm.ErrNotIPv4)
		}

		prefix, nexthop, ok := routes.LookupAddrPrefix(addr)
		if !ok {
			fmt.Fprintf(w, "%s\t-\tunreachable\n", addr)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", addr, prefix, nexthop)
	}

	return w.Flush()
}
