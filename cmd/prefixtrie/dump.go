package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/yanet-platform/prefixtrie/common/go/xnetip"
	"github.com/yanet-platform/prefixtrie/filter"
)

func newDumpCmd() *cobra.Command {
	var pattern string

	c := &cobra.Command{
		Use:   "dump",
		Short: "Print the configured rules in address order",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			f, err := filter.NewFilter(cfg.Filter, filter.WithLog(log))
			if err != nil {
				return fmt.Errorf("failed to initialize filter: %w", err)
			}

			return runDump(c.OutOrStdout(), f, pattern)
		},
	}
	c.Flags().StringVarP(&pattern, "match", "m", "", "Only print prefixes matching the glob, e.g. '192.168.**'")

	return c
}

func runDump(out io.Writer, f *filter.Filter, pattern string) error {
	var g glob.Glob
	if pattern != "" {
		var err error
		g, err = glob.Compile(pattern, '.', '/')
		if err != nil {
			return fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
		}
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PREFIX\tFIRST\tLAST\tACTION")

	for _, rule := range f.Rules() {
		if g != nil && !g.Match(rule.Prefix.String()) {
			continue
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			rule.Prefix,
			rule.Prefix.Addr(),
			xnetip.LastAddr(rule.Prefix),
			rule.Action,
		)
	}

	return w.Flush()
}
