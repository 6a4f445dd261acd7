package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/ethnl/ethtool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func getCmd(g *globals) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "get [interface]",
		Short: "Print the link state of interfaces",
		Long: `Print the link state of one interface, or of every interface when
none is named.

Examples:
  ethlinkstate get
  ethlinkstate get eth0
  ethlinkstate get --index 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, h, err := g.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			r := h.LinkState().Get("")
			switch {
			case len(args) == 1:
				r = h.LinkState().Get(args[0])
			case index > 0:
				r = h.LinkState().GetByIndex(index)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), g.cfg.Timeout)
			defer cancel()

			return runGet(ctx, g.log, r, os.Stdout)
		},
	}

	cmd.Flags().IntVarP(&index, "index", "i", 0, "Query the interface with this index")

	return cmd
}

// runGet executes r and prints one line per interface.  Malformed replies
// are logged and skipped.
func runGet(ctx context.Context, log *zap.Logger, r ethtool.LinkStateRequest, w io.Writer) error {
	s, err := r.Execute(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tLINK\tSQI\tDOWN EVENTS\tREASON")

	for attrs, err := range s.All(ctx) {
		if err != nil {
			var derr *ethtool.DecodeError
			if !errors.As(err, &derr) {
				return err
			}

			log.Warn("skipping malformed reply", zap.Error(err))
			continue
		}

		ls := ethtool.ParseLinkState(attrs)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			ls.Interface.Index,
			ls.Interface.Name,
			linkString(ls.Link),
			sqiString(ls),
			optional(ls.ExtDownCount),
			reasonString(ls),
		)
	}

	return tw.Flush()
}

func linkString(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

func sqiString(ls ethtool.LinkState) string {
	switch {
	case ls.SQI == nil:
		return "-"
	case ls.SQIMax == nil:
		return strconv.FormatUint(uint64(*ls.SQI), 10)
	default:
		return fmt.Sprintf("%d/%d", *ls.SQI, *ls.SQIMax)
	}
}

func reasonString(ls ethtool.LinkState) string {
	switch {
	case ls.ExtState == nil:
		return "-"
	case ls.ExtSubstate == nil:
		return ls.ExtState.String()
	default:
		return fmt.Sprintf("%s (%d)", ls.ExtState, *ls.ExtSubstate)
	}
}

func optional(v *uint32) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*v), 10)
}
