package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tgchannel/internal/app"
)

func newFailuresCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "List recently recorded failed dispatches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(opts.cfgPath)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context(), func(ctx context.Context) error {
				if a.Store() == nil {
					return errors.New("storage is disabled (set storage.driver)")
				}
				recs, err := a.Store().RecentFailures(ctx, limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "AT\tCHAT\tMETHOD\tERROR")
				for _, r := range recs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.At.Local().Format("2006-01-02 15:04:05"), r.ChatID, r.Method, r.Error)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum records to show")
	return cmd
}
