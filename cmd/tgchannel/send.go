package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"tgchannel/internal/app"
	"tgchannel/internal/channel"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	var (
		to        string
		token     string
		parseMode string
		silent    bool
	)
	cmd := &cobra.Command{
		Use:   "send [flags] <text>",
		Short: "Send one message and print the Bot API response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(opts.cfgPath)
			if err != nil {
				return err
			}
			notice := channel.Notice{
				Text:      strings.Join(args, " "),
				ParseMode: parseMode,
				Token:     token,
				Silent:    silent,
			}
			return a.Run(cmd.Context(), func(ctx context.Context) error {
				res, err := a.Send(ctx, to, notice)
				if err != nil {
					return err
				}
				if res == nil {
					cmd.PrintErrln("nothing sent: no destination or empty message")
					return nil
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "chat id or @channel (default telegram.default_chat_id)")
	cmd.Flags().StringVar(&token, "token", "", "bot token for this message only")
	cmd.Flags().StringVar(&parseMode, "parse-mode", "", "markdown (default), markdownv2, html or plain")
	cmd.Flags().BoolVar(&silent, "silent", false, "send without notification sound")
	return cmd
}
