package main

import (
	"strings"

	"github.com/spf13/cobra"

	"instapi/pkg/models"
	"instapi/pkg/ui"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List direct threads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := bind(cmd.Context())
		if err != nil {
			return err
		}
		threads, err := models.Directs(cmd.Context(), b, limitFrom(limit))
		for _, d := range threads {
			names := make([]string, 0, len(d.Users))
			for _, u := range d.Users {
				names = append(names, u.Username)
			}
			ui.Default().Row("%s\t%s\t%s", d.ThreadID, d.ThreadTitle, strings.Join(names, ","))
		}
		return err
	},
}

var sendCmd = &cobra.Command{
	Use:     "send <username> <text>",
	Short:   "Send a text message",
	Example: `  instapi send natgeo "nice shot"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, _, err := bind(ctx)
		if err != nil {
			return err
		}
		u, err := models.UserFromUsername(ctx, b, args[0])
		if err != nil {
			return err
		}
		d, err := models.DirectWithUser(ctx, b, u)
		if err != nil {
			return err
		}
		if _, err := d.SendText(ctx, args[1]); err != nil {
			return err
		}
		ui.PrintSuccess("Sent to " + u.Username)
		return nil
	},
}

func init() {
	inboxCmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many threads (0 for all)")
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(sendCmd)
}
