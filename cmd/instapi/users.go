package main

import (
	"context"
	"fmt"
	"iter"

	"github.com/spf13/cobra"

	"instapi/pkg/models"
	"instapi/pkg/paginate"
	"instapi/pkg/ui"
)

var limit int

var userCmd = &cobra.Command{
	Use:   "user <username>",
	Short: "Show a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runUser,
}

var followersCmd = &cobra.Command{
	Use:     "followers <username>",
	Short:   "List the accounts following a user",
	Example: `  instapi followers natgeo --limit 50`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listUsers(cmd, args[0], models.User.IterFollowers)
	},
}

var followingCmd = &cobra.Command{
	Use:   "following <username>",
	Short: "List the accounts a user follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listUsers(cmd, args[0], models.User.IterFollowings)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find accounts by username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := bind(cmd.Context())
		if err != nil {
			return err
		}
		users, err := models.MatchUsername(cmd.Context(), b, args[0], limitFrom(limit))
		printUsers(users)
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{followersCmd, followingCmd, searchCmd} {
		c.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many results (0 for all)")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(userCmd)
}

func runUser(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, _, err := bind(ctx)
	if err != nil {
		return err
	}
	u, err := models.UserFromUsername(ctx, b, args[0])
	if err != nil {
		return err
	}

	ui.PrintInfo("Username", u.Username)
	ui.PrintInfo("Full name", u.FullName)
	ui.PrintInfo("ID", fmt.Sprint(u.ID()))
	ui.PrintInfo("Private", fmt.Sprint(u.IsPrivate))
	ui.PrintInfo("Verified", fmt.Sprint(u.IsVerified))

	counts := []struct {
		label string
		get   func() (int64, error)
	}{
		{"Posts", func() (int64, error) { return u.MediaCount(ctx) }},
		{"Followers", func() (int64, error) { return u.FollowerCount(ctx) }},
		{"Following", func() (int64, error) { return u.FollowingCount(ctx) }},
	}
	for _, c := range counts {
		n, err := c.get()
		if err != nil {
			return err
		}
		ui.PrintInfo(c.label, fmt.Sprint(n))
	}
	if bio, err := u.Biography(ctx); err == nil && bio != "" {
		ui.PrintInfo("Biography", bio)
	}
	return nil
}

func listUsers(cmd *cobra.Command, name string, list func(models.User, context.Context) iter.Seq2[models.User, error]) error {
	ctx := cmd.Context()
	b, _, err := bind(ctx)
	if err != nil {
		return err
	}
	u, err := models.UserFromUsername(ctx, b, name)
	if err != nil {
		return err
	}
	users, err := paginate.Collect(list(u, ctx), limitFrom(limit))
	printUsers(users)
	return err
}

func printUsers(users []models.User) {
	for _, u := range users {
		ui.Default().Row("%d\t%s\t%s", u.ID(), u.Username, u.FullName)
	}
}
