package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"instapi/pkg/config"
	"instapi/pkg/instagram"
	"instapi/pkg/instapi"
	"instapi/pkg/logger"
	"instapi/pkg/models"
	"instapi/pkg/session"
	"instapi/pkg/ui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and cache the session",
	Long: `Log in with the configured username and password and cache the session.

The password is read from INSTAPI_PASSWORD or prompted for on the terminal.
A still valid cached session is reused without contacting the login endpoint.`,
	Example: `  instapi login -u myaccount
  INSTAPI_PASSWORD=... instapi login -u myaccount --session-backend keyring`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the cached session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	b, client, err := bind(cmd.Context())
	if err != nil {
		return err
	}
	me, err := models.Self(cmd.Context(), b)
	if err != nil {
		return err
	}
	ui.PrintSuccess("Logged in")
	ui.PrintInfo("Account", me.Username)
	ui.PrintInfo("User ID", fmt.Sprint(client.UserID()))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := fillCredentials(cfg); err != nil {
		return err
	}
	store, err := session.FromConfig(cfg.Session)
	if err != nil {
		return err
	}
	creds := session.Credentials{Username: cfg.Instagram.Username, Password: cfg.Instagram.Password}
	if err := store.Delete(creds); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	ui.PrintSuccess("Session removed for " + creds.Username)
	return nil
}

// bind authenticates the configured account, prompting for whatever
// credentials are missing.
func bind(ctx context.Context) (models.Binding, *instagram.Client, error) {
	if err := fillCredentials(cfg); err != nil {
		return models.Unbound(), nil, err
	}
	logger.GetLogger().WithField("username", cfg.Instagram.Username).Debug("binding session")
	return instapi.Bind(ctx, cfg, instapi.WithLogger(logger.GetLogger()))
}

func fillCredentials(c *config.Config) error {
	fd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(fd)

	if c.Instagram.Username == "" {
		if !interactive {
			return instapi.ErrMissingCredentials
		}
		fmt.Fprint(os.Stderr, "Instagram username: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		c.Instagram.Username = strings.TrimSpace(line)
	}
	if c.Instagram.Password == "" {
		if !interactive {
			return instapi.ErrMissingCredentials
		}
		fmt.Fprintf(os.Stderr, "Password for %s: ", c.Instagram.Username)
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		c.Instagram.Password = string(pw)
	}
	if c.Instagram.Username == "" || c.Instagram.Password == "" {
		return instapi.ErrMissingCredentials
	}
	return nil
}
