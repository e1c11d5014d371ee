package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/vrautomations/cryptotrack/internal/dashboard"
	"github.com/vrautomations/cryptotrack/internal/models"
)

func newSignupCmd(c *cli) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.client.Signup(cmd.Context(), name, email, password)
			if err != nil {
				return fmt.Errorf("signup failed: %w", err)
			}
			return c.saveSession(cmd, res)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			return c.saveSession(cmd, res)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) saveSession(cmd *cobra.Command, res *models.AuthResult) error {
	store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := dashboard.SaveToken(store, res.Token); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", res.User.Name, res.User.Email)
	return nil
}

func newMeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			token, err := dashboard.LoadToken(store)
			if err != nil {
				return err
			}
			if token == "" {
				return errors.New("not signed in, run 'cryptotrack login' first")
			}

			p, err := c.client.Me(cmd.Context(), token)
			if err != nil {
				var apiErr *dashboard.APIError
				if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
					// expired or foreign token
					dashboard.ClearToken(store)
					return errors.New("session expired, run 'cryptotrack login' again")
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", p.ID)
			fmt.Fprintf(out, "Name:    %s\n", p.Name)
			fmt.Fprintf(out, "Email:   %s\n", p.Email)
			fmt.Fprintf(out, "Joined:  %s\n", dashboard.FormatTimestamp(p.CreatedAt))
			return nil
		},
	}
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := dashboard.ClearToken(store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
