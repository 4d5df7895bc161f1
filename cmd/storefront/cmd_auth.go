package main

import (
	"errors"
	"fmt"

	"github.com/fjod/go_storefront/internal/api"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			identity, err := a.gate.Login(ctx, email, password)
			if err != nil {
				if errors.Is(err, api.ErrUnauthenticated) {
					return fmt.Errorf("invalid email or password")
				}
				return err
			}
			fmt.Printf("Logged in as %s\n", identity.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			a.gate.Logout()
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			identity, ok := a.gate.Current()
			if !ok {
				fmt.Println("Not logged in")
				return nil
			}
			fmt.Printf("%s <%s>\n", identity.DisplayName(), identity.Email)
			return nil
		},
	}
}
