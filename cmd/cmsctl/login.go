package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				var err error
				if email, err = a.prompt("Email: "); err != nil {
					return err
				}
			}
			pw, err := a.password()
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if email == "" || pw == "" {
				return errors.New("email and password are required")
			}

			tok, err := a.client().Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			if err := a.saveToken(tok); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged in as", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}
