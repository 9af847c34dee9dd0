package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/cms_admin/internal/gqlclient"
)

func newModelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect and create content models",
	}
	cmd.AddCommand(newModelGetCmd(a), newModelCreateCmd(a))
	return cmd
}

func newModelGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <identifier>",
		Short: "Print a model with its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.client().GetModel(cmd.Context(), args[0])
			if errors.Is(err, gqlclient.ErrNotFound) {
				return fmt.Errorf("model %s not found", args[0])
			}
			if err != nil {
				return err
			}
			return a.printJSON(m)
		},
	}
}

func newModelCreateCmd(a *app) *cobra.Command {
	var identifier, description string

	cmd := &cobra.Command{
		Use:   "create <model name>",
		Short: "Create a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.client().CreateModel(cmd.Context(), args[0], identifier, description)
			if err != nil {
				return err
			}
			return a.printJSON(m)
		},
	}
	cmd.Flags().StringVar(&identifier, "identifier", "", "model identifier, derived from the name when empty")
	cmd.Flags().StringVar(&description, "description", "", "model description")
	return cmd
}
