package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/cms_admin/internal/admin/fieldmodal"
)

func newFieldCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Manage model fields",
	}
	cmd.AddCommand(newFieldCreateCmd(a))
	return cmd
}

type fieldFlags struct {
	name, identifier, typ, defaultValue, description string

	hide, media, unique, required, system, primaryKey bool
}

func newFieldCreateCmd(a *app) *cobra.Command {
	var f fieldFlags

	cmd := &cobra.Command{
		Use:   "create <model identifier>",
		Short: "Add a field to a model",
		Long: `Add a field to a model through the field dialog.

The identifier defaults to the lowerCamel form of --name. The model is
looked up before the field is created and printed again afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := a.client()
			modelID := args[0]

			m := fieldmodal.New(client)
			m.Delay = a.submitDelay
			m.Open(fieldmodal.Options{
				ModelIdentifier: modelID,
				Type:            f.typ,
				Reload: func() {
					model, err := client.GetModel(ctx, modelID)
					if err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), "reload:", err)
						return
					}
					_ = a.printJSON(model)
				},
			})
			defer func() {
				if m.Status() != fieldmodal.StatusClosed {
					m.Close()
				}
			}()

			edits := []struct{ key, value string }{
				{fieldmodal.KeyFieldName, f.name},
				{fieldmodal.KeyDefaultValue, f.defaultValue},
				{fieldmodal.KeyDescription, f.description},
			}
			if cmd.Flags().Changed("identifier") {
				edits = append(edits, struct{ key, value string }{fieldmodal.KeyIdentifier, f.identifier})
			}
			for _, e := range edits {
				if err := m.Change(e.key, e.value); err != nil {
					return err
				}
			}

			v, _ := m.View()
			flags := map[string]bool{
				fieldmodal.KeyIsHide:       f.hide,
				fieldmodal.KeyIsMedia:      f.media,
				fieldmodal.KeyIsUnique:     f.unique,
				fieldmodal.KeyIsRequired:   f.required,
				fieldmodal.KeyIsSystem:     f.system,
				fieldmodal.KeyIsPrimaryKey: f.primaryKey,
			}
			for key, want := range flags {
				if cur, _ := v[key].(bool); cur != want {
					if err := m.Toggle(key); err != nil {
						return err
					}
				}
			}

			err := m.Submit(ctx)
			var vErr *fieldmodal.ValidationError
			if errors.As(err, &vErr) {
				return fmt.Errorf("missing %v", vErr.Fields)
			}
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "field name")
	fl.StringVar(&f.identifier, "identifier", "", "field identifier")
	fl.StringVar(&f.typ, "type", "string", "field type")
	fl.StringVar(&f.defaultValue, "default", "", "default value")
	fl.StringVar(&f.description, "description", "", "field description")
	fl.BoolVar(&f.hide, "hide", false, "hide the field in listings")
	fl.BoolVar(&f.media, "media", false, "field holds media")
	fl.BoolVar(&f.unique, "unique", false, "values must be unique")
	fl.BoolVar(&f.required, "required", true, "a value is required")
	fl.BoolVar(&f.system, "system", false, "system field")
	fl.BoolVar(&f.primaryKey, "primary-key", false, "field is the primary key")
	return cmd
}
