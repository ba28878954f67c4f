package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qrforge/qrforge/internal/usecase"
)

func newSaveCmd() *cobra.Command {
	var (
		content contentFlags
		style   styleFlags
		name    string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a QR code to the local history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, raw, err := content.resolve(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			app, closeApp, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp()

			record, err := app.Codes.Create(ctx, usecase.CreateInput{
				Type:    t,
				Content: raw,
				Name:    name,
				Style:   style.style(),
			})
			if err != nil {
				return fmt.Errorf("failed to save QR code: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), record.ID)
			return nil
		},
	}

	content.register(cmd)
	style.register(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "Label for the saved code (generated when empty)")

	return cmd
}
