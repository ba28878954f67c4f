package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeApp, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp()

			record, err := app.Codes.Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			// Confirmation prompt
			if !force {
				reader := bufio.NewReader(cmd.InOrStdin())
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete '%s' (%s)? (y/N) ", record.DisplayName(), shortID(record.ID))
				answer, err := reader.ReadString('\n')
				if err != nil && answer == "" {
					return err
				}

				answer = strings.TrimSpace(strings.ToLower(answer))
				if answer != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			removed, err := app.Codes.DeleteByID(ctx, record.ID)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("QR code '%s' not found", record.ID)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted '%s'\n", record.DisplayName())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
