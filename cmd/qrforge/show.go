package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qrforge/qrforge/internal/usecase"
)

func newShowCmd() *cobra.Command {
	var (
		format string
		showQR bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved QR code",
		Long:  "Show metadata and payload of a saved QR code. The id may be any unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}

			ctx := context.Background()
			app, closeApp, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp()

			result, err := app.Codes.Show(ctx, args[0])
			if err != nil {
				return err
			}

			if format == "json" {
				return outputShowJSON(cmd, result)
			}
			outputShowTable(cmd, result)

			if showQR {
				art, err := app.Codes.Terminal(result.Record)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprint(cmd.OutOrStdout(), art)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().BoolVar(&showQR, "qr", false, "Also draw the QR code in the terminal")

	return cmd
}

type showOutputEntry struct {
	listOutputEntry
	Degraded string `json:"degraded,omitempty"`
}

func outputShowJSON(cmd *cobra.Command, result *usecase.ShowResult) error {
	r := result.Record
	output := showOutputEntry{
		listOutputEntry: listOutputEntry{
			ID:              r.ID,
			Name:            r.Name,
			Type:            string(r.Type),
			Content:         r.Content,
			Payload:         result.Payload,
			Color:           r.Color,
			BackgroundColor: r.BackgroundColor,
			Size:            r.Size,
			ErrorCorrection: string(r.ErrorCorrection),
			Created:         r.CreatedAt().Format(time.RFC3339),
		},
	}
	if result.Degraded != nil {
		output.Degraded = result.Degraded.Error()
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputShowTable(cmd *cobra.Command, result *usecase.ShowResult) {
	r := result.Record
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "ID:               %s\n", r.ID)
	fmt.Fprintf(out, "Name:             %s\n", r.DisplayName())
	fmt.Fprintf(out, "Type:             %s\n", r.Type.Label())
	fmt.Fprintf(out, "Content:          %s\n", r.Content)
	fmt.Fprintf(out, "Payload:          %s\n", result.Payload)
	if result.Degraded != nil {
		fmt.Fprintf(out, "Warning:          %v\n", result.Degraded)
	}
	fmt.Fprintf(out, "Color:            %s\n", r.Color)
	fmt.Fprintf(out, "Background:       %s\n", r.BackgroundColor)
	fmt.Fprintf(out, "Size:             %d\n", r.Size)
	fmt.Fprintf(out, "Error Correction: %s\n", r.ErrorCorrection)
	fmt.Fprintf(out, "Created At:       %s\n", r.CreatedAt().Format("2006-01-02 15:04:05"))
}
