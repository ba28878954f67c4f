package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/qrforge/qrforge/internal/application"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "qrforge",
		Short:        "qrforge - Generate, style and keep QR codes locally",
		Long:         "qrforge formats URLs, WiFi credentials, contact cards, email and SMS into QR payloads, renders them to PNG, JPEG or SVG and keeps a local history.",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.AddCommand(newFormatCmd())
	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newDraftCmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

func openApp(ctx context.Context) (*application.App, func(), error) {
	app, err := application.OpenDefault(ctx)
	if err != nil {
		return nil, nil, err
	}
	return app, func() { _ = app.Close() }, nil
}
