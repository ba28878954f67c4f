package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qrforge/qrforge/internal/render"
	"github.com/qrforge/qrforge/internal/usecase"
)

func newExportCmd() *cobra.Command {
	var (
		format  string
		outDir  string
		name    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a saved QR code to a PNG, JPEG or SVG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := context.Background()
			app, closeApp, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp()

			result, err := app.Codes.Export(ctx, args[0], usecase.ExportOptions{
				Format: f,
				Dir:    outDir,
				Name:   name,
			})
			if err != nil {
				return err
			}

			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", result.Path, result.Hash)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "png", "Image format: png, jpeg or svg")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: exports directory in the data dir)")
	cmd.Flags().StringVar(&name, "name", "", "File name without extension (default: the record name)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print the SHA-256 of the written file")

	return cmd
}
