package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qrforge/qrforge/internal/batch"
	"github.com/qrforge/qrforge/internal/render"
	"github.com/qrforge/qrforge/internal/usecase"
)

func newBatchCmd() *cobra.Command {
	var (
		format string
		outDir string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Generate QR code images from a YAML manifest",
		Long: `Generate one image per manifest item. Use "-" to read the manifest from stdin.

Manifest format:

  defaults:
    color: "#000000"
    size: 300
  items:
    - name: Homepage
      type: url
      content: example.com
    - type: wifi
      wifi: {ssid: Office, password: secret, encryption: WPA}

Items with blank content are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			var manifest *batch.Manifest
			if args[0] == "-" {
				manifest, err = batch.Parse(cmd.InOrStdin())
			} else {
				manifest, err = batch.Load(args[0])
			}
			if err != nil {
				return err
			}

			ctx := context.Background()
			app, closeApp, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp()

			items, err := app.Codes.Batch(ctx, manifest, usecase.BatchOptions{
				Format: f,
				Dir:    outDir,
				Save:   save,
			})
			for _, item := range items {
				if save {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", item.Export.Path, shortID(item.Entry.Record.ID))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), item.Export.Path)
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Generated %d QR code(s)\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "png", "Image format: png, jpeg or svg")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: exports directory in the data dir)")
	cmd.Flags().BoolVar(&save, "save", false, "Also save every generated code to the history")

	return cmd
}
