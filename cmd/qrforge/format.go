package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qrforge/qrforge/internal/qr"
)

func newFormatCmd() *cobra.Command {
	var content contentFlags

	cmd := &cobra.Command{
		Use:   "format",
		Short: "Print the payload a QR code would encode",
		Example: `  qrforge format --type url --content example.com
  qrforge format --type wifi --ssid Home --password secret
  qrforge format --type sms --number +15551234 --message hi`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, raw, err := content.resolve(cmd)
			if err != nil {
				return err
			}

			res := qr.NewFormatter(nil).Format(t, raw)
			if res.Degraded() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; using raw content\n", res.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Payload)
			return nil
		},
	}

	content.register(cmd)

	return cmd
}
