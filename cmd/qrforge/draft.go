package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qrforge/qrforge/internal/application"
	"github.com/qrforge/qrforge/internal/qr"
	"github.com/qrforge/qrforge/internal/render"
	"github.com/qrforge/qrforge/internal/session"
	"github.com/qrforge/qrforge/internal/usecase"
)

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Work on a QR code step by step with undo and redo",
		Long: `The draft is a single editing session kept between runs.

Edit it with "draft edit", commit it with "draft generate" (each generate is
one undo step), move through history with "draft undo" and "draft redo" and
store the result with "draft save".`,
	}

	cmd.AddCommand(newDraftShowCmd())
	cmd.AddCommand(newDraftEditCmd())
	cmd.AddCommand(newDraftGenerateCmd())
	cmd.AddCommand(newDraftUndoCmd())
	cmd.AddCommand(newDraftRedoCmd())
	cmd.AddCommand(newDraftSaveCmd())
	cmd.AddCommand(newDraftExportCmd())
	cmd.AddCommand(newDraftResetCmd())

	return cmd
}

// contentFlagNames are the flags that replace the draft content.
var contentFlagNames = []string{
	"content", "file",
	"ssid", "password", "encryption", "wifi-payload",
	"first-name", "last-name", "org", "job-title", "contact-email", "contact-phone", "website", "address",
	"to", "subject", "body",
	"number", "message",
}

func newDraftEditCmd() *cobra.Command {
	var (
		content contentFlags
		style   styleFlags
		name    string
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change type, content, name or style of the draft",
		Long: `Change the draft. Only the given flags are applied: fields of a wifi, vcard,
email or sms draft that are not given keep their value. A new --type clears
the content unless content flags are given too.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDraft(func(ctx context.Context, app *application.App, s *session.Session) error {
				if cmd.Flags().Changed("type") {
					t, err := qr.ParseType(content.typ)
					if err != nil {
						return err
					}
					if t != s.Current().Type {
						if err := s.SetType(t); err != nil {
							return err
						}
					}
				} else {
					content.typ = string(s.Current().Type)
				}

				if anyChanged(cmd, contentFlagNames) {
					_, raw, err := content.resolveOver(cmd, s.Current().Content)
					if err != nil {
						return err
					}
					s.SetContent(raw)
				}

				if cmd.Flags().Changed("name") {
					s.SetName(name)
				}

				if style.changed(cmd) {
					if err := s.SetStyle(style.style()); err != nil {
						return err
					}
				}

				return printDraft(cmd, app, s, false)
			})
		},
	}

	content.register(cmd)
	style.register(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "Label for the draft")

	return cmd
}

func newDraftGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Commit the draft and print its payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDraft(func(_ context.Context, _ *application.App, s *session.Session) error {
				res, err := s.Generate()
				if err != nil {
					if errors.Is(err, session.ErrEmptyContent) {
						return errors.New("nothing to generate: the draft content is empty")
					}
					return err
				}
				if res.Degraded() {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; using raw content\n", res.Err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Payload)
				return nil
			})
		},
	}
}

func newDraftUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the previously generated draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDraft(func(_ context.Context, app *application.App, s *session.Session) error {
				if _, ok := s.Undo(); !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo")
					return nil
				}
				return printDraft(cmd, app, s, false)
			})
		},
	}
}

func newDraftRedoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Re-apply the draft that was undone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDraft(func(_ context.Context, app *application.App, s *session.Session) error {
				if _, ok := s.Redo(); !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to redo")
					return nil
				}
				return printDraft(cmd, app, s, false)
			})
		},
	}
}

func newDraftSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the draft to the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDraft(func(ctx context.Context, _ *application.App, s *session.Session) error {
				record, err := s.Save(ctx)
				if err != nil {
					if errors.Is(err, session.ErrEmptyContent) {
						return errors.New("nothing to save: the draft content is empty")
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), record.ID)
				return nil
			})
		},
	}
}

func newDraftExportCmd() *cobra.Command {
	var (
		format string
		outDir string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the draft to an image file without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			s, err := app.Drafts.Load(ctx)
			if err != nil {
				return err
			}
			r := s.Current()
			if qr.BlankContent(r.Type, r.Content) {
				return errors.New("nothing to export: the draft content is empty")
			}

			result, err := app.Codes.ExportRecord(r, usecase.ExportOptions{
				Format: f,
				Dir:    outDir,
				Name:   name,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "png", "Image format: png, jpeg or svg")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: exports directory in the data dir)")
	cmd.Flags().StringVar(&name, "name", "", "File name without extension (default: the draft name or qrcode-<timestamp>)")

	return cmd
}

func newDraftShowCmd() *cobra.Command {
	var (
		format string
		showQR bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}

			ctx := context.Background()
			app, closeApp, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp()

			s, err := app.Drafts.Load(ctx)
			if err != nil {
				return err
			}

			if format == "json" {
				return outputDraftJSON(cmd, s)
			}
			return printDraft(cmd, app, s, showQR)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().BoolVar(&showQR, "qr", false, "Also draw the QR code in the terminal")

	return cmd
}

func newDraftResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the draft and its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, closeApp, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := app.Drafts.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Draft discarded")
			return nil
		},
	}
}

// runDraft loads the draft, applies fn and stores the draft again.
func runDraft(fn func(context.Context, *application.App, *session.Session) error) error {
	ctx := context.Background()
	app, closeApp, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp()

	_, err = app.Drafts.Update(ctx, func(s *session.Session) error {
		return fn(ctx, app, s)
	})
	return err
}

func anyChanged(cmd *cobra.Command, names []string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

type draftOutput struct {
	State   string          `json:"state"`
	Record  listOutputEntry `json:"record"`
	CanUndo bool            `json:"canUndo"`
	CanRedo bool            `json:"canRedo"`
	Notice  string          `json:"notice,omitempty"`
}

func outputDraftJSON(cmd *cobra.Command, s *session.Session) error {
	r := s.Current()
	output := draftOutput{
		State: string(s.State()),
		Record: listOutputEntry{
			ID:              r.ID,
			Name:            r.Name,
			Type:            string(r.Type),
			Content:         r.Content,
			Payload:         s.Payload().Payload,
			Color:           r.Color,
			BackgroundColor: r.BackgroundColor,
			Size:            r.Size,
			ErrorCorrection: string(r.ErrorCorrection),
			Created:         r.CreatedAt().Format(time.RFC3339),
		},
		CanUndo: s.CanUndo(),
		CanRedo: s.CanRedo(),
		Notice:  s.Notice(),
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func printDraft(cmd *cobra.Command, app *application.App, s *session.Session, showQR bool) error {
	r := s.Current()
	out := cmd.OutOrStdout()

	name := r.Name
	if name == "" {
		name = "(auto)"
	}

	fmt.Fprintf(out, "State:            %s\n", s.State())
	fmt.Fprintf(out, "Type:             %s\n", r.Type.Label())
	fmt.Fprintf(out, "Name:             %s\n", name)
	fmt.Fprintf(out, "Content:          %s\n", r.Content)
	fmt.Fprintf(out, "Payload:          %s\n", s.Payload().Payload)
	fmt.Fprintf(out, "Style:            %s on %s, %dpx, EC %s\n", r.Color, r.BackgroundColor, r.Size, r.ErrorCorrection)
	fmt.Fprintf(out, "Undo / Redo:      %t / %t\n", s.CanUndo(), s.CanRedo())
	if notice := s.Notice(); notice != "" {
		fmt.Fprintf(out, "Notice:           %s\n", notice)
	}

	if showQR && !qr.BlankContent(r.Type, r.Content) {
		art, err := app.Codes.Terminal(r)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, art)
	}
	return nil
}
