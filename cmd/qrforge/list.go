package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qrforge/qrforge/internal/qr"
	"github.com/qrforge/qrforge/internal/store"
	"github.com/qrforge/qrforge/internal/usecase"
)

// shortIDLength is the id prefix shown in tables; commands accept any
// unique prefix.
const shortIDLength = 8

func newListCmd() *cobra.Command {
	var (
		search   string
		typeFlag string
		sortFlag string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved QR codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := store.Query{Search: search}
			if typeFlag != "" {
				t, err := qr.ParseType(typeFlag)
				if err != nil {
					return err
				}
				query.Type = t
			}
			sortBy, ok := store.ParseSortBy(sortFlag)
			if !ok {
				return fmt.Errorf("invalid sort: %s (valid values: date, name, type)", sortFlag)
			}
			query.SortBy = sortBy

			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}

			ctx := context.Background()
			app, closeApp, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeApp()

			entries, err := app.Codes.List(ctx, query)
			if err != nil {
				return err
			}

			if format == "json" {
				return outputJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No QR codes saved yet")
				return nil
			}
			outputTable(cmd, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name or content (case-insensitive)")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Only list codes of this type")
	cmd.Flags().StringVar(&sortFlag, "sort", "date", "Sort order: date, name or type")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

type listOutputEntry struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	Type            string `json:"type"`
	Content         string `json:"content"`
	Payload         string `json:"payload"`
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
	Size            int    `json:"size"`
	ErrorCorrection string `json:"errorCorrection"`
	Created         string `json:"created"`
}

func outputJSON(cmd *cobra.Command, entries []usecase.ListEntry) error {
	output := make([]listOutputEntry, 0, len(entries))

	for _, entry := range entries {
		r := entry.Record
		output = append(output, listOutputEntry{
			ID:              r.ID,
			Name:            r.Name,
			Type:            string(r.Type),
			Content:         r.Content,
			Payload:         entry.Payload,
			Color:           r.Color,
			BackgroundColor: r.BackgroundColor,
			Size:            r.Size,
			ErrorCorrection: string(r.ErrorCorrection),
			Created:         r.CreatedAt().Format(time.RFC3339),
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// wrapString wraps a string to fit within maxWidth, accounting for multi-byte characters
func wrapString(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}

	s = strings.TrimSpace(s)
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	var result strings.Builder
	var currentLine strings.Builder
	currentWidth := 0

	for _, r := range s {
		charWidth := runewidth.RuneWidth(r)

		if currentWidth+charWidth > maxWidth && currentWidth > 0 {
			result.WriteString(currentLine.String())
			result.WriteString("\n")
			currentLine.Reset()
			currentWidth = 0
		}

		currentLine.WriteRune(r)
		currentWidth += charWidth
	}

	if currentLine.Len() > 0 {
		result.WriteString(currentLine.String())
	}

	return result.String()
}

// columnWidths holds the calculated widths for each column
type columnWidths struct {
	name         int
	created      int
	useShortDate bool
	payload      int
}

const (
	idColumnWidth   = shortIDLength
	typeColumnWidth = 5 // "vcard"
)

// calculateColumnWidths sizes the name column from the data and gives the
// rest of the terminal to the payload.
func calculateColumnWidths(termWidth int, entries []usecase.ListEntry) columnWidths {
	const numColumns = 5

	// table borders and padding, roughly 3 chars per column
	availableWidth := termWidth - numColumns*3

	maxNameWidth := 0
	for _, entry := range entries {
		if w := runewidth.StringWidth(entry.Record.DisplayName()); w > maxNameWidth {
			maxNameWidth = w
		}
	}
	nameWidth := max(maxNameWidth, 10)
	nameWidth = min(nameWidth, 40)

	createdWidth := 19 // "2006-01-02 15:04:05"
	useShortDate := false
	payloadWidth := availableWidth - idColumnWidth - typeColumnWidth - createdWidth - nameWidth

	if payloadWidth < 20 {
		createdWidth = 11 // "01-02 15:04"
		useShortDate = true
		payloadWidth = availableWidth - idColumnWidth - typeColumnWidth - createdWidth - nameWidth
	}
	if payloadWidth < 15 {
		payloadWidth = 15
	}

	return columnWidths{
		name:         nameWidth,
		created:      createdWidth,
		useShortDate: useShortDate,
		payload:      payloadWidth,
	}
}

func outputTable(cmd *cobra.Command, entries []usecase.ListEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	widths := calculateColumnWidths(getTerminalWidth(), entries)

	// Content is wrapped and truncated before it reaches the table;
	// go-pretty's WidthMax miscounts multi-byte characters.
	t.AppendHeader(table.Row{"ID", "Name", "Type", "Created", "Payload"})

	for _, entry := range entries {
		r := entry.Record

		var created string
		if widths.useShortDate {
			created = r.CreatedAt().Format("01-02 15:04")
		} else {
			created = r.CreatedAt().Format("2006-01-02 15:04:05")
		}

		// Payloads can span lines (vCard); show them on one.
		payload := strings.Join(strings.Fields(entry.Payload), " ")

		t.AppendRow(table.Row{
			shortID(r.ID),
			wrapString(r.DisplayName(), widths.name),
			string(r.Type),
			created,
			runewidth.Truncate(payload, widths.payload, "..."),
		})
	}

	t.Render()
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}
