package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/qrforge/qrforge/internal/batch"
	"github.com/qrforge/qrforge/internal/filesystem"
	"github.com/qrforge/qrforge/internal/qr"
	"github.com/qrforge/qrforge/internal/render"
)

// ExportOptions controls where and how an image is written.
type ExportOptions struct {
	Format render.Format
	// Dir defaults to the configured exports directory.
	Dir string
	// Name overrides the file name (without extension).
	Name string
}

type ExportResult struct {
	Record qr.Record
	Format render.Format
	Path   string
	Hash   string
}

// Export renders the stored record identified by ref to a file. An unnamed
// record is written as qrcode-<id>.
func (c *Codes) Export(ctx context.Context, ref string, opts ExportOptions) (*ExportResult, error) {
	r, err := c.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Name) == "" && strings.TrimSpace(r.Name) == "" {
		opts.Name = "qrcode-" + r.ID
	}
	return c.ExportRecord(r, opts)
}

// ExportRecord renders r, which need not be stored, to a file. The file name
// is opts.Name, the record name, or qrcode-<unix millis>.
func (c *Codes) ExportRecord(r qr.Record, opts ExportOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = render.FormatPNG
	}

	data, err := c.renderer.Render(r, format)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = strings.TrimSpace(r.Name)
	}
	if name == "" {
		name = fmt.Sprintf("qrcode-%d", c.now().UnixMilli())
	}

	path, hash, err := filesystem.SaveExport(opts.Dir, name, format.Ext(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	ok, err := filesystem.VerifyFile(path, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify export: %w", err)
	}
	if !ok {
		_ = filesystem.DeleteFile(path)
		return nil, fmt.Errorf("export verification failed for %s", path)
	}

	return &ExportResult{Record: r, Format: format, Path: path, Hash: hash}, nil
}

// BatchOptions controls a batch run.
type BatchOptions struct {
	Format render.Format
	Dir    string
	// Save persists every generated record in addition to writing files.
	Save bool
}

type BatchItem struct {
	Entry  batch.Entry
	Export *ExportResult
}

// Batch renders every non-blank manifest item. With Save set, the records
// are also stored, after their files were written.
func (c *Codes) Batch(ctx context.Context, m *batch.Manifest, opts BatchOptions) ([]BatchItem, error) {
	entries, err := m.Build(c.defaults, c.now(), c.newID)
	if err != nil {
		return nil, err
	}

	items := make([]BatchItem, 0, len(entries))
	for _, e := range entries {
		res, err := c.ExportRecord(e.Record, ExportOptions{
			Format: opts.Format,
			Dir:    opts.Dir,
			Name:   e.FileName,
		})
		if err != nil {
			return items, fmt.Errorf("item %d (%s): %w", e.Index, e.FileName, err)
		}

		if opts.Save {
			record := e.Record
			if record.Name == "" {
				record.Name = e.FileName
			}
			if err := c.store.Save(ctx, record); err != nil {
				return items, fmt.Errorf("item %d (%s): %w", e.Index, e.FileName, err)
			}
			res.Record = record
			e.Record = record
		}

		items = append(items, BatchItem{Entry: e, Export: res})
	}
	return items, nil
}

// Terminal renders r as text for a console.
func (c *Codes) Terminal(r qr.Record) (string, error) {
	return c.renderer.Terminal(r, false)
}
