// Package batch reads YAML manifests describing many QR codes to generate
// in one run.
package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qrforge/qrforge/internal/qr"
)

// ErrNoValidItems is returned when every item in a manifest is blank.
var ErrNoValidItems = errors.New("batch: no valid items")

// Manifest is the top-level YAML document.
//
//	defaults:
//	  color: "#000000"
//	  size: 300
//	items:
//	  - name: homepage
//	    content: example.com
//	  - type: wifi
//	    wifi: {ssid: Office, password: secret}
type Manifest struct {
	Defaults qr.Style `yaml:"defaults"`
	Items    []Item   `yaml:"items"`
}

// Item describes one code. Scalar types use Content; structured types use
// the matching typed block or a serialised Content.
type Item struct {
	Name    string           `yaml:"name"`
	Type    string           `yaml:"type"`
	Content string           `yaml:"content"`
	Style   qr.Style         `yaml:"style"`
	Wifi    *qr.WifiContent  `yaml:"wifi"`
	VCard   *qr.VCardContent `yaml:"vcard"`
	Email   *qr.EmailContent `yaml:"email"`
	SMS     *qr.SMSContent   `yaml:"sms"`
}

// Entry is a manifest item ready for rendering.
type Entry struct {
	// Index is 1-based among the non-blank items.
	Index int
	// FileName is the item name or qrcode-batch-<Index>.
	FileName string
	Record   qr.Record
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	//nolint:gosec // G304: manifest path is supplied by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f)
}

// Parse decodes a manifest, rejecting unknown keys.
func Parse(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoValidItems
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Build resolves every non-blank item into a record. Style precedence is
// item style, then manifest defaults, then base.
func (m *Manifest) Build(base qr.Style, now time.Time, newID func() string) ([]Entry, error) {
	defaults := m.Defaults.WithDefaults(base)

	entries := make([]Entry, 0, len(m.Items))
	for i, item := range m.Items {
		t, content, err := item.resolve()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if qr.BlankContent(t, content) {
			continue
		}
		if err := qr.ValidateContent(t, content); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}

		record := qr.NewRecord(newID(), t, content, now)
		record.Name = strings.TrimSpace(item.Name)
		record.SetStyle(item.Style.WithDefaults(defaults))
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}

		index := len(entries) + 1
		fileName := record.Name
		if fileName == "" {
			fileName = fmt.Sprintf("qrcode-batch-%d", index)
		}

		entries = append(entries, Entry{
			Index:    index,
			FileName: fileName,
			Record:   record,
		})
	}

	if len(entries) == 0 {
		return nil, ErrNoValidItems
	}
	return entries, nil
}

func (it Item) resolve() (qr.Type, string, error) {
	var block qr.Content
	blocks := 0
	if it.Wifi != nil {
		block, blocks = *it.Wifi, blocks+1
	}
	if it.VCard != nil {
		block, blocks = *it.VCard, blocks+1
	}
	if it.Email != nil {
		block, blocks = *it.Email, blocks+1
	}
	if it.SMS != nil {
		block, blocks = *it.SMS, blocks+1
	}
	if blocks > 1 {
		return "", "", fmt.Errorf("%w: only one of wifi, vcard, email or sms may be set", qr.ErrInvalidContent)
	}

	var t qr.Type
	switch {
	case it.Type != "":
		parsed, err := qr.ParseType(it.Type)
		if err != nil {
			return "", "", err
		}
		t = parsed
	case block != nil:
		t = block.Type()
	default:
		t = qr.TypeURL
	}

	if block == nil {
		return t, it.Content, nil
	}
	if block.Type() != t {
		return "", "", fmt.Errorf("%w: %s block given for type %s", qr.ErrInvalidContent, block.Type(), t)
	}
	if it.Content != "" {
		return "", "", fmt.Errorf("%w: content and %s block are mutually exclusive", qr.ErrInvalidContent, t)
	}

	content, err := qr.EncodeContent(block)
	if err != nil {
		return "", "", err
	}
	return t, content, nil
}
