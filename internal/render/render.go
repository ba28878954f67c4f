// Package render turns formatted QR payloads into images using the
// go-qrcode encoder.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"image/jpeg"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/qrforge/qrforge/internal/qr"
)

// ErrEmptyPayload is returned when a record formats to an empty payload.
var ErrEmptyPayload = errors.New("render: nothing to encode")

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatSVG  Format = "svg"
)

// JPEGQuality is the encoder quality used for JPEG exports.
const JPEGQuality = 92

// ParseFormat accepts png, jpeg (or jpg) and svg in any case; empty selects
// PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatJPEG, "jpg":
		return FormatJPEG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (valid values: png, jpeg, svg)", s)
	}
}

// Ext is the file extension including the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Renderer encodes records at their configured size, colours and error
// correction level.
type Renderer struct {
	formatter *qr.Formatter
}

// New returns a renderer that formats payloads with f. A nil formatter uses
// one that discards diagnostics.
func New(f *qr.Formatter) *Renderer {
	if f == nil {
		f = qr.NewFormatter(nil)
	}
	return &Renderer{formatter: f}
}

// Render produces the image bytes for r in the requested format.
func (r *Renderer) Render(rec qr.Record, format Format) ([]byte, error) {
	switch format {
	case FormatPNG:
		return r.PNG(rec)
	case FormatJPEG:
		return r.JPEG(rec)
	case FormatSVG:
		return r.SVG(rec)
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
}

// PNG encodes the record as a square PNG of rec.Size pixels.
func (r *Renderer) PNG(rec qr.Record) ([]byte, error) {
	code, err := r.encode(rec)
	if err != nil {
		return nil, err
	}
	data, err := code.PNG(rec.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return data, nil
}

// JPEG encodes the record as a square JPEG of rec.Size pixels.
func (r *Renderer) JPEG(rec qr.Record) ([]byte, error) {
	code, err := r.encode(rec)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, code.Image(rec.Size), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// SVG wraps the PNG rendering in an SVG document as a base64 data URI.
func (r *Renderer) SVG(rec qr.Record) ([]byte, error) {
	png, err := r.PNG(rec)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">
<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="%[1]d" viewBox="0 0 %[1]d %[1]d">
  <image x="0" y="0" width="%[1]d" height="%[1]d" href="data:image/png;base64,%[2]s"/>
</svg>
`, rec.Size, base64.StdEncoding.EncodeToString(png))
	return buf.Bytes(), nil
}

// Terminal renders the symbol with half-block characters for a text console.
func (r *Renderer) Terminal(rec qr.Record, inverse bool) (string, error) {
	code, err := r.encode(rec)
	if err != nil {
		return "", err
	}
	return code.ToSmallString(inverse), nil
}

func (r *Renderer) encode(rec qr.Record) (*qrcode.QRCode, error) {
	if err := rec.Style().Validate(); err != nil {
		return nil, err
	}

	payload := r.formatter.FormatRecord(rec).Payload
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	fg, err := ParseHexColor(rec.Color)
	if err != nil {
		return nil, err
	}
	bg, err := ParseHexColor(rec.BackgroundColor)
	if err != nil {
		return nil, err
	}

	code, err := qrcode.New(payload, RecoveryLevel(rec.ErrorCorrection))
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr symbol: %w", err)
	}
	code.ForegroundColor = fg
	code.BackgroundColor = bg
	return code, nil
}

// RecoveryLevel maps L/M/Q/H onto the encoder's recovery levels.
func RecoveryLevel(ec qr.ErrorCorrection) qrcode.RecoveryLevel {
	switch ec {
	case qr.ErrorCorrectionL:
		return qrcode.Low
	case qr.ErrorCorrectionQ:
		return qrcode.High
	case qr.ErrorCorrectionH:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// ParseHexColor parses #rgb or #rrggbb into an opaque colour.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 || !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("%w: invalid colour %q", qr.ErrInvalidStyle, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: invalid colour %q", qr.ErrInvalidStyle, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
