// Package qr defines the QR record model and turns structured user input into
// the literal payload strings that get encoded into a QR symbol.
package qr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidType is returned for a type tag outside the closed set.
	ErrInvalidType = errors.New("qr: invalid type")
	// ErrInvalidContent is returned when serialised content cannot be decoded.
	ErrInvalidContent = errors.New("qr: invalid content")
	// ErrInvalidStyle is returned when colour, size or error correction is out of range.
	ErrInvalidStyle = errors.New("qr: invalid style")
)

type Type string

const (
	TypeURL   Type = "url"
	TypeText  Type = "text"
	TypeEmail Type = "email"
	TypePhone Type = "phone"
	TypeSMS   Type = "sms"
	TypeWifi  Type = "wifi"
	TypeVCard Type = "vcard"
)

// Types lists every supported type in display order.
var Types = []Type{TypeURL, TypeText, TypeEmail, TypePhone, TypeSMS, TypeWifi, TypeVCard}

// ParseType validates a type tag.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q (valid values: url, text, email, phone, sms, wifi, vcard)", ErrInvalidType, s)
	}
	return t, nil
}

func (t Type) Valid() bool {
	switch t {
	case TypeURL, TypeText, TypeEmail, TypePhone, TypeSMS, TypeWifi, TypeVCard:
		return true
	}
	return false
}

// Structured reports whether content for t is a serialised record rather than raw text.
func (t Type) Structured() bool {
	switch t {
	case TypeEmail, TypeSMS, TypeWifi, TypeVCard:
		return true
	}
	return false
}

// Label is the human name of the type used for auto-generated record names.
func (t Type) Label() string {
	switch t {
	case TypeURL:
		return "URL"
	case TypeText:
		return "Text"
	case TypeEmail:
		return "Email"
	case TypePhone:
		return "Phone"
	case TypeSMS:
		return "SMS"
	case TypeWifi:
		return "WiFi"
	case TypeVCard:
		return "vCard"
	}
	return string(t)
}

// ErrorCorrection is the redundancy tier of the symbol, ascending L < M < Q < H.
type ErrorCorrection string

const (
	ErrorCorrectionL ErrorCorrection = "L"
	ErrorCorrectionM ErrorCorrection = "M"
	ErrorCorrectionQ ErrorCorrection = "Q"
	ErrorCorrectionH ErrorCorrection = "H"
)

func (e ErrorCorrection) Valid() bool {
	switch e {
	case ErrorCorrectionL, ErrorCorrectionM, ErrorCorrectionQ, ErrorCorrectionH:
		return true
	}
	return false
}

const (
	DefaultColor           = "#000000"
	DefaultBackgroundColor = "#ffffff"
	DefaultSize            = 200
	MinSize                = 100
	MaxSize                = 400
	DefaultErrorCorrection = ErrorCorrectionM

	// UnnamedLabel is shown for persisted records without a name.
	UnnamedLabel = "Unnamed QR Code"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Style groups the visual settings of a record.
type Style struct {
	Color           string          `json:"color" yaml:"color"`
	BackgroundColor string          `json:"backgroundColor" yaml:"backgroundColor"`
	Size            int             `json:"size" yaml:"size"`
	ErrorCorrection ErrorCorrection `json:"errorCorrection" yaml:"errorCorrection"`
}

// DefaultStyle returns black on white, 200px, level M.
func DefaultStyle() Style {
	return Style{
		Color:           DefaultColor,
		BackgroundColor: DefaultBackgroundColor,
		Size:            DefaultSize,
		ErrorCorrection: DefaultErrorCorrection,
	}
}

// WithDefaults fills zero-valued fields from base.
func (s Style) WithDefaults(base Style) Style {
	if s.Color == "" {
		s.Color = base.Color
	}
	if s.BackgroundColor == "" {
		s.BackgroundColor = base.BackgroundColor
	}
	if s.Size == 0 {
		s.Size = base.Size
	}
	if s.ErrorCorrection == "" {
		s.ErrorCorrection = base.ErrorCorrection
	}
	return s
}

func (s Style) Validate() error {
	if !hexColorPattern.MatchString(s.Color) {
		return fmt.Errorf("%w: color %q is not a hex colour", ErrInvalidStyle, s.Color)
	}
	if !hexColorPattern.MatchString(s.BackgroundColor) {
		return fmt.Errorf("%w: background colour %q is not a hex colour", ErrInvalidStyle, s.BackgroundColor)
	}
	if s.Size < MinSize || s.Size > MaxSize {
		return fmt.Errorf("%w: size %d outside [%d, %d]", ErrInvalidStyle, s.Size, MinSize, MaxSize)
	}
	if !s.ErrorCorrection.Valid() {
		return fmt.Errorf("%w: error correction %q (valid values: L, M, Q, H)", ErrInvalidStyle, s.ErrorCorrection)
	}
	return nil
}

// Record is the unit that is persisted and kept in the undo/redo history.
// Timestamp is milliseconds since the Unix epoch.
type Record struct {
	ID              string          `json:"id"`
	Type            Type            `json:"type"`
	Content         string          `json:"content"`
	Color           string          `json:"color"`
	BackgroundColor string          `json:"backgroundColor"`
	Size            int             `json:"size"`
	ErrorCorrection ErrorCorrection `json:"errorCorrection"`
	Timestamp       int64           `json:"timestamp"`
	Name            string          `json:"name,omitempty"`
}

// NewRecord returns an unnamed record of type t with the default style.
func NewRecord(id string, t Type, content string, now time.Time) Record {
	r := Record{
		ID:        id,
		Type:      t,
		Content:   content,
		Timestamp: now.UnixMilli(),
	}
	r.SetStyle(DefaultStyle())
	return r
}

func (r Record) Style() Style {
	return Style{
		Color:           r.Color,
		BackgroundColor: r.BackgroundColor,
		Size:            r.Size,
		ErrorCorrection: r.ErrorCorrection,
	}
}

func (r *Record) SetStyle(s Style) {
	r.Color = s.Color
	r.BackgroundColor = s.BackgroundColor
	r.Size = s.Size
	r.ErrorCorrection = s.ErrorCorrection
}

// CreatedAt converts Timestamp back into a time.
func (r Record) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// DisplayName returns the name or the unnamed fallback.
func (r Record) DisplayName() string {
	if strings.TrimSpace(r.Name) == "" {
		return UnnamedLabel
	}
	return r.Name
}

// AutoName builds the default name for a record saved without one.
func AutoName(t Type, at time.Time) string {
	return fmt.Sprintf("%s QR Code %s", t.Label(), at.Format("2006-01-02 15:04:05"))
}

// Validate checks the record is storable: known type, non-empty id and a valid style.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("qr: record id is empty")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}
	return r.Style().Validate()
}
