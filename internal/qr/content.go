package qr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Content is the typed value behind a record's content string. Scalar types
// (url, text, phone) serialise to their literal text, structured types to a
// canonical JSON object.
type Content interface {
	Type() Type
}

type URLContent struct {
	URL string
}

type TextContent struct {
	Text string
}

type PhoneContent struct {
	Number string
}

// Encryption is the WIFI authentication type.
type Encryption string

const (
	EncryptionWPA    Encryption = "WPA"
	EncryptionWEP    Encryption = "WEP"
	EncryptionNoPass Encryption = "nopass"
)

// ParseEncryption accepts WPA, WEP or nopass in any case. Empty means WPA.
func ParseEncryption(s string) (Encryption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wpa":
		return EncryptionWPA, nil
	case "wep":
		return EncryptionWEP, nil
	case "nopass":
		return EncryptionNoPass, nil
	}
	return "", fmt.Errorf("%w: encryption %q (valid values: WPA, WEP, nopass)", ErrInvalidContent, s)
}

type WifiContent struct {
	SSID       string     `json:"ssid" yaml:"ssid"`
	Password   string     `json:"password" yaml:"password"`
	Encryption Encryption `json:"encryption" yaml:"encryption"`
}

type VCardContent struct {
	FirstName    string `json:"firstName" yaml:"firstName"`
	LastName     string `json:"lastName" yaml:"lastName"`
	Organization string `json:"organization,omitempty" yaml:"organization"`
	Title        string `json:"title,omitempty" yaml:"title"`
	Email        string `json:"email,omitempty" yaml:"email"`
	Phone        string `json:"phone,omitempty" yaml:"phone"`
	Website      string `json:"website,omitempty" yaml:"website"`
	Address      string `json:"address,omitempty" yaml:"address"`
}

type EmailContent struct {
	Address string `json:"address" yaml:"address"`
	Subject string `json:"subject,omitempty" yaml:"subject"`
	Body    string `json:"body,omitempty" yaml:"body"`
}

type SMSContent struct {
	Number  string `json:"number" yaml:"number"`
	Message string `json:"message,omitempty" yaml:"message"`
}

func (URLContent) Type() Type   { return TypeURL }
func (TextContent) Type() Type  { return TypeText }
func (PhoneContent) Type() Type { return TypePhone }
func (WifiContent) Type() Type  { return TypeWifi }
func (VCardContent) Type() Type { return TypeVCard }
func (EmailContent) Type() Type { return TypeEmail }
func (SMSContent) Type() Type   { return TypeSMS }

// Validate requires both name parts.
func (v VCardContent) Validate() error {
	if strings.TrimSpace(v.FirstName) == "" || strings.TrimSpace(v.LastName) == "" {
		return fmt.Errorf("%w: vcard requires first and last name", ErrInvalidContent)
	}
	return nil
}

// ValidateContent checks the fields a type requires before the content is
// generated or stored. Content that does not decode is left to the
// formatter's raw fallback and is not rejected here.
func ValidateContent(t Type, content string) error {
	if t != TypeVCard {
		return nil
	}
	c, err := DecodeContent(t, content)
	if err != nil {
		return nil
	}
	return c.(VCardContent).Validate()
}

// EncodeContent serialises c into the string stored in Record.Content.
func EncodeContent(c Content) (string, error) {
	switch v := c.(type) {
	case URLContent:
		return v.URL, nil
	case TextContent:
		return v.Text, nil
	case PhoneContent:
		return v.Number, nil
	case WifiContent:
		enc, err := ParseEncryption(string(v.Encryption))
		if err != nil {
			return "", err
		}
		v.Encryption = enc
		return marshalContent(v)
	case VCardContent, EmailContent, SMSContent:
		return marshalContent(v)
	case nil:
		return "", fmt.Errorf("%w: nil content", ErrInvalidContent)
	default:
		return "", fmt.Errorf("%w: unsupported content %T", ErrInvalidContent, c)
	}
}

// MustEncode is EncodeContent for values known to be valid, such as literals in tests.
func MustEncode(c Content) string {
	s, err := EncodeContent(c)
	if err != nil {
		panic(err)
	}
	return s
}

func marshalContent(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return string(b), nil
}

// DecodeContent parses raw back into the typed content for t.
func DecodeContent(t Type, raw string) (Content, error) {
	switch t {
	case TypeURL:
		return URLContent{URL: raw}, nil
	case TypeText:
		return TextContent{Text: raw}, nil
	case TypePhone:
		return PhoneContent{Number: raw}, nil
	case TypeWifi:
		var v WifiContent
		if err := unmarshalContent(raw, &v); err != nil {
			return nil, err
		}
		enc, err := ParseEncryption(string(v.Encryption))
		if err != nil {
			return nil, err
		}
		v.Encryption = enc
		return v, nil
	case TypeVCard:
		var v VCardContent
		if err := unmarshalContent(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case TypeEmail:
		var v EmailContent
		if err := unmarshalContent(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case TypeSMS:
		var v SMSContent
		if err := unmarshalContent(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
}

func unmarshalContent(raw string, dst any) error {
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return fmt.Errorf("%w: expected a JSON object", ErrInvalidContent)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return nil
}

// EmptyContent is the content a fresh editor holds after switching to t.
func EmptyContent(t Type) string {
	switch t {
	case TypeWifi:
		return MustEncode(WifiContent{Encryption: EncryptionWPA})
	case TypeVCard:
		return MustEncode(VCardContent{})
	case TypeEmail:
		return MustEncode(EmailContent{})
	case TypeSMS:
		return MustEncode(SMSContent{})
	default:
		return ""
	}
}

// BlankContent reports whether content has nothing worth encoding: blank
// text, or a structured record equal to the empty value of its type.
func BlankContent(t Type, content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return true
	}
	return t.Structured() && content == EmptyContent(t)
}
