package qr

import (
	"net/url"
	"strings"

	"github.com/qrforge/qrforge/internal/logger"
)

// Result is the outcome of formatting a record's content. Payload is always
// usable; Err is a diagnostic only and is set when structured content could
// not be decoded and the raw content was used instead.
type Result struct {
	Payload string
	Err     error
}

// Degraded reports whether formatting fell back to the raw content.
func (r Result) Degraded() bool { return r.Err != nil }

// FormatURL returns the canonical form of an absolute URL, prefixes https://
// when no http(s) scheme is present, and otherwise returns raw unchanged.
// Applying it twice gives the same result as applying it once.
func FormatURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if canonical, ok := canonicalURL(raw); ok {
		return canonical
	}
	if !hasHTTPPrefix(raw) {
		prefixed := "https://" + raw
		if canonical, ok := canonicalURL(prefixed); ok {
			return canonical
		}
		return prefixed
	}
	return raw
}

func hasHTTPPrefix(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func canonicalURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return "", false
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		if u.Host == "" {
			return "", false
		}
		u.Host = strings.ToLower(u.Host)
		if u.Path == "" && u.Opaque == "" {
			u.Path = "/"
		}
	}
	// A dropped empty fragment can expose trailing spaces of the query.
	return strings.TrimSpace(u.String()), true
}

// FormatWifi builds WIFI:T:<enc>;S:<ssid>;P:<password>;; with ssid and
// password percent-escaped.
func FormatWifi(w WifiContent) string {
	enc := w.Encryption
	if enc == "" {
		enc = EncryptionWPA
	}
	return "WIFI:T:" + string(enc) +
		";S:" + EscapeComponent(w.SSID) +
		";P:" + EscapeComponent(w.Password) + ";;"
}

// FormatVCard builds a vCard 3.0 block. Optional lines are emitted only when
// set, always in the order ORG, TITLE, TEL, EMAIL, URL, ADR.
func FormatVCard(v VCardContent) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCARD\nVERSION:3.0\n")
	b.WriteString("N:" + v.LastName + ";" + v.FirstName + ";;;\n")
	b.WriteString("FN:" + v.FirstName + " " + v.LastName + "\n")
	if v.Organization != "" {
		b.WriteString("ORG:" + EscapeComponent(v.Organization) + "\n")
	}
	if v.Title != "" {
		b.WriteString("TITLE:" + EscapeComponent(v.Title) + "\n")
	}
	if v.Phone != "" {
		b.WriteString("TEL;TYPE=CELL:" + v.Phone + "\n")
	}
	if v.Email != "" {
		b.WriteString("EMAIL:" + v.Email + "\n")
	}
	if v.Website != "" {
		b.WriteString("URL:" + v.Website + "\n")
	}
	if v.Address != "" {
		b.WriteString("ADR:;;" + EscapeComponent(v.Address) + ";;;;\n")
	}
	b.WriteString("END:VCARD")
	return b.String()
}

// FormatEmail builds a mailto: URI with optional subject and body parameters.
func FormatEmail(e EmailContent) string {
	out := "mailto:" + EscapeComponent(e.Address)
	var params []string
	if e.Subject != "" {
		params = append(params, "subject="+EscapeComponent(e.Subject))
	}
	if e.Body != "" {
		params = append(params, "body="+EscapeComponent(e.Body))
	}
	if len(params) > 0 {
		out += "?" + strings.Join(params, "&")
	}
	return out
}

// FormatSMS builds an sms: URI with an optional body parameter.
func FormatSMS(s SMSContent) string {
	out := "sms:" + EscapeComponent(s.Number)
	if s.Message != "" {
		out += "?body=" + EscapeComponent(s.Message)
	}
	return out
}

// FormatContent dispatches on the concrete content type.
func FormatContent(c Content) string {
	switch v := c.(type) {
	case URLContent:
		return FormatURL(v.URL)
	case TextContent:
		return v.Text
	case PhoneContent:
		return v.Number
	case WifiContent:
		return FormatWifi(v)
	case VCardContent:
		return FormatVCard(v)
	case EmailContent:
		return FormatEmail(v)
	case SMSContent:
		return FormatSMS(v)
	}
	return ""
}

// Formatter turns (type, content) pairs into payloads and logs any decode
// failures it recovers from.
type Formatter struct {
	log logger.Logger
}

func NewFormatter(log logger.Logger) *Formatter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Formatter{log: log}
}

// Format never fails: empty content yields an empty payload, and content that
// cannot be decoded is returned as-is with the decode error attached.
func (f *Formatter) Format(t Type, content string) Result {
	if content == "" {
		return Result{}
	}

	c, err := DecodeContent(t, content)
	if err != nil {
		f.log.Warn("falling back to raw content",
			logger.String("type", string(t)),
			logger.Error(err))
		return Result{Payload: content, Err: err}
	}

	return Result{Payload: FormatContent(c)}
}

// FormatRecord formats the content of r.
func (f *Formatter) FormatRecord(r Record) Result {
	return f.Format(r.Type, r.Content)
}
