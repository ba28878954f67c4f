package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qrforge/qrforge/internal/qr"
)

// contentFlags collects the raw content or the per-type fields of a QR code.
type contentFlags struct {
	typ      string
	content  string
	filePath string

	ssid        string
	password    string
	encryption  string
	wifiPayload string

	firstName    string
	lastName     string
	organization string
	jobTitle     string
	vcardEmail   string
	vcardPhone   string
	website      string
	address      string

	to      string
	subject string
	body    string

	number  string
	message string
}

func (f *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.typ, "type", "t", "url", "QR code type: url, text, email, phone, sms, wifi or vcard")
	cmd.Flags().StringVarP(&f.content, "content", "c", "", "Raw content (serialized JSON for structured types)")
	cmd.Flags().StringVarP(&f.filePath, "file", "f", "", "Read raw content from file")

	cmd.Flags().StringVar(&f.ssid, "ssid", "", "WiFi network name")
	cmd.Flags().StringVar(&f.password, "password", "", "WiFi password")
	cmd.Flags().StringVar(&f.encryption, "encryption", "WPA", "WiFi encryption: WPA, WEP or nopass")
	cmd.Flags().StringVar(&f.wifiPayload, "wifi-payload", "", "Existing WIFI:...;; string, e.g. from a scanned code")

	cmd.Flags().StringVar(&f.firstName, "first-name", "", "Contact first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "Contact last name")
	cmd.Flags().StringVar(&f.organization, "org", "", "Contact organization")
	cmd.Flags().StringVar(&f.jobTitle, "job-title", "", "Contact job title")
	cmd.Flags().StringVar(&f.vcardEmail, "contact-email", "", "Contact email address")
	cmd.Flags().StringVar(&f.vcardPhone, "contact-phone", "", "Contact phone number")
	cmd.Flags().StringVar(&f.website, "website", "", "Contact website")
	cmd.Flags().StringVar(&f.address, "address", "", "Contact address")

	cmd.Flags().StringVar(&f.to, "to", "", "Email recipient")
	cmd.Flags().StringVar(&f.subject, "subject", "", "Email subject")
	cmd.Flags().StringVar(&f.body, "body", "", "Email body")

	cmd.Flags().StringVar(&f.number, "number", "", "Phone or SMS number")
	cmd.Flags().StringVar(&f.message, "message", "", "SMS message")
}

// resolve returns the type and the stored content string. Raw content from
// --content or --file wins over the per-type flags.
func (f *contentFlags) resolve(cmd *cobra.Command) (qr.Type, string, error) {
	return f.resolveOver(cmd, "")
}

// resolveOver is resolve for an edit: per-type flags that were not given
// keep their value from current, the stored content of the same type.
// Raw content and a wifi payload still replace everything.
func (f *contentFlags) resolveOver(cmd *cobra.Command, current string) (qr.Type, string, error) {
	t, err := qr.ParseType(f.typ)
	if err != nil {
		return "", "", err
	}

	if cmd.Flags().Changed("content") {
		return t, f.content, nil
	}
	if f.filePath != "" {
		data, err := os.ReadFile(f.filePath)
		if err != nil {
			return "", "", err
		}
		return t, strings.TrimRight(string(data), "\r\n"), nil
	}

	var base qr.Content
	if current != "" && t.Structured() {
		if c, err := qr.DecodeContent(t, current); err == nil {
			base = c
		}
	}
	// set copies a flag unless an edit left it out.
	set := func(name string, dst *string, value string) {
		if base == nil || cmd.Flags().Changed(name) {
			*dst = value
		}
	}

	var c qr.Content
	switch t {
	case qr.TypeWifi:
		if f.wifiPayload != "" {
			w, err := qr.ParseWifi(f.wifiPayload)
			if err != nil {
				return "", "", err
			}
			c = w
			break
		}
		w, _ := base.(qr.WifiContent)
		set("ssid", &w.SSID, f.ssid)
		set("password", &w.Password, f.password)
		if base == nil || cmd.Flags().Changed("encryption") {
			enc, err := qr.ParseEncryption(f.encryption)
			if err != nil {
				return "", "", err
			}
			w.Encryption = enc
		}
		c = w
	case qr.TypeVCard:
		v, _ := base.(qr.VCardContent)
		set("first-name", &v.FirstName, f.firstName)
		set("last-name", &v.LastName, f.lastName)
		set("org", &v.Organization, f.organization)
		set("job-title", &v.Title, f.jobTitle)
		set("contact-email", &v.Email, f.vcardEmail)
		set("contact-phone", &v.Phone, f.vcardPhone)
		set("website", &v.Website, f.website)
		set("address", &v.Address, f.address)
		c = v
	case qr.TypeEmail:
		e, _ := base.(qr.EmailContent)
		set("to", &e.Address, f.to)
		set("subject", &e.Subject, f.subject)
		set("body", &e.Body, f.body)
		c = e
	case qr.TypeSMS:
		m, _ := base.(qr.SMSContent)
		set("number", &m.Number, f.number)
		set("message", &m.Message, f.message)
		c = m
	case qr.TypePhone:
		if f.number != "" {
			c = qr.PhoneContent{Number: f.number}
			break
		}
		fallthrough
	default:
		raw, err := readStdin(cmd)
		if err != nil {
			return "", "", err
		}
		return t, raw, nil
	}

	content, err := qr.EncodeContent(c)
	if err != nil {
		return "", "", err
	}
	return t, content, nil
}

var errNoContent = errors.New("no content given (use --content, --file or pipe it on stdin)")

func readStdin(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return "", errNoContent
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// styleFlags are the optional look-and-feel overrides; unset fields take
// the configured defaults.
type styleFlags struct {
	color           string
	backgroundColor string
	size            int
	errorCorrection string
}

func (f *styleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.color, "color", "", "Foreground hex colour (default from config)")
	cmd.Flags().StringVar(&f.backgroundColor, "bg", "", "Background hex colour (default from config)")
	cmd.Flags().IntVar(&f.size, "size", 0, fmt.Sprintf("Image size in pixels, %d-%d (default from config)", qr.MinSize, qr.MaxSize))
	cmd.Flags().StringVar(&f.errorCorrection, "ec", "", "Error correction level: L, M, Q or H (default from config)")
}

func (f *styleFlags) style() qr.Style {
	return qr.Style{
		Color:           f.color,
		BackgroundColor: f.backgroundColor,
		Size:            f.size,
		ErrorCorrection: qr.ErrorCorrection(strings.ToUpper(f.errorCorrection)),
	}
}

func (f *styleFlags) changed(cmd *cobra.Command) bool {
	return anyChanged(cmd, []string{"color", "bg", "size", "ec"})
}
