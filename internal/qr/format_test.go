package qr

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/qrforge/qrforge/internal/logger"
)

func TestFormatWifiEscapesReservedCharacters(t *testing.T) {
	got := FormatWifi(WifiContent{SSID: "My Wifi;Net", Password: "p@ss:1", Encryption: EncryptionWPA})
	require.Equal(t, "WIFI:T:WPA;S:My%20Wifi%3BNet;P:p%40ss%3A1;;", got)
}

func TestFormatWifiRoundTrip(t *testing.T) {
	cases := []WifiContent{
		{SSID: "semi;colon", Password: "co:lon", Encryption: EncryptionWPA},
		{SSID: `quote"d`, Password: `back\slash`, Encryption: EncryptionWEP},
		{SSID: "comma,net", Password: "a,b;c:d\"e\\f", Encryption: EncryptionNoPass},
		{SSID: "café ☕", Password: "100%+plus", Encryption: EncryptionWPA},
		{SSID: "open", Password: "", Encryption: EncryptionNoPass},
	}

	for _, want := range cases {
		t.Run(want.SSID, func(t *testing.T) {
			payload := FormatWifi(want)
			require.True(t, strings.HasPrefix(payload, "WIFI:T:"))
			require.True(t, strings.HasSuffix(payload, ";;"))

			got, err := ParseWifi(payload)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestParseWifiRejectsGarbage(t *testing.T) {
	_, err := ParseWifi("WIFI:T:WPA")
	require.ErrorIs(t, err, ErrInvalidContent)

	_, err = ParseWifi("WIFI:T:WPA;S%zz;;")
	require.ErrorIs(t, err, ErrInvalidContent)
}

func TestFormatVCardMinimal(t *testing.T) {
	got := FormatVCard(VCardContent{FirstName: "Ada", LastName: "Lovelace"})
	require.Equal(t, "BEGIN:VCARD\nVERSION:3.0\nN:Lovelace;Ada;;;\nFN:Ada Lovelace\nEND:VCARD", got)

	for _, prefix := range []string{"ORG:", "TITLE:", "TEL;", "EMAIL:", "URL:", "ADR:"} {
		require.NotContains(t, got, prefix)
	}
}

func TestFormatVCardFieldOrder(t *testing.T) {
	got := FormatVCard(VCardContent{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Organization: "Analytical Engines",
		Title:        "Programmer",
		Email:        "ada@example.com",
		Phone:        "+441234",
		Website:      "https://example.com",
		Address:      "12 St James's Square",
	})

	want := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"N:Lovelace;Ada;;;",
		"FN:Ada Lovelace",
		"ORG:Analytical%20Engines",
		"TITLE:Programmer",
		"TEL;TYPE=CELL:+441234",
		"EMAIL:ada@example.com",
		"URL:https://example.com",
		"ADR:;;12%20St%20James's%20Square;;;;",
		"END:VCARD",
	}, "\n")
	require.Equal(t, want, got)
}

func TestFormatEmail(t *testing.T) {
	require.Equal(t, "mailto:a%40b.com", FormatEmail(EmailContent{Address: "a@b.com"}))

	onlyAddress := FormatEmail(EmailContent{Address: "someone@example.com"})
	require.NotContains(t, onlyAddress, "?")

	both := FormatEmail(EmailContent{Address: "a@b.com", Subject: "Hi there", Body: "x&y=z?"})
	require.Equal(t, "mailto:a%40b.com?subject=Hi%20there&body=x%26y%3Dz%3F", both)
	require.Equal(t, 1, strings.Count(both, "?"))
	require.Equal(t, 1, strings.Count(both, "&"))

	require.Equal(t, "mailto:a%40b.com?body=hello", FormatEmail(EmailContent{Address: "a@b.com", Body: "hello"}))
	require.Equal(t, "mailto:a%40b.com?subject=s", FormatEmail(EmailContent{Address: "a@b.com", Subject: "s"}))
}

func TestFormatSMS(t *testing.T) {
	require.Equal(t, "sms:%2B1234567890?body=hi", FormatSMS(SMSContent{Number: "+1234567890", Message: "hi"}))
	require.Equal(t, "sms:555", FormatSMS(SMSContent{Number: "555"}))
}

func TestFormatURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"example.com", "https://example.com/"},
		{"example.com/path?q=1", "https://example.com/path?q=1"},
		{"https://Example.COM", "https://example.com/"},
		{"http://example.com/a/b?c=d#e", "http://example.com/a/b?c=d#e"},
		{"mailto:someone@example.com", "mailto:someone@example.com"},
		{"hello world", "https://hello world"},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, FormatURL(tc.in))
		})
	}
}

func TestFormatURLIdempotent(t *testing.T) {
	inputs := []string{
		"", "example.com", "www.example.com/a b", "https://Example.com", "HTTPS://EXAMPLE.COM/Path",
		"http://example.com:8080", "hello world", "ftp://files.example.com/x", "https:broken",
		"mailto:x@y.z", "example.com/?q=a+b", "http://[::1]:80/", "https://exa mple.com",
		"example.com/?q=a #", "https://example.com/?x=1  #", "mailto:x@y.z #", "example.com/? #",
	}
	for _, in := range inputs {
		once := FormatURL(in)
		require.Equal(t, once, FormatURL(once), "input %q", in)
	}
}

func TestFormatURLDropsTrailingSpaceBeforeEmptyFragment(t *testing.T) {
	require.Equal(t, "https://example.com/?q=a", FormatURL("example.com/?q=a #"))
}

func TestEscapeComponent(t *testing.T) {
	require.Equal(t, "abcXYZ019-_.!~*'()", EscapeComponent("abcXYZ019-_.!~*'()"))
	require.Equal(t, "%20%3B%3A%2C%22%5C%40%2B%26%3D%3F%2F%23%25", EscapeComponent(` ;:,"\@+&=?/#%`))
	require.Equal(t, "caf%C3%A9", EscapeComponent("café"))
}

func TestFormatterDispatch(t *testing.T) {
	f := NewFormatter(nil)

	require.Equal(t, "https://example.com/", f.Format(TypeURL, "example.com").Payload)
	require.Equal(t, "just text", f.Format(TypeText, "just text").Payload)
	require.Equal(t, "+1 555 0100", f.Format(TypePhone, "+1 555 0100").Payload)

	wifi := MustEncode(WifiContent{SSID: "My Wifi;Net", Password: "p@ss:1", Encryption: EncryptionWPA})
	res := f.Format(TypeWifi, wifi)
	require.False(t, res.Degraded())
	require.Equal(t, "WIFI:T:WPA;S:My%20Wifi%3BNet;P:p%40ss%3A1;;", res.Payload)

	email := MustEncode(EmailContent{Address: "a@b.com"})
	require.Equal(t, "mailto:a%40b.com", f.Format(TypeEmail, email).Payload)

	sms := MustEncode(SMSContent{Number: "+1234567890", Message: "hi"})
	require.Equal(t, "sms:%2B1234567890?body=hi", f.Format(TypeSMS, sms).Payload)

	vcard := MustEncode(VCardContent{FirstName: "Ada", LastName: "Lovelace"})
	require.True(t, strings.HasPrefix(f.Format(TypeVCard, vcard).Payload, "BEGIN:VCARD\n"))
}

func TestFormatterEmptyContent(t *testing.T) {
	f := NewFormatter(nil)
	for _, typ := range Types {
		res := f.Format(typ, "")
		require.Empty(t, res.Payload, typ)
		require.NoError(t, res.Err, typ)
	}
}

func TestFormatterFallsBackOnMalformedContent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := NewFormatter(logger.FromZap(zap.New(core)))

	for _, typ := range []Type{TypeWifi, TypeVCard, TypeEmail, TypeSMS} {
		res := f.Format(typ, "{not json")
		require.True(t, res.Degraded(), typ)
		require.True(t, errors.Is(res.Err, ErrInvalidContent), typ)
		require.Equal(t, "{not json", res.Payload, typ)
	}

	res := f.Format(TypeWifi, `{"ssid":"x","password":"y","encryption":"WPA3"}`)
	require.True(t, res.Degraded())

	require.Equal(t, 5, logs.FilterMessage("falling back to raw content").Len())
}
