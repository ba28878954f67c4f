package qr

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseWifi reads a WIFI:T:..;S:..;P:..;; payload produced by FormatWifi back
// into its fields. Unknown fields such as H: are ignored.
func ParseWifi(payload string) (WifiContent, error) {
	if !strings.HasPrefix(payload, "WIFI:") || !strings.HasSuffix(payload, ";;") {
		return WifiContent{}, fmt.Errorf("%w: not a WIFI payload", ErrInvalidContent)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(payload, "WIFI:"), ";;")

	var out WifiContent
	for _, field := range strings.Split(body, ";") {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			return WifiContent{}, fmt.Errorf("%w: malformed field %q", ErrInvalidContent, field)
		}
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return WifiContent{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		switch key {
		case "T":
			enc, err := ParseEncryption(decoded)
			if err != nil {
				return WifiContent{}, err
			}
			out.Encryption = enc
		case "S":
			out.SSID = decoded
		case "P":
			out.Password = decoded
		}
	}
	return out, nil
}
