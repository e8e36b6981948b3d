package security

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidateWebURL はURLがホストを持つ絶対http(s)URLかを検証する。
// URLの取得は行わないため、宛先のネットワークは問わない。
func ValidateWebURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("disallowed scheme: %q", parsed.Scheme)
	}

	if parsed.Hostname() == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}
	return nil
}
