package favicon

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/net/idna"
)

// HostFromURL extracts and normalizes the host of an absolute http(s) URL.
func HostFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidDomain)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: url must use http or https scheme", ErrInvalidDomain)
	}

	if u.Host == "" {
		return "", fmt.Errorf("%w: url must have a host", ErrInvalidDomain)
	}

	return NormalizeHost(u.Host)
}

// NormalizeHost turns a raw host (optionally with userinfo or port) into the
// lower-cased ASCII form used as cache key and fetch target.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)

	if at := strings.LastIndexByte(host, '@'); at != -1 {
		host = host[at+1:]
	}

	if strings.Contains(host, ":") {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
	}

	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")

	if host == "" {
		return "", fmt.Errorf("%w: empty host", ErrInvalidDomain)
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	if !isASCII(host) {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: idna: %v", ErrInvalidDomain, err)
		}
		host = ascii
	}

	host = strings.ToLower(host)

	if err := validation.Validate(host, is.Host); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDomain, host)
	}

	return host, nil
}

// URLHost renders a normalized domain for use in a URL: IPv6 literals get
// their brackets back.
func URLHost(domain string) string {
	if ip := net.ParseIP(domain); ip != nil && ip.To4() == nil {
		return "[" + domain + "]"
	}
	return domain
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
