// Package site turns page URLs into the domain keys used for time accounting.
package site

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/miekg/dns"
)

var (
	// ErrEmptyURL is returned when the tab has no URL.
	ErrEmptyURL = errors.New("empty url")

	// ErrMalformedURL is returned when the URL cannot be parsed.
	ErrMalformedURL = errors.New("malformed url")

	// ErrInternalPage is returned for browser-internal and non-web schemes
	// such as chrome://, about: or file://.
	ErrInternalPage = errors.New("internal page")

	// ErrInvalidHost is returned when the host is not a valid domain name or IP.
	ErrInvalidHost = errors.New("invalid host")
)

// Domain extracts the hostname that time is attributed to.
// The result is lower-cased without port or trailing dot. A leading "www."
// is kept; stripping it is left to presentation code.
func Domain(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return "", fmt.Errorf("%w: missing scheme", ErrMalformedURL)
	default:
		return "", fmt.Errorf("%w: %s", ErrInternalPage, u.Scheme)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrMalformedURL)
	}

	if net.ParseIP(host) != nil {
		return host, nil
	}

	if _, ok := dns.IsDomainName(host); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, host)
	}

	return host, nil
}

// Reason maps an extraction error to a short label for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyURL):
		return "empty"
	case errors.Is(err, ErrInternalPage):
		return "internal"
	case errors.Is(err, ErrInvalidHost):
		return "invalid_host"
	default:
		return "malformed"
	}
}

// DisplayName strips a leading "www." for presentation.
func DisplayName(domain string) string {
	return strings.TrimPrefix(domain, "www.")
}
