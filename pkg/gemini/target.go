package gemini

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	Scheme       = "gemini"
	schemePrefix = Scheme + "://"
	DefaultPort  = 1965
)

// Target is the address being fetched. It is replaced, never mutated, on each redirect.
type Target struct {
	url         *url.URL
	defaultPort int
}

// ParseTarget normalizes user input into a gemini:// target.
// A missing scheme is prepended; any other scheme is rejected.
func ParseTarget(raw string, defaultPort int) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, newFetchError(ErrEmptyQuery, "", nil)
	}
	if !strings.HasPrefix(strings.ToLower(raw), schemePrefix) {
		if strings.Contains(raw, "://") {
			return Target{}, newFetchError(ErrBadURL, raw, nil)
		}
		raw = schemePrefix + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, newFetchError(ErrBadURL, raw, err)
	}
	return newTarget(u, defaultPort)
}

func newTarget(u *url.URL, defaultPort int) (Target, error) {
	if !strings.EqualFold(u.Scheme, Scheme) || u.Hostname() == "" {
		return Target{}, newFetchError(ErrBadURL, u.String(), nil)
	}
	if port := u.Port(); port != "" {
		if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
			return Target{}, newFetchError(ErrBadURL, u.String(), err)
		}
	}
	if defaultPort <= 0 {
		defaultPort = DefaultPort
	}
	u.Scheme = Scheme
	u.Fragment = ""
	u.RawFragment = ""
	return Target{url: u, defaultPort: defaultPort}, nil
}

// Resolve parses a redirect location relative to the target.
func (t Target) Resolve(ref string) (Target, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Target{}, newFetchError(ErrInvalidRedirect, t.String(), nil)
	}
	next, err := t.url.Parse(ref)
	if err != nil {
		return Target{}, newFetchError(ErrInvalidRedirect, ref, err)
	}
	resolved, err := newTarget(next, t.defaultPort)
	if err != nil {
		return Target{}, newFetchError(ErrInvalidRedirect, ref, nil)
	}
	return resolved, nil
}

// WithQuery returns a copy of the target carrying the percent-encoded input as its query.
func (t Target) WithQuery(input string) Target {
	u := *t.url
	u.RawQuery = strings.ReplaceAll(url.QueryEscape(input), "+", "%20")
	return Target{url: &u, defaultPort: t.defaultPort}
}

// Authority is the host:port the transport dials. The port is never part of the request line.
func (t Target) Authority() string {
	port := t.url.Port()
	if port == "" {
		port = strconv.Itoa(t.defaultPort)
	}
	return net.JoinHostPort(t.url.Hostname(), port)
}

// Host returns the hostname, keeping an explicit port only when it differs from the default.
func (t Target) Host() string {
	host := t.hostname()
	if port := t.url.Port(); port != "" && port != strconv.Itoa(t.defaultPort) {
		return host + ":" + port
	}
	return host
}

// RequestLine is host + path (+ query), the part sent after "gemini://".
func (t Target) RequestLine() string {
	line := t.hostname() + t.url.EscapedPath()
	if t.url.RawQuery != "" {
		line += "?" + t.url.RawQuery
	}
	return line
}

// Hostname is the bare host used for TLS server name indication.
func (t Target) Hostname() string {
	return t.url.Hostname()
}

// String is the canonical URL. Unlike RequestLine it keeps a non-default port.
func (t Target) String() string {
	if t.url == nil {
		return ""
	}
	s := schemePrefix + t.Host() + t.url.EscapedPath()
	if t.url.RawQuery != "" {
		s += "?" + t.url.RawQuery
	}
	return s
}

func (t Target) hostname() string {
	host := t.url.Hostname()
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}
