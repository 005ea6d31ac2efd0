package gemtext

import (
	"html"
	"net/url"
	"strings"
	"unicode"
)

// DecodeLinkLine splits the text after "=>" into a link target and its label.
// A line with a single token has an empty label.
func DecodeLinkLine(directive string) (target, label string) {
	rest := strings.TrimLeftFunc(directive, unicode.IsSpace)
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		return strings.TrimRight(rest, "\r\n"), ""
	}
	target = rest[:end]
	label = strings.TrimSpace(rest[end:])
	return target, label
}

// searchValueEscaper escapes the characters that would otherwise change the
// meaning of the search query value. '/' and ':' are left readable.
var searchValueEscaper = strings.NewReplacer(
	"%", "%25",
	"&", "%26",
	"+", "%2B",
	"#", "%23",
	";", "%3B",
	" ", "%20",
)

// RewriteLink maps a link target to an href. http and https links are kept as
// they are; everything else is routed back through the gateway's search query.
func RewriteLink(target, originHost string) string {
	if u, err := url.Parse(target); err == nil && u.IsAbs() {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return target
		default:
			return searchHref(target)
		}
	}
	if strings.HasPrefix(target, "/") {
		return searchHref(originHost + target)
	}
	return searchHref(originHost + "/" + target)
}

func searchHref(address string) string {
	return "?search=" + searchValueEscaper.Replace(address)
}

func renderLink(directive, originHost string) string {
	target, label := DecodeLinkLine(directive)
	if target == "" {
		return ""
	}
	if label == "" {
		label = target
	}
	href := RewriteLink(target, originHost)
	return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(label) + `</a><br>`
}
