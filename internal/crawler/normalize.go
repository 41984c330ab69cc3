package crawler

import (
	"net/url"
	"strings"
)

// rejectHref reports whether href should never be treated as a link,
// before any parsing or normalization is attempted.
func rejectHref(href string) bool {
	h := strings.TrimSpace(href)
	if h == "" {
		return true
	}
	lower := strings.ToLower(h)
	switch {
	case strings.HasPrefix(lower, "#"),
		strings.HasPrefix(lower, "javascript:"),
		strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "tel:"),
		strings.HasPrefix(lower, "data:"):
		return true
	}
	return false
}

// Normalize parses raw and returns its deterministic canonical form:
// fragment and path parameters dropped, empty path recomposed to "/",
// exactly one trailing slash trimmed (unless the path is just "/"),
// host lowercased, scheme/path-case/query preserved otherwise.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return normalizeParsed(u), nil
}

// Absolutize resolves href against base per RFC 3986, rejects it per the
// scheme/prefix filter, requires an http(s) scheme, and returns the
// normalized absolute URL.
func Absolutize(base *url.URL, href string) (string, bool) {
	if rejectHref(href) {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	return normalizeParsed(abs), true
}

func normalizeParsed(u *url.URL) string {
	nu := *u
	nu.Fragment = ""
	nu.RawFragment = ""
	nu.Path = stripPathParams(nu.Path)
	nu.Host = strings.ToLower(nu.Host)

	if nu.Path == "" {
		nu.Path = "/"
	} else if nu.Path != "/" && strings.HasSuffix(nu.Path, "/") {
		nu.Path = strings.TrimSuffix(nu.Path, "/")
	}

	return nu.String()
}

// stripPathParams drops a trailing `;params` segment, the Go stand-in
// for RFC 3986 path parameters (Go's net/url does not split them out on
// its own the way some other languages' URL parsers do).
func stripPathParams(path string) string {
	start := strings.LastIndex(path, "/") + 1
	if idx := strings.Index(path[start:], ";"); idx >= 0 {
		return path[:start+idx]
	}
	return path
}

// InScope reports whether urlStr's host matches baseHost, case-insensitively.
func InScope(urlStr, baseHost string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, baseHost)
}
