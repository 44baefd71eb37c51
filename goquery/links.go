package goquery

import (
	"net/url"
	"strings"
)

// resolveChapterURL resolves href against base and strips the query and
// fragment, leaving the chapter's first-page address. It returns "" for
// links that cannot name a chapter on the same site.
func resolveChapterURL(base *url.URL, href string) string {
	if href == "" || isNonHTTPLink(href) {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if !isSameHost(base, resolved) {
		return ""
	}
	resolved.RawQuery = ""
	resolved.ForceQuery = false
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// isSameHost uses exact host matching; subdomains are different hosts.
func isSameHost(base *url.URL, resolved *url.URL) bool {
	return resolved.Host == base.Host
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
