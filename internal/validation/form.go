// Package validation holds the form schemas for sites, posts and images.
// Validators are pure; lookups they need are injected by the caller.
package validation

import (
	"html"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Form is a flat submitted form.
type Form map[string]string

// Get returns the raw value for key, or "" when absent.
func (f Form) Get(key string) string {
	return f[key]
}

// FieldErrors maps a form field to its messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Empty reports whether no field failed.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

var textPolicy = bluemonday.StrictPolicy()

// plainText strips markup and surrounding whitespace from a text field.
// Entities are decoded before sanitizing so encoded tags are stripped too.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(decodeEntities(s))))
}

// decodeEntities unescapes until the text stops changing, bounded for nested encodings.
func decodeEntities(s string) string {
	for range 4 {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// checkLength adds an error when s is outside [lo, hi] characters.
func checkLength(errs FieldErrors, field, s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0 && lo > 0:
		errs.Add(field, "is required")
	case n < lo:
		errs.Add(field, "must be at least "+strconv.Itoa(lo)+" characters")
	case n > hi:
		errs.Add(field, "must be at most "+strconv.Itoa(hi)+" characters")
	default:
		return true
	}
	return false
}

// checkHTTPURL adds an error unless s is an absolute http(s) URL.
func checkHTTPURL(errs FieldErrors, field, s string) bool {
	if s == "" {
		errs.Add(field, "is required")
		return false
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add(field, "must be an absolute http(s) URL")
		return false
	}
	return true
}
