package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSlugLength bounds post slugs.
const MaxSlugLength = 190

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Subdirectories that would shadow application routes.
var reservedSubdirectories = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"assets":    {},
	"auth":      {},
	"blog":      {},
	"dashboard": {},
	"health":    {},
	"login":     {},
	"logout":    {},
	"metrics":   {},
	"pricing":   {},
	"static":    {},
	"swagger":   {},
	"www":       {},
}

// IsSlug reports whether s is lowercase words joined by single hyphens.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// IsReservedSubdirectory reports whether s collides with an application path.
func IsReservedSubdirectory(s string) bool {
	_, ok := reservedSubdirectories[s]
	return ok
}

// Slugify derives a slug from a title: ASCII letters and digits survive,
// everything else collapses into single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		r = foldAccent(r)
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

var accentFolds = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'ç': 'c',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ñ': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
}

func foldAccent(r rune) rune {
	if f, ok := accentFolds[r]; ok {
		return f
	}
	return r
}
