// Package textutil cleans catalog text for use in filenames, folder
// names, and slugs.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any non-alphanumeric character.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
	// Matches characters that are unsafe or awkward in filenames.
	unsafeFilename = regexp.MustCompile(`[/\\:*?"<>|]`)
	// Matches runs of whitespace.
	whitespace = regexp.MustCompile(`\s+`)
	// Matches the numeric disambiguation suffix Discogs appends to
	// artist names, as in "Nirvana (2)".
	discogsSuffix = regexp.MustCompile(`\s+\(\d+\)$`)
)

// Slugify converts a string to a URL-safe slug.
// "Kind of Blue" -> "kind-of-blue".
// "AC/DC" -> "ac-dc".
func Slugify(s string) string {
	// Normalize unicode (decompose accented characters).
	s = norm.NFKD.String(s)

	// Remove non-ASCII characters.
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SanitizeFilename replaces characters that cause trouble in file and
// folder names and collapses whitespace. Unicode is kept; only the
// genuinely unsafe characters go.
func SanitizeFilename(s string) string {
	s = unsafeFilename.ReplaceAllString(s, "_")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .")
	if s == "" {
		return "Untitled"
	}
	return s
}

// CleanArtist strips the numeric suffix Discogs uses to tell identically
// named artists apart. It belongs in the catalog, not in tags or
// folder names.
func CleanArtist(s string) string {
	return strings.TrimSpace(discogsSuffix.ReplaceAllString(s, ""))
}
