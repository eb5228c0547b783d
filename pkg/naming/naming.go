// Package naming turns recognized text into file name stems.
package naming

import (
	"strconv"
	"strings"
)

const (
	// ForbiddenChars are replaced by Replacement in every label
	ForbiddenChars = `\/:*?"<>|`

	// Replacement substitutes each forbidden character
	Replacement = "_"

	// MaxLabelLength caps a label in Unicode code points
	MaxLabelLength = 40

	// FallbackPrefix names photos whose recognition produced no text
	FallbackPrefix = "photo_"
)

var replacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(ForbiddenChars))
	for _, r := range ForbiddenChars {
		pairs = append(pairs, string(r), Replacement)
	}
	return strings.NewReplacer(pairs...)
}()

// Sanitize replaces every forbidden character with an underscore.
// Nothing else is altered; whitespace and Unicode pass through.
func Sanitize(text string) string {
	return replacer.Replace(text)
}

// Label derives the file name stem for the photo at the 1-based index.
// Empty text yields photo_<index>; otherwise the sanitized text is
// truncated to MaxLabelLength code points.
func Label(text string, index int) string {
	clean := Sanitize(text)
	if clean == "" {
		return FallbackPrefix + strconv.Itoa(index)
	}
	return Truncate(clean, MaxLabelLength)
}

// Truncate keeps at most n code points of s
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
