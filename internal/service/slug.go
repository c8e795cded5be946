package service

import (
	"fmt"
	"strings"
	"unicode"
)

// Slugify converts a display name into a URL-safe slug: lowercased, with
// runs of non-alphanumeric characters collapsed into single dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// UniqueSlug returns the first slug among base, base-1, base-2, ... that is
// not in taken. The caller owns adding the result back to the set.
func UniqueSlug(base string, taken map[string]struct{}) string {
	if base == "" {
		base = "item"
	}
	if _, ok := taken[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
