package corelib

import "strings"

// PreservedPrefix returns everything before the first occurrence of marker.
// When the marker is absent the whole content is the prefix and found is false.
func PreservedPrefix(content, marker string) (prefix string, found bool) {
	prefix, _, found = strings.Cut(content, marker)
	return prefix, found
}

// GeneratedSuffix renders the marker followed by one declaration per library.
func GeneratedSuffix(marker string, libs LibrarySet) string {
	var b strings.Builder
	b.WriteString(marker)
	for _, name := range libs {
		b.WriteByte('\n')
		b.WriteString(Declaration(name))
	}
	return b.String()
}

// PatchRootModule replaces the generated suffix of content. Anything after
// the marker is discarded and regenerated; nothing before it changes.
func PatchRootModule(content, marker string, libs LibrarySet) (patched string, markerFound bool) {
	prefix, found := PreservedPrefix(content, marker)
	return prefix + GeneratedSuffix(marker, libs), found
}
