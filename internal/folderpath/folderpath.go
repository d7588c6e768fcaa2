// Package folderpath handles the logical, slash-delimited folder paths used in
// URLs and cache keys.
//
// A folder whose real name contains a slash (for example a "2024/25 Session"
// folder) is addressed with the Placeholder character in its place, so path
// splitting is never ambiguous. The placeholder form is what appears in URLs
// and cache keys; Decode restores the real name for matching.
package folderpath

import "strings"

// Placeholder stands in for a literal slash inside a segment.
const Placeholder = "~"

// Root is the canonical form of the root path.
const Root = "/"

// Split returns the non-empty segments of p. Both "/" and "" yield no segments.
func Split(p string) []string {
	parts := strings.Split(p, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}

// Join builds the canonical path for segments.
func Join(segments []string) string {
	if len(segments) == 0 {
		return Root
	}
	return Root + strings.Join(segments, "/")
}

// Canonical normalizes p to "/" or "/a/b" form.
func Canonical(p string) string {
	return Join(Split(p))
}

// IsRoot reports whether p addresses the root folder.
func IsRoot(p string) bool {
	return len(Split(p)) == 0
}

// Depth returns the number of segments in p.
func Depth(p string) int {
	return len(Split(p))
}

// Encode replaces literal slashes in a folder name with the placeholder.
func Encode(name string) string {
	return strings.ReplaceAll(name, "/", Placeholder)
}

// Decode turns a path segment back into the folder name it addresses.
func Decode(segment string) string {
	return strings.ReplaceAll(segment, Placeholder, "/")
}

// NormalizeName trims a name and collapses internal runs of whitespace to a
// single space.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Matches reports whether segment addresses the provider folder folderName.
func Matches(segment, folderName string) bool {
	return NormalizeName(Decode(segment)) == NormalizeName(folderName)
}
