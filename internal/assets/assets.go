// Package assets resolves media references against the storage mount and
// serves the files behind it.
package assets

import (
	"regexp"
	"strings"
)

// StoragePrefix is the mount path relative media references resolve against.
const StoragePrefix = "/storage"

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// IsAbsolute reports whether ref already carries a full URL scheme (or is
// protocol-relative, a data: or a blob: URL) and must be used verbatim.
func IsAbsolute(ref string) bool {
	return schemeRe.MatchString(ref) ||
		strings.HasPrefix(ref, "//") ||
		strings.HasPrefix(ref, "data:") ||
		strings.HasPrefix(ref, "blob:")
}

// Resolve maps a media reference to the address handed to an image or video
// element: absolute URLs unchanged, everything else under [StoragePrefix].
func Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return ""
	case IsAbsolute(ref):
		return ref
	case ref == StoragePrefix || strings.HasPrefix(ref, StoragePrefix+"/"):
		return ref
	}
	return StoragePrefix + "/" + strings.TrimLeft(ref, "/")
}

// ResolveOr resolves ref, substituting fallback when ref is empty.
func ResolveOr(ref, fallback string) string {
	if r := Resolve(ref); r != "" {
		return r
	}
	return Resolve(fallback)
}
