// Package media defines the managed media key namespaces and key generation.
//
// A media key identifies an object in the storage bucket and has the form
//
//	<prefix>/<ownerID>/<generatedFileName>
//
// where prefix is one of the managed prefixes below and the generated file
// name embeds a creation timestamp and a random suffix so concurrent uploads
// for the same owner never collide.
//
// The managed prefixes are the reconciliation engine's blast radius: nothing
// outside them is ever listed, deleted, or mutated. They are compile-time
// constants, never derived from request data.
package media

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Managed key prefixes. Each delimits an ownership boundary in the bucket.
const (
	PrefixProductGallery = "products/gallery"
	PrefixProductThumbs  = "products/thumbs"
	PrefixCategoryThumbs = "categories/thumbs"
)

// managedPrefixes is the authoritative list. Order is stable so runs
// process prefixes deterministically.
var managedPrefixes = []string{
	PrefixProductGallery,
	PrefixProductThumbs,
	PrefixCategoryThumbs,
}

// ManagedPrefixes returns a copy of the managed prefix list.
func ManagedPrefixes() []string {
	out := make([]string, len(managedPrefixes))
	copy(out, managedPrefixes)
	return out
}

// NewKey generates a media key for an upload owned by ownerID under the
// given managed prefix. The original file name contributes only its
// extension; the rest of the name is a nanosecond timestamp plus a random
// fragment.
func NewKey(prefix, ownerID, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString()[:8], ext)
	return prefix + "/" + ownerID + "/" + name
}

// HasManagedPrefix reports whether key falls under one of the managed
// prefixes. Values that do not match (for example externally-hosted URLs
// stored in a reference field) are outside the engine's authority.
func HasManagedPrefix(key string) bool {
	return PrefixOf(key) != ""
}

// PrefixOf returns the managed prefix that key belongs to, or "" if the key
// is not managed. A key must have at least one path element below the
// prefix to match; the prefix itself is not a key.
func PrefixOf(key string) string {
	for _, p := range managedPrefixes {
		if strings.HasPrefix(key, p+"/") && len(key) > len(p)+1 {
			return p
		}
	}
	return ""
}

// OwnerOf extracts the owner ID segment from a managed key.
// Returns "" if the key is not managed or malformed.
func OwnerOf(key string) string {
	prefix := PrefixOf(key)
	if prefix == "" {
		return ""
	}
	rest := key[len(prefix)+1:]
	idx := strings.Index(rest, "/")
	if idx <= 0 {
		return ""
	}
	return rest[:idx]
}
