package vector

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Metadata keys set by the store.
const (
	MetaContentHash = "content_hash"
	MetaTitle       = "title"
)

// PrepareContent joins an optional title with the body text.
// Title is repeated for emphasis.
func PrepareContent(title, text string) string {
	var parts []string

	if title = strings.TrimSpace(title); title != "" {
		parts = append(parts, title, title) // Repeated for emphasis
	}
	if text = strings.TrimSpace(text); text != "" {
		parts = append(parts, text)
	}

	return strings.Join(parts, "\n\n")
}

// ContentHash generates SHA256 hash for cache invalidation.
func ContentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
