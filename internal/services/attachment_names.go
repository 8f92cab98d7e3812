package services

import (
	"path/filepath"
	"strings"
)

// forbidden in display names; the dot is dropped too so the extension stays fixed
const forbiddenNameChars = `\/:*?"<>|.`

// RenameDisplayName applies a requested name to an attachment. The extension of
// current always wins: a repeated extension in requested is ignored and any
// other dots are removed. It reports false when nothing usable is left.
func RenameDisplayName(current, requested string) (string, bool) {
	ext := filepath.Ext(current)

	base := strings.TrimSpace(requested)
	if ext != "" && strings.HasSuffix(strings.ToLower(base), strings.ToLower(ext)) {
		base = base[:len(base)-len(ext)]
	}
	base = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(forbiddenNameChars, r) {
			return -1
		}
		return r
	}, base))

	if base == "" {
		return "", false
	}
	return base + ext, true
}
