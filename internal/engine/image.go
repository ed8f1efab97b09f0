package engine

import "strings"

const shortIDLength = 12

// NormalizeImage turns an engine image reference into something readable in an alert.
// Digest suffixes are dropped ("nginx:1.27@sha256:..." becomes "nginx:1.27") and a bare
// image ID, which the engine reports once the original tag is gone, is shortened to
// the 12-character form the docker CLI prints.
func NormalizeImage(image string) string {
	if idx := strings.Index(image, "@sha256:"); idx != -1 {
		return image[:idx]
	}
	if id, ok := strings.CutPrefix(image, "sha256:"); ok {
		return shortID(id)
	}
	return image
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}
