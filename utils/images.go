package utils

import "strings"

// ImageMarker prefixes every inline image payload (data URLs).
const ImageMarker = "data:image"

func IsEncodedImage(payload string) bool {
	return strings.HasPrefix(payload, ImageMarker)
}
