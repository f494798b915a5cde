package utils

import (
	"fmt"
	"strings"
)

// SplitDataURI splits a "data:<mime>;base64,<data>" string into its content
// type and raw base64 payload. Bare base64 without a data-URI prefix is
// accepted and assumed to be JPEG.
func SplitDataURI(encoded string) (contentType, data string, err error) {
	if !strings.Contains(encoded, ",") {
		return "image/jpeg", encoded, nil
	}

	parts := strings.SplitN(encoded, ",", 2)
	meta := parts[0]
	data = parts[1]

	if !strings.HasPrefix(meta, "data:") {
		return "", "", fmt.Errorf("invalid data URI prefix %q", meta)
	}

	mediaType := strings.TrimPrefix(meta, "data:") // "image/jpeg;base64"
	contentType = strings.SplitN(mediaType, ";", 2)[0]
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return contentType, data, nil
}
