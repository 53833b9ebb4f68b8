package media

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how many leading bytes are inspected to detect the content type.
const sniffLen = 3072

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// detectImage reads the head of r, detects its type from content and returns a
// reader that replays the consumed bytes.
func detectImage(r io.Reader) (mimeType, ext string, replay io.Reader, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", "", nil, fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", "", nil, errEmptyUpload
	}

	detected := mimetype.Detect(head)
	mediaType := strings.ToLower(detected.String())
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	ext, ok := allowedImageTypes[mediaType]
	if !ok {
		return mediaType, "", nil, errUnsupportedType
	}
	return mediaType, ext, io.MultiReader(bytes.NewReader(head), r), nil
}
