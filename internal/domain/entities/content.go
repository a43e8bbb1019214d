package entities

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// binarySniffBytes is how much of a file is inspected for NUL bytes.
const binarySniffBytes = 1024

// LooksBinary reports whether the head of the content contains a NUL byte.
func LooksBinary(raw []byte) bool {
	head := raw
	if len(head) > binarySniffBytes {
		head = head[:binarySniffBytes]
	}
	return bytes.IndexByte(head, 0) >= 0
}

// DecodeText turns raw file bytes into text. A UTF-8 or UTF-16 byte order mark
// selects the encoding and is dropped; invalid sequences become U+FFFD instead
// of failing, which also covers a multi-byte character cut by the read cap.
func DecodeText(raw []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode content: %w", err)
	}
	return string(decoded), nil
}
