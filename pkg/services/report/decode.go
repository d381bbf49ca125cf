package report

import (
	"bytes"
	"compress/gzip"
	"io"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Decode turns a report payload into text. Gzip payloads are inflated; anything else,
// including a gzip stream that fails to inflate, is returned as-is so the caller can
// still see what the upstream sent.
func Decode(payload []byte) string {
	if !bytes.HasPrefix(payload, gzipMagic) {
		return string(payload)
	}

	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return string(payload)
	}
	defer zr.Close()

	text, err := io.ReadAll(zr)
	if err != nil {
		return string(payload)
	}
	return string(text)
}

// DecodeString covers transports that already handed the payload over as a string.
func DecodeString(payload string) string {
	return Decode([]byte(payload))
}
