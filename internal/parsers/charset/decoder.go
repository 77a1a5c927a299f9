// Package charset normalizes claim file bytes to UTF-8. Carrier exports
// arrive as UTF-8, Windows-1252 or ISO-8859-1; anything else is passed
// through unchanged.
package charset

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding represents a text encoding.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88591    Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding inspects a byte buffer. Valid UTF-8 wins outright;
// otherwise Windows-1252 is assumed, which is a superset of ISO-8859-1
// for the printable range carrier exports use.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) {
		return EncodingUTF8
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

// Decode converts a buffer to a UTF-8 string. Data that is already valid
// UTF-8 is returned directly regardless of the requested encoding, which
// prevents double-decoding when an upload is mislabeled.
func Decode(data []byte, enc Encoding) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if utf8.Valid(data) {
		return string(data), nil
	}

	var cm *charmap.Charmap
	switch enc {
	case EncodingISO88591:
		cm = charmap.ISO8859_1
	default:
		cm = charmap.Windows1252
	}

	out, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		return string(data), err
	}
	return string(out), nil
}

// DecodeAuto detects and decodes in one step.
func DecodeAuto(data []byte) (string, error) {
	return Decode(data, DetectEncoding(data))
}
