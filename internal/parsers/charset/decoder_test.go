package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Encoding
	}{
		{"plain ascii", []byte("hello"), EncodingUTF8},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...), EncodingUTF8},
		{"valid utf8 multibyte", []byte("café"), EncodingUTF8},
		{"invalid utf8", []byte{'k', 'i', 'd', 0x92, 's'}, EncodingWindows1252},
		{"empty", nil, EncodingUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEncoding(tt.data))
		})
	}
}

func TestDecodeStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Description,Qty")...)

	out, err := Decode(data, EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, "Description,Qty", out)
}

func TestDecodeWindows1252(t *testing.T) {
	out, err := Decode([]byte{'k', 'i', 'd', 0x92, 's'}, EncodingWindows1252)
	require.NoError(t, err)
	assert.Equal(t, "kid’s", out)
}

func TestDecodeISO88591(t *testing.T) {
	// 0xE9 is e-acute in both Latin-1 and Windows-1252.
	out, err := Decode([]byte{'c', 'a', 'f', 0xE9}, EncodingISO88591)
	require.NoError(t, err)
	assert.Equal(t, "café", out)
}

func TestDecodeMislabeledUTF8Passthrough(t *testing.T) {
	// Valid UTF-8 is never re-decoded, whatever the label says.
	out, err := Decode([]byte("café"), EncodingWindows1252)
	require.NoError(t, err)
	assert.Equal(t, "café", out)
}

func TestDecodeAuto(t *testing.T) {
	out, err := DecodeAuto([]byte{'n', 'a', 0xEF, 'v', 'e'})
	require.NoError(t, err)
	assert.Equal(t, "naïve", out)
}
