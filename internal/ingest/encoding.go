package ingest

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names reported in Result.Encoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingWindows1254 = "windows-1254"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decode converts raw export bytes to UTF-8 text. Byte order marks select
// UTF-8 or UTF-16; anything else that is not valid UTF-8 is read as
// Windows-1254, the code page Turkish-locale devices export with.
func decode(data []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), EncodingUTF8, nil
	case bytes.HasPrefix(data, bomUTF16LE):
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", "", fmt.Errorf("%w: decode utf-16le: %v", ErrParse, err)
		}
		return string(out), EncodingUTF16LE, nil
	case bytes.HasPrefix(data, bomUTF16BE):
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", "", fmt.Errorf("%w: decode utf-16be: %v", ErrParse, err)
		}
		return string(out), EncodingUTF16BE, nil
	case utf8.Valid(data):
		return string(data), EncodingUTF8, nil
	}

	out, err := charmap.Windows1254.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: decode windows-1254: %v", ErrParse, err)
	}
	return string(out), EncodingWindows1254, nil
}
