package charset

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88591    Encoding = "iso-8859-1"
)

// DetectEncoding detects the encoding of a byte buffer. Supplier CSV exports
// are either UTF-8 or Windows-1252 (the Latin American Excel default).
func DetectEncoding(data []byte) Encoding {
	// UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return EncodingUTF8
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

// Decode converts a byte buffer from the given encoding to a UTF-8 string.
// Data that already validates as UTF-8 is returned as-is regardless of the
// requested encoding, which avoids double-decoding mislabeled files.
func Decode(data []byte, enc Encoding) (string, error) {
	// Strip UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

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

	reader := transform.NewReader(strings.NewReader(string(data)), cm.NewDecoder())
	result, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// ToUTF8Reader wraps a reader with a decoder converting to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) io.Reader {
	var decoder encoding.Encoding

	switch enc {
	case EncodingWindows1252:
		decoder = charmap.Windows1252
	case EncodingISO88591:
		decoder = charmap.ISO8859_1
	default:
		return r
	}

	return transform.NewReader(r, decoder.NewDecoder())
}
