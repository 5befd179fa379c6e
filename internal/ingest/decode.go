package ingest

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns b as UTF-8 text. Valid UTF-8 is used as is; anything
// else is decoded as ISO-8859-1.
func decodeText(b []byte) (string, string, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return string(b), EncodingUTF8, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", "", fmt.Errorf("not %s and not %s: %w", EncodingUTF8, EncodingLatin1, err)
	}
	return string(out), EncodingLatin1, nil
}
