package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

var delimiters = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the candidate occurring most often in the header line.
func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		line = text[:i]
	}
	best, bestN := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func readDelimited(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// readXLSX returns the rows of the first sheet.
func readXLSX(b []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// readRecords turns raw bytes into a header plus rows, reporting the text
// encoding used ("xlsx" for workbooks).
func readRecords(name string, r io.Reader) (header []string, rows [][]string, enc string, err error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, "", err
	}
	var recs [][]string
	if bytes.HasPrefix(b, zipMagic) || strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		recs, err = readXLSX(b)
		enc = "xlsx"
	} else {
		var text string
		text, enc, err = decodeText(b)
		if err != nil {
			return nil, nil, "", err
		}
		recs, err = readDelimited(text)
	}
	if err != nil {
		return nil, nil, "", err
	}
	if len(recs) == 0 || blank(recs[0]) {
		return nil, nil, "", ErrEmptySource
	}
	return recs[0], recs[1:], enc, nil
}
