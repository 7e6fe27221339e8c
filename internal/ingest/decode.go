// Package ingest turns externally supplied delimited text files into
// validated product records. Files arrive with unknown text encoding and
// human-authored column headers, so every stage is tolerant:
// encoding falls back from strict UTF-8 to GBK, headers are matched
// fuzzily against a synonym table, and numeric cells are sanitized rather
// than rejected.
package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// FormatError reports a decoded file that cannot be a table: no header
// row, or a header with no data rows.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("table format: %s", e.Reason)
}

// DecodeError reports bytes unreadable in either supported encoding.
// The GBK fallback substitutes replacement characters instead of failing,
// so in practice this is unreachable; it exists so the fallback path has a
// typed failure if the decoder ever returns one.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode file: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeTable decodes a delimited text file into rows of raw field strings.
//
// The bytes are decoded as strict UTF-8; on any invalid sequence the whole
// file is re-decoded as GBK (the catalog content is Chinese-language and
// legacy exports use it). Rows split on \r\n or \n, rows empty after
// trimming are discarded, and fewer than two remaining rows is a
// *FormatError.
func DecodeTable(data []byte) ([][]string, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, SplitLine(line))
	}

	if len(rows) < 2 {
		return nil, &FormatError{Reason: "need a header row and at least one data row"}
	}
	return rows, nil
}

// decodeText returns the file content as UTF-8 text.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// SplitLine splits one line into fields using the minimal CSV dialect the
// export side also writes: a double quote toggles quoting and is consumed,
// a comma separates fields only outside quotes, everything else is
// appended verbatim. Each field is trimmed after splitting.
//
// Known limitation: escaped quotes ("") inside a quoted field are not
// supported, so a value containing a literal double quote or an embedded
// newline does not round-trip. The export format depends on the same
// simplified quoting, so this is preserved rather than fixed.
func SplitLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}
