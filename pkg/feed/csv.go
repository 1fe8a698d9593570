package feed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// CSVOptions controls CSV parsing. Zero values mean auto-detection.
type CSVOptions struct {
	Delimiter rune   // 0 = sniff from the header line
	Encoding  string // "", "utf-8", or "latin-1"
	MaxRows   int    // 0 = unlimited
}

// delimiter candidates for sniffing, in preference order.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// ParseCSV parses CSV bytes into records. The first line is the header;
// header names and cell values are whitespace-trimmed. Returns
// ErrMalformedFeed-wrapped errors for unparseable input.
func ParseCSV(data []byte, opts CSVOptions) ([]Record, error) {
	text, err := decode(data, opts.Encoding)
	if err != nil {
		return nil, err
	}
	text = strings.TrimPrefix(text, "\uFEFF") // UTF-8 BOM

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: CSV is empty", ErrMalformedFeed)
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = sniffDelimiter(text)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // header/row width mismatches handled below
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", ErrMalformedFeed, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []Record
	row := firstDataRow
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: CSV row %d: %v", ErrMalformedFeed, row, err)
		}

		values := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(fields) {
				values[name] = strings.TrimSpace(fields[i])
			} else {
				values[name] = ""
			}
		}
		records = append(records, Record{Row: row, Values: values})
		row++

		if opts.MaxRows > 0 && len(records) > opts.MaxRows {
			return nil, fmt.Errorf("%w: feed exceeds %d rows", ErrMalformedFeed, opts.MaxRows)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: CSV has a header but no data rows", ErrMalformedFeed)
	}
	return records, nil
}

// sniffDelimiter picks the candidate that splits the header into the most
// fields. Ties go to the earlier candidate, so comma wins by default.
func sniffDelimiter(text string) rune {
	headerLine := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		headerLine = text[:idx]
	}

	best := delimiterCandidates[0]
	bestCount := 0
	for _, candidate := range delimiterCandidates {
		count := strings.Count(headerLine, string(candidate))
		if count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}

// decode converts raw upload bytes to a UTF-8 string.
func decode(data []byte, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		if !utf8.Valid(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))) {
			return "", fmt.Errorf("%w: upload is not valid UTF-8 (pass encoding=latin-1 for legacy exports)", ErrMalformedFeed)
		}
		return string(data), nil
	case "latin-1", "latin1", "iso-8859-1":
		// Latin-1 maps each byte to the code point of the same value.
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		return string(runes), nil
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", ErrMalformedFeed, encoding)
	}
}
