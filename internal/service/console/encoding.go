package console

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingISO88591    = "iso-8859-1"
	EncodingWindows1252 = "windows-1252"
)

// DefaultEncodings is the fixed fallback order: UTF-8, then Latin-1.
var DefaultEncodings = []string{EncodingUTF8, EncodingISO88591}

var charmaps = map[string]encoding.Encoding{
	EncodingISO88591:    charmap.ISO8859_1,
	EncodingWindows1252: charmap.Windows1252,
}

// ParseEncodings validates a configured encoding list. Aliases such as
// "latin1" and "cp1252" are accepted; order is kept, duplicates dropped.
func ParseEncodings(names []string) ([]string, error) {
	if len(names) == 0 {
		return append([]string(nil), DefaultEncodings...), nil
	}

	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		enc, err := canonicalEncoding(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[enc]; dup {
			continue
		}
		seen[enc] = struct{}{}
		out = append(out, enc)
	}
	return out, nil
}

func canonicalEncoding(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return EncodingISO88591, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", name)
	}
}

// decode converts data to UTF-8. ok is false when data is not valid in enc.
func decode(data []byte, enc string) (string, bool) {
	if enc == EncodingUTF8 {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	}

	cm, found := charmaps[enc]
	if !found {
		return "", false
	}
	out, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeFile tries every encoding on the whole file, in order. When none fits,
// the file is decoded line by line with the first encoding and undecodable
// lines are dropped; an undecodable header makes the file unusable.
func decodeFile(data []byte, encodings []string) (text, used string, droppedLines int, ok bool) {
	for _, enc := range encodings {
		if text, ok = decode(data, enc); ok {
			return text, enc, 0, true
		}
	}
	if len(encodings) == 0 {
		return "", "", 0, false
	}

	primary := encodings[0]
	lines := bytes.SplitAfter(data, []byte("\n"))
	var sb strings.Builder
	for i, line := range lines {
		decoded, lineOK := decode(line, primary)
		if !lineOK {
			if i == 0 {
				return "", "", 0, false
			}
			droppedLines++
			continue
		}
		sb.WriteString(decoded)
	}

	return sb.String(), primary, droppedLines, true
}
