package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/ougirez/sisagua/internal/domain/dto"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MalformedRowError is a source line the CSV reader could not split into the header's columns.
type MalformedRowError struct {
	Line int
	Err  error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row: %v", e.Err)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

type rowReader struct {
	csv   *csv.Reader
	index map[string]int
}

func newRowReader(r io.Reader, delimiter rune) (*rowReader, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty input: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := dto.ValidateHeader(header)
	if err != nil {
		return nil, err
	}

	return &rowReader{csv: reader, index: index}, nil
}

// next returns io.EOF when the input is exhausted.
func (r *rowReader) next() (*dto.SourceRow, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &MalformedRowError{Line: pe.StartLine, Err: pe.Err}
		}
		return nil, err
	}

	line, _ := r.csv.FieldPos(0)
	return dto.NewSourceRow(line, r.index, record), nil
}
