package console

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ougirez/sisagua/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	resultSheet = "Resultado"
)

// ContentType returns the MIME type and file name for a download format.
func ContentType(format string) (mime, filename string, err error) {
	switch format {
	case "", FormatCSV:
		return "text/csv; charset=utf-8", "resultado.csv", nil
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "resultado.xlsx", nil
	default:
		return "", "", fmt.Errorf("unsupported format %q", format)
	}
}

func Encode(w io.Writer, format string, res *domain.QueryResult) error {
	switch format {
	case "", FormatCSV:
		return WriteCSV(w, res)
	case FormatXLSX:
		return WriteXLSX(w, res)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteCSV writes a comma-separated file with a header row.
func WriteCSV(w io.Writer, res *domain.QueryResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(res.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func WriteXLSX(w io.Writer, res *domain.QueryResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	// Стиль заголовков
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range res.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err = f.SetCellValue(resultSheet, cell, col); err != nil {
			return err
		}
		if err = f.SetCellStyle(resultSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range res.Rows {
		for i, v := range row {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err = f.SetCellStr(resultSheet, cell, v); err != nil {
				return err
			}
		}
	}

	for i := range res.Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(resultSheet, col, col, 20)
	}

	if _, err = f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
