package normalize

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

// ReadDataset loads a CSV or XLSX dataset (chosen by extension). A missing
// file yields ErrInputNotFound; anything else a *ProcessingError.
func ReadDataset(path string, delimiter rune) (Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Dataset{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return Dataset{}, stageErr("read", err)
	}

	var (
		rows [][]string
		err  error
	)
	if isXLSX(path) {
		rows, err = readXLSXRows(path)
	} else {
		rows, err = readCSVRows(path, delimiter)
	}
	if err != nil {
		return Dataset{}, stageErr("read", err)
	}
	if len(rows) == 0 {
		return Dataset{}, stageErr("read", fmt.Errorf("%s: missing header row", path))
	}
	if line := firstInvalidRow(rows); line > 0 {
		return Dataset{}, stageErr("read", fmt.Errorf("%s: row %d: invalid UTF-8", path, line))
	}

	header := make([]string, 0, len(rows[0]))
	for i, col := range rows[0] {
		if i == 0 {
			col = strings.TrimPrefix(col, utf8BOM)
		}
		header = append(header, strings.TrimSpace(col))
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return Dataset{}, stageErr("read", fmt.Errorf("%s: missing required columns: %s", path, strings.Join(missing, ", ")))
	}

	ds := Dataset{Header: header, Records: make([]Record, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		ds.Records = append(ds.Records, recordFromRow(header, row))
	}
	return ds, nil
}

// firstInvalidRow returns the 1-based row holding a cell that is not valid
// UTF-8, or 0 when every cell is.
func firstInvalidRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if !utf8.ValidString(cell) {
				return i + 1
			}
		}
	}
	return 0
}

func readCSVRows(path string, delimiter rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = delimiterOrComma(delimiter)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	// leading blank rows before the header are skipped
	for len(rows) > 0 && isBlankRow(rows[0]) {
		rows = rows[1:]
	}
	return rows, nil
}

// WriteDataset writes header and records to path through a temporary file in
// the same directory, renamed into place only after a successful flush.
func WriteDataset(path string, header []string, records []Record, delimiter rune) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return stageErr("write", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return stageErr("write", err)
	}
	tmpPath := tmp.Name()

	if isXLSX(path) {
		err = writeXLSX(tmp, header, records)
	} else {
		err = writeCSV(tmp, header, records, delimiter)
	}
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return stageErr("write", err)
	}
	return nil
}

func writeCSV(w io.Writer, header []string, records []Record, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiterOrComma(delimiter)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rowFromRecord(header, rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, header []string, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, rec := range records {
		for c, value := range rowFromRecord(header, rec) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func isXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

func delimiterOrComma(d rune) rune {
	if d == 0 {
		return ','
	}
	return d
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
