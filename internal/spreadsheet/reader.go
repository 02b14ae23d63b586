// Package spreadsheet reads uploaded workbooks into ledger rows, keeping the
// column labels exactly as they appear in the header row.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"CashbookRecon/internal/ledger"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFile = errors.New("only .xlsx, .xls and .csv files are supported")
	ErrNoHeader        = errors.New("sheet has no header row")
)

// Supported reports whether filename has an extension Read understands.
func Supported(filename string) bool {
	switch Ext(filename) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return false
}

// Ext returns the lowercased extension of filename.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Read parses the first sheet of an uploaded file. The first non-empty row
// is the header; every later non-empty row becomes one RawRow whose missing
// cells are "".
func Read(filename string, data []byte) ([]ledger.RawRow, error) {
	var (
		grid [][]string
		err  error
	)
	switch Ext(filename) {
	case ".xlsx":
		grid, err = parseExcelFile(data)
	case ".xls":
		grid, err = parseXLSFile(data)
	case ".csv":
		grid, err = parseCSVFile(data)
	default:
		return nil, ErrUnsupportedFile
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(filename), err)
	}
	return rowsFromGrid(grid)
}

// ReadJSON decodes rows that were already parsed by the client, as a JSON
// array of objects. Key order is preserved.
func ReadJSON(data []byte) ([]ledger.RawRow, error) {
	var rows []ledger.RawRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

func parseExcelFile(data []byte) ([][]string, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer xl.Close()

	sheet := xl.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoHeader
	}
	return xl.GetRows(sheet)
}

// parseXLSFile reads legacy BIFF workbooks.
func parseXLSFile(data []byte) ([][]string, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if book.NumSheets() == 0 {
		return nil, ErrNoHeader
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoHeader
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		last := row.LastCol()
		vals := make([]string, last)
		for j := row.FirstCol(); j < last; j++ {
			vals[j] = row.Col(j)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func parseCSVFile(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rowsFromGrid(grid [][]string) ([]ledger.RawRow, error) {
	h := 0
	for h < len(grid) && isEmptyRow(grid[h]) {
		h++
	}
	if h == len(grid) {
		return nil, ErrNoHeader
	}
	header := headerLabels(grid[h])

	rows := make([]ledger.RawRow, 0, len(grid)-h-1)
	for _, rec := range grid[h+1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := make(ledger.RawRow, len(header))
		for j, label := range header {
			v := ""
			if j < len(rec) {
				v = rec[j]
			}
			row[j] = ledger.Cell{Label: label, Value: v}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// headerLabels keeps labels verbatim and names blank header cells
// __EMPTY, __EMPTY_1, ... so their values are not lost.
func headerLabels(rec []string) []string {
	// trailing blanks are not columns
	n := len(rec)
	for n > 0 && strings.TrimSpace(rec[n-1]) == "" {
		n--
	}
	labels := make([]string, n)
	blanks := 0
	for i := 0; i < n; i++ {
		if strings.TrimSpace(rec[i]) != "" {
			labels[i] = rec[i]
			continue
		}
		if blanks == 0 {
			labels[i] = "__EMPTY"
		} else {
			labels[i] = fmt.Sprintf("__EMPTY_%d", blanks)
		}
		blanks++
	}
	return labels
}
