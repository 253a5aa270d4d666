package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadTables reads the metadata and availability tables and joins them.
// Each path may point at a .csv or .xlsx file.
func LoadTables(metadataPath, availabilityPath string) (*Tables, error) {
	metaRows, err := readRows(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("metadata table: %w", err)
	}
	availRows, err := readRows(availabilityPath)
	if err != nil {
		return nil, fmt.Errorf("availability table: %w", err)
	}

	records, err := parseMetadataRows(metaRows)
	if err != nil {
		return nil, err
	}
	rows, err := parseAvailabilityRows(availRows)
	if err != nil {
		return nil, err
	}
	return NewTables(records, rows), nil
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported table format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows tolerated, parse handles width
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

// readXLSX reads the first sheet of a workbook.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
