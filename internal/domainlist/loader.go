// Package domainlist reads the list of domains to fetch logos for. The list
// is usually a parquet snapshot with a "domain" column; spreadsheets, CSV
// files and plain text files with one domain per line are accepted as well.
package domainlist

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"logogrouper/pkg/logger"
	"logogrouper/pkg/serrors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column is the name of the column holding domains in tabular inputs.
const Column = "domain"

// parquetBatch is the number of rows read from a parquet file at once.
const parquetBatch = 1024

// parquetRow projects the domain column out of a parquet file.
type parquetRow struct {
	Domain string `parquet:"domain"`
}

// Load reads the domain list in path. The format follows the file extension:
// ".parquet", ".xlsx", ".csv", and plain text for anything else.
//
// Every data row becomes an Entry, normalized with NormalizeDomain. Rows with
// an empty or invalid value are kept as rejected entries so they still count
// as failed domains. Blank lines and "#" comments of text files are not rows.
func Load(ctx context.Context, path string) (List, error) {
	var (
		raw []string
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		raw, err = readParquet(path)
	case ".xlsx":
		raw, err = readSpreadsheet(path)
	case ".csv":
		raw, err = readCSV(path)
	default:
		raw, err = readText(path)
	}
	if err != nil {
		return List{}, err
	}

	list := List{Entries: make([]Entry, 0, len(raw))}
	for _, value := range raw {
		entry := Entry{Raw: strings.TrimSpace(value)}
		entry.Domain, entry.Err = NormalizeDomain(value)
		if entry.Err != nil {
			logger.Warn(ctx, "rejecting domain list entry", zap.String("value", value), zap.Error(entry.Err))
		}
		list.Entries = append(list.Entries, entry)
	}

	rejected := list.Rejected()
	unique := len(list.Domains())
	logger.Info(ctx, "domain list loaded",
		zap.String("path", path),
		zap.Int("entries", len(list.Entries)),
		zap.Int("domains", unique),
		zap.Int("rejected", rejected),
		zap.Int("duplicates", len(list.Entries)-rejected-unique))

	return list, nil
}

func readParquet(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open domain list: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat domain list: %w", err)
	}
	file, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read parquet file")
	}
	if _, ok := file.Schema().Lookup(Column); !ok {
		return nil, serrors.With(serrors.ErrBadRequest, "parquet file has no %q column", Column)
	}

	reader := parquet.NewGenericReader[parquetRow](file)
	defer func() {
		_ = reader.Close()
	}()

	values := make([]string, 0, reader.NumRows())
	rows := make([]parquetRow, parquetBatch)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			values = append(values, row.Domain)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read parquet rows")
		}
	}

	return values, nil
}

func readSpreadsheet(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open domain list: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read sheet %s", sheets[0])
	}

	return columnValues(rows)
}

func readCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open domain list: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not parse csv")
	}

	return columnValues(rows)
}

// columnValues returns the Column values of rows, whose first row is a header.
func columnValues(rows [][]string) ([]string, error) {
	if len(rows) == 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "no header row")
	}
	idx := slices.IndexFunc(rows[0], func(h string) bool {
		return strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), Column)
	})
	if idx < 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "header has no %q column", Column)
	}

	values := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// short rows have an empty cell
		var value string
		if idx < len(row) {
			value = row[idx]
		}
		values = append(values, value)
	}

	return values, nil
}

func readText(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open domain list: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var values []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values = append(values, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read domain list: %w", err)
	}

	return values, nil
}
