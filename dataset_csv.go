package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var ErrDatasetMissing = errors.New("dataset files missing")

// CsvFiles maps every table to its file in the Olist Kaggle archive.
var CsvFiles = map[string]string{
	"product_category_name_translation": "product_category_name_translation.csv",
	"customers":                         "olist_customers_dataset.csv",
	"sellers":                           "olist_sellers_dataset.csv",
	"products":                          "olist_products_dataset.csv",
	"orders":                            "olist_orders_dataset.csv",
	"order_items":                       "olist_order_items_dataset.csv",
	"order_payments":                    "olist_order_payments_dataset.csv",
	"order_reviews":                     "olist_order_reviews_dataset.csv",
	"geolocation":                       "olist_geolocation_dataset.csv",
}

type DatasetCsv struct {
	Dir string
}

func (d *DatasetCsv) Name() string { return "olist-csv" }

// Missing returns the expected file names absent from Dir.
func (d *DatasetCsv) Missing() []string {
	missing := make([]string, 0)
	for _, table := range Tables {
		file := CsvFiles[table.Name]
		if _, err := os.Stat(filepath.Join(d.Dir, file)); err != nil {
			missing = append(missing, file)
		}
	}
	return missing
}

func (d *DatasetCsv) Load(ctx context.Context, instance Instance) error {
	if missing := d.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %v in %v", ErrDatasetMissing, strings.Join(missing, ", "), d.Dir)
	}
	if err := CreateSchema(ctx, instance); err != nil {
		return err
	}
	for _, table := range Tables {
		file := filepath.Join(d.Dir, CsvFiles[table.Name])
		loaded, err := d.loadFile(ctx, instance, table, file)
		if err != nil {
			return fmt.Errorf("load %v: %w", file, err)
		}
		Logger.Infof("loaded %v rows from %v into %v", loaded, file, table.Name)
	}
	return nil
}

func (d *DatasetCsv) loadFile(ctx context.Context, instance Instance, table Table, file string) (int, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	columns, err := csvColumns(table, header)
	if err != nil {
		return 0, err
	}
	keys := make([]int, 0, len(table.PrimaryKey))
	for _, key := range table.PrimaryKey {
		keys = append(keys, slices.Index(columns, key))
	}

	seen := make(map[string]struct{})
	batch := make([][]any, 0, insertBatchSize)
	loaded, duplicates := 0, 0
	flush := func() error {
		if err := insertChunk(ctx, instance, table.Name, columns, batch); err != nil {
			return fmt.Errorf("insert rows %v-%v: %w", loaded, loaded+len(batch), err)
		}
		loaded += len(batch)
		batch = batch[:0]
		return nil
	}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return loaded, err
		}
		if key, ok := primaryKey(record, keys); ok {
			if _, dup := seen[key]; dup {
				duplicates++
				continue
			}
			seen[key] = struct{}{}
		}
		batch = append(batch, csvRow(record))
		if len(batch) == insertBatchSize {
			if err := flush(); err != nil {
				return loaded, err
			}
		}
	}
	if err := flush(); err != nil {
		return loaded, err
	}
	if duplicates > 0 {
		Logger.Warnf("skipped %v rows with duplicate primary key in %v", duplicates, file)
	}
	return loaded, nil
}

// csvColumns checks that the header only names columns of table. The header
// order is kept, so the file may list columns in any order.
func csvColumns(table Table, header []string) ([]string, error) {
	known := table.ColumnNames()
	columns := make([]string, 0, len(header))
	for _, name := range header {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("unknown column '%v' for table %v", name, table.Name)
		}
		columns = append(columns, name)
	}
	for _, key := range table.PrimaryKey {
		if !slices.Contains(columns, key) {
			return nil, fmt.Errorf("primary key column '%v' missing for table %v", key, table.Name)
		}
	}
	return columns, nil
}

func primaryKey(record []string, keys []int) (string, bool) {
	if len(keys) == 0 {
		return "", false
	}
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = record[key]
	}
	return strings.Join(parts, "\x00"), true
}

func csvRow(record []string) []any {
	row := make([]any, len(record))
	for i, value := range record {
		if value == "" {
			row[i] = nil
		} else {
			row[i] = value
		}
	}
	return row
}
