package main

import (
	"context"
	"fmt"
)

const insertBatchSize = 1000

// InsertRows writes rows with multi-row INSERT statements of insertBatchSize
// rows each. A failing batch aborts the load; earlier batches stay committed.
func InsertRows(ctx context.Context, instance Instance, table string, columns []string, rows [][]any) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		chunk := rows[start:min(start+insertBatchSize, len(rows))]
		if err := insertChunk(ctx, instance, table, columns, chunk); err != nil {
			return fmt.Errorf("insert into %v rows %v-%v: %w", table, start, start+len(chunk), err)
		}
		Logger.Debugf("inserted %v/%v rows into %v", start+len(chunk), len(rows), table)
	}
	return nil
}

func insertChunk(ctx context.Context, instance Instance, table string, columns []string, chunk [][]any) error {
	if len(chunk) == 0 {
		return nil
	}
	args := make([]any, 0, len(chunk)*len(columns))
	for _, row := range chunk {
		if len(row) != len(columns) {
			return fmt.Errorf("row has %v values for %v columns", len(row), len(columns))
		}
		args = append(args, row...)
	}
	statement := instance.Dialect().InsertStatement(table, columns, len(chunk))
	return instance.Exec(ctx, statement, args...)
}

// DatasetFor picks the provisioner for the configured mode; nil means the
// schema is expected to be provisioned already.
func DatasetFor(config Config) Dataset {
	switch config.Provision {
	case ProvisionSynthetic:
		return &DatasetSynthetic{Seed: config.Seed}
	case ProvisionCsv:
		return &DatasetCsv{Dir: config.DataDir}
	case ProvisionAuto:
		csv := &DatasetCsv{Dir: config.DataDir}
		if missing := csv.Missing(); len(missing) > 0 {
			Logger.Warnf("%v csv files missing in %v (%v), fallback to synthetic data", len(missing), config.DataDir, missing)
			return &DatasetSynthetic{Seed: config.Seed}
		}
		return csv
	}
	return nil
}
