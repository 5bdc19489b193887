package main

import (
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

type TableCount struct {
	Table string
	Rows  string
	Err   error
}

type CheckResult struct {
	Engine  string
	Version string
	Tables  []TableCount
}

func (d Dialect) VersionQuery() string {
	switch d {
	case DialectPostgres:
		return "SELECT version()"
	case DialectSqlite:
		return "SELECT sqlite_version()"
	}
	return "SELECT VERSION()"
}

// Check verifies the instance answers queries and counts the rows of every
// schema table. Missing tables are reported per table and do not fail the
// check.
func Check(ctx context.Context, instance Instance) (CheckResult, error) {
	result := CheckResult{Engine: instance.Name()}
	version, err := instance.Query(ctx, instance.Dialect().VersionQuery())
	if err != nil {
		return result, fmt.Errorf("version query failed: %w", err)
	}
	if version.Len() == 0 || len(version.Values[0]) == 0 {
		return result, fmt.Errorf("version query returned no rows")
	}
	result.Version = FormatValue(version.Values[0][0])

	for _, table := range Tables {
		count := TableCount{Table: table.Name}
		rows, err := instance.Query(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %v", table.Name))
		switch {
		case err != nil:
			count.Err = err
			Logger.Warnf("unable to count rows of %v: %v", table.Name, err)
		case rows.Len() > 0:
			count.Rows = FormatValue(rows.Values[0][0])
		}
		result.Tables = append(result.Tables, count)
	}
	return result, nil
}

func (r CheckResult) Render(w io.Writer) {
	fmt.Fprintf(w, "Connected to %v, version %v\n", r.Engine, r.Version)
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Table", "Rows"})
	for _, count := range r.Tables {
		rows := count.Rows
		if count.Err != nil {
			rows = "missing"
		}
		table.Append([]string{count.Table, rows})
	}
	table.Render()
}
