package main

import (
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// ExplainQuery prints the engine's plan for query to w.
func ExplainQuery(ctx context.Context, instance Instance, query Query, w io.Writer) error {
	rows, err := instance.Query(ctx, instance.Dialect().Explain(query.Query))
	if err != nil {
		return fmt.Errorf("explain %q: %w", query.Name, err)
	}
	fmt.Fprintf(w, "EXPLAIN for: %v\n%v\n", query.Name, query.Query)
	RenderRows(w, rows)
	fmt.Fprintln(w)
	return nil
}

func RenderRows(w io.Writer, rows Rows) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(rows.Columns)
	table.AppendBulk(rows.Strings())
	table.Render()
}
