package main

import (
	"fmt"
	"strings"
)

type Dialect string

const (
	DialectMysql    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSqlite   Dialect = "sqlite"
)

func (d Dialect) Explain(query string) string {
	if d == DialectSqlite {
		return "EXPLAIN QUERY PLAN " + query
	}
	return "EXPLAIN " + query
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%v", n)
	}
	return "?"
}

// InsertStatement builds one multi-row INSERT for rows*len(columns) arguments.
func (d Dialect) InsertStatement(table string, columns []string, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %v (%v) VALUES ", table, strings.Join(columns, ", "))
	n := 1
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(n))
			n++
		}
		b.WriteString(")")
	}
	return b.String()
}
