package main

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

type QueryKind string

const (
	QueryScalar QueryKind = "scalar"
	QueryText   QueryKind = "text"
)

type Query struct {
	Name  string
	Query string
	Kind  QueryKind
}

type Rows struct {
	Columns []string
	Values  [][]any
}

func (r Rows) Len() int { return len(r.Values) }

// Strings renders every cell the way plan and result tables print it.
func (r Rows) Strings() [][]string {
	lines := make([][]string, 0, len(r.Values))
	for _, row := range r.Values {
		line := make([]string, len(row))
		for i, value := range row {
			line[i] = FormatValue(value)
		}
		lines = append(lines, line)
	}
	return lines
}

func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.DateTime)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Dataset provisions the schema and its rows through an open instance.
type Dataset interface {
	Name() string
	Load(ctx context.Context, instance Instance) error
}

// Runner opens an Instance of one engine variant.
type Runner interface {
	Name() string
	Init(ctx context.Context, config Config) (Instance, error)
}

// Instance is the only code that talks to the engine. It is used serially.
type Instance interface {
	Name() string
	Dialect() Dialect
	Query(ctx context.Context, query string) (Rows, error)
	Exec(ctx context.Context, statement string, args ...any) error
	Close() error
}

func RunnerFor(engine string) (Runner, error) {
	switch engine {
	case "mysql":
		return &RunnerMysql{}, nil
	case "postgres":
		return &RunnerPostgres{}, nil
	case "docker":
		return &RunnerDocker{}, nil
	case "sqlite", "sqlite3":
		return &RunnerSqlite{}, nil
	}
	return nil, fmt.Errorf("unknown engine '%v'", engine)
}
