package main

import (
	"context"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type RunnerSqlite struct{}

func (r *RunnerSqlite) Name() string { return "sqlite3" }
func (r *RunnerSqlite) Init(ctx context.Context, config Config) (Instance, error) {
	dsn := config.Dsn
	if dsn == "" {
		dsn = fmt.Sprintf("file:%v?_foreign_keys=off", config.DbPath)
	}
	return openSql(ctx, r.Name(), DialectSqlite, "sqlite3", dsn)
}
