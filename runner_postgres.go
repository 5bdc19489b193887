package main

import (
	"context"
	"errors"
	"net/url"

	"github.com/lib/pq"
)

// duplicate_table, raised for an index name that is already taken
const postgresDuplicateTable = "42P07"

type RunnerPostgres struct{}

func (r *RunnerPostgres) Name() string { return "postgres" }
func (r *RunnerPostgres) Init(ctx context.Context, config Config) (Instance, error) {
	return openSql(ctx, r.Name(), DialectPostgres, "postgres", PostgresDsn(config))
}

func PostgresDsn(config Config) string {
	if config.Dsn != "" {
		return config.Dsn
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(config.User, config.Password),
		Host:     config.Addr(5432),
		Path:     "/" + config.Database,
		RawQuery: url.Values{"sslmode": {config.SslMode}}.Encode(),
	}
	return dsn.String()
}

func isPostgresDuplicate(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == postgresDuplicateTable
}
