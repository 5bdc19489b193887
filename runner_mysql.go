package main

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
)

const mysqlErrDupKeyName = 1061

type RunnerMysql struct{}

func (r *RunnerMysql) Name() string { return "mysql" }
func (r *RunnerMysql) Init(ctx context.Context, config Config) (Instance, error) {
	return openSql(ctx, r.Name(), DialectMysql, "mysql", MysqlDsn(config))
}

func MysqlDsn(config Config) string {
	if config.Dsn != "" {
		return config.Dsn
	}
	dsn := mysql.NewConfig()
	dsn.User = config.User
	dsn.Passwd = config.Password
	dsn.Net = "tcp"
	dsn.Addr = config.Addr(3306)
	dsn.DBName = config.Database
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

func isMysqlDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDupKeyName
}
