package main

import (
	"context"
	"database/sql"
	"fmt"
)

// InstanceSql is the driver-backed Instance shared by the mysql, postgres and
// sqlite runners.
type InstanceSql struct {
	name    string
	dialect Dialect
	db      *sql.DB
}

func NewInstanceSql(name string, dialect Dialect, db *sql.DB) *InstanceSql {
	// one connection reused serially
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &InstanceSql{name: name, dialect: dialect, db: db}
}

func (i *InstanceSql) Name() string     { return i.name }
func (i *InstanceSql) Dialect() Dialect { return i.dialect }
func (i *InstanceSql) Close() error     { return i.db.Close() }

func (i *InstanceSql) Exec(ctx context.Context, statement string, args ...any) error {
	_, err := i.db.ExecContext(ctx, statement, args...)
	return err
}

func (i *InstanceSql) Query(ctx context.Context, query string) (Rows, error) {
	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return Rows{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Rows{}, err
	}
	result := Rows{Columns: columns, Values: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for j := range values {
			pointers[j] = &values[j]
		}
		if err := rows.Scan(pointers...); err != nil {
			return Rows{}, fmt.Errorf("scan row #%v: %w", len(result.Values), err)
		}
		for j, value := range values {
			// drivers reuse byte buffers between rows
			if b, ok := value.([]byte); ok {
				values[j] = string(b)
			}
		}
		result.Values = append(result.Values, values)
	}
	if err := rows.Err(); err != nil {
		return Rows{}, err
	}
	return result, nil
}

func openSql(ctx context.Context, name string, dialect Dialect, driver string, dsn string) (*InstanceSql, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to reach %v: %w", name, err)
	}
	Logger.Infof("connected to %v", name)
	return NewInstanceSql(name, dialect, db), nil
}
