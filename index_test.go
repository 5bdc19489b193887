package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestIsAlreadyExists(t *testing.T) {
	require.False(t, IsAlreadyExists(nil))
	require.True(t, IsAlreadyExists(&mysql.MySQLError{Number: 1061, Message: "Duplicate key name 'idx_order_items_price'"}))
	require.True(t, IsAlreadyExists(fmt.Errorf("exec: %w", &pq.Error{Code: "42P07", Message: "relation already exists"})))
	require.True(t, IsAlreadyExists(errors.New("index idx_order_items_price already exists")))
	require.True(t, IsAlreadyExists(errors.New("ERROR 1061 (42000) at line 1: Duplicate key name 'idx_reviews_score'")))
	require.False(t, IsAlreadyExists(errors.New("no such table: order_items")))
	require.False(t, IsAlreadyExists(&mysql.MySQLError{Number: 1146, Message: "Table 'ecommerce_db.x' doesn't exist"}))
}

func TestCreateIndexesTwice(t *testing.T) {
	instance := loadSynthetic(t)
	ctx := context.Background()
	indexes := instance.Dialect().IndexStatements()

	first := CreateIndexes(ctx, instance, indexes)
	require.Len(t, first, len(indexes))
	require.Equal(t, len(indexes), countIndexStatus(first, IndexCreated))

	second := CreateIndexes(ctx, instance, indexes)
	require.Equal(t, len(indexes), countIndexStatus(second, IndexExists))
	for _, outcome := range second {
		require.Nil(t, outcome.Err)
	}
	require.Equal(t, fmt.Sprintf("0 created, %v existed, 0 failed", len(indexes)), summarizeIndexes(second))
}

func TestCreateIndexesContinuesAfterFailure(t *testing.T) {
	instance := loadSynthetic(t)
	indexes := []IndexStatement{
		{"CREATE INDEX idx_missing ON missing_table(price)", "Index on a missing table"},
		{"CREATE INDEX idx_order_items_price ON order_items(price)", "Index on order_items.price"},
	}

	outcomes := CreateIndexes(context.Background(), instance, indexes)
	require.Equal(t, IndexFailed, outcomes[0].Status)
	require.NotNil(t, outcomes[0].Err)
	require.Equal(t, IndexCreated, outcomes[1].Status)

	var out bytes.Buffer
	RenderIndexOutcomes(&out, outcomes)
	require.Contains(t, out.String(), "Index on a missing table")
	require.Contains(t, out.String(), "missing_table")
}

func TestIndexStatements(t *testing.T) {
	require.Len(t, DialectMysql.IndexStatements(), 5)
	require.Len(t, DialectSqlite.IndexStatements(), 6)
	postgres := DialectPostgres.IndexStatements()
	require.Len(t, postgres, 6)
	require.Contains(t, postgres[5].Statement, "USING GIN")
	require.Equal(t, "CREATE INDEX idx_order_items_price ON order_items(price)", DialectMysql.IndexStatements()[0].Statement)
}
