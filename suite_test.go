package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func queryByName(t *testing.T, queries []Query, name string) Query {
	for _, query := range queries {
		if query.Name == name {
			return query
		}
	}
	t.Fatalf("query %q not found", name)
	return Query{}
}

func TestSuiteLabels(t *testing.T) {
	for _, dialect := range []Dialect{DialectMysql, DialectPostgres, DialectSqlite} {
		suite := dialect.Suite()
		require.Len(t, suite, 11)
		names := make(map[string]bool)
		for _, query := range suite {
			require.False(t, names[query.Name], "duplicate label %v", query.Name)
			names[query.Name] = true
		}
		require.Len(t, dialect.ScalarQueries(), 6)
		require.Len(t, dialect.TextQueries(), 5)
	}
}

func TestTextQueries(t *testing.T) {
	mysql := DialectMysql.TextQueries()
	require.Equal(t,
		"SELECT * FROM order_reviews WHERE MATCH(review_comment_title, review_comment_message) AGAINST('+entrega +rápida' IN BOOLEAN MODE)",
		queryByName(t, mysql, "Boolean search '+entrega +rápida'").Query,
	)
	require.Equal(t,
		"SELECT review_score, COUNT(*) FROM order_reviews WHERE MATCH(review_comment_title, review_comment_message) AGAINST('recomendo') GROUP BY review_score",
		queryByName(t, mysql, "Search 'recomendo' grouped by score").Query,
	)

	postgres := DialectPostgres.TextQueries()
	require.Contains(t, queryByName(t, postgres, "Boolean search 'qualidade excelente'").Query, "to_tsquery('simple', 'qualidade | excelente')")
	require.Contains(t, queryByName(t, postgres, "Boolean search '+entrega +rápida'").Query, "to_tsquery('simple', 'entrega & rápida')")

	sqlite := DialectSqlite.TextQueries()
	require.Equal(t,
		"SELECT * FROM order_reviews WHERE review_comment_message LIKE '%entrega%' AND review_comment_message LIKE '%rápida%'",
		queryByName(t, sqlite, "Boolean search '+entrega +rápida'").Query,
	)
}

func TestIndexesKeepResults(t *testing.T) {
	instance := loadSynthetic(t)
	ctx := context.Background()
	query := queryByName(t, instance.Dialect().ScalarQueries(), "Price filter > 100")

	before, err := instance.Query(ctx, query.Query)
	require.Nil(t, err)
	require.Positive(t, before.Len())

	CreateIndexes(ctx, instance, instance.Dialect().IndexStatements())

	after, err := instance.Query(ctx, query.Query)
	require.Nil(t, err)
	require.ElementsMatch(t, before.Strings(), after.Strings())
}

func TestBooleanSearchSubset(t *testing.T) {
	instance := loadSynthetic(t)
	ctx := context.Background()
	queries := instance.Dialect().TextQueries()

	all, err := instance.Query(ctx, queryByName(t, queries, "Search for 'entrega'").Query)
	require.Nil(t, err)
	both, err := instance.Query(ctx, queryByName(t, queries, "Boolean search '+entrega +rápida'").Query)
	require.Nil(t, err)

	require.Positive(t, both.Len())
	require.LessOrEqual(t, both.Len(), all.Len())
	ids := make(map[any]bool)
	for _, row := range all.Values {
		ids[row[0]] = true
	}
	for _, row := range both.Values {
		require.True(t, ids[row[0]], "review %v", row[0])
	}
}

func TestExplainQuery(t *testing.T) {
	instance := loadSynthetic(t)
	query := queryByName(t, instance.Dialect().ScalarQueries(), "Price filter > 100")

	var out bytes.Buffer
	require.Nil(t, ExplainQuery(context.Background(), instance, query, &out))
	require.Contains(t, out.String(), "EXPLAIN for: Price filter > 100")
	require.Contains(t, out.String(), "order_items")

	err := ExplainQuery(context.Background(), instance, Query{Name: "broken", Query: "SELECT * FROM missing"}, &out)
	require.ErrorContains(t, err, "broken")
}
