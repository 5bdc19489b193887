package main

import (
	"fmt"
	"strings"
)

var queriesScalar = []Query{
	{Name: "Price filter > 100", Query: `SELECT * FROM order_items WHERE price > 100`},
	{Name: "Price range 50-200", Query: `SELECT * FROM order_items WHERE price BETWEEN 50 AND 200`},
	{Name: "Order total > 500", Query: `SELECT order_id, SUM(price) AS total FROM order_items GROUP BY order_id HAVING SUM(price) > 500`},
	{Name: "Orders after 2018-01-01", Query: `SELECT * FROM orders WHERE order_purchase_timestamp >= '2018-01-01'`},
	{Name: "Count freight > 20", Query: `SELECT COUNT(*) FROM order_items WHERE freight_value > 20`},
	{Name: "Average price < 1000", Query: `SELECT AVG(price) FROM order_items WHERE price < 1000`},
}

// textSearch describes one text query independently of the engine syntax.
type textSearch struct {
	name    string
	terms   []string
	boolean bool
	grouped bool
}

var searchesText = []textSearch{
	{name: "Search for 'produto'", terms: []string{"produto"}},
	{name: "Search for 'entrega'", terms: []string{"entrega"}},
	{name: "Boolean search 'qualidade excelente'", terms: []string{"qualidade", "excelente"}, boolean: true},
	{name: "Boolean search '+entrega +rápida'", terms: []string{"+entrega", "+rápida"}, boolean: true},
	{name: "Search 'recomendo' grouped by score", terms: []string{"recomendo"}, grouped: true},
}

const reviewsFulltext = `to_tsvector('simple', coalesce(review_comment_title, '') || ' ' || coalesce(review_comment_message, ''))`

func (d Dialect) ScalarQueries() []Query {
	queries := make([]Query, len(queriesScalar))
	for i, query := range queriesScalar {
		query.Kind = QueryScalar
		queries[i] = query
	}
	return queries
}

func (d Dialect) TextQueries() []Query {
	queries := make([]Query, 0, len(searchesText))
	for _, search := range searchesText {
		queries = append(queries, Query{Name: search.name, Query: d.textQuery(search), Kind: QueryText})
	}
	return queries
}

func (d Dialect) Suite() []Query {
	return append(d.ScalarQueries(), d.TextQueries()...)
}

func (d Dialect) textQuery(search textSearch) string {
	selection, grouping := "*", ""
	if search.grouped {
		selection, grouping = "review_score, COUNT(*)", " GROUP BY review_score"
	}
	return fmt.Sprintf("SELECT %v FROM order_reviews WHERE %v%v", selection, d.textPredicate(search), grouping)
}

func (d Dialect) textPredicate(search textSearch) string {
	switch d {
	case DialectMysql:
		against := strings.Join(search.terms, " ")
		if search.boolean {
			return fmt.Sprintf("MATCH(review_comment_title, review_comment_message) AGAINST('%v' IN BOOLEAN MODE)", against)
		}
		return fmt.Sprintf("MATCH(review_comment_title, review_comment_message) AGAINST('%v')", against)
	case DialectPostgres:
		// without explicit '+' operators boolean mode is an OR of the terms
		operator := " & "
		if search.boolean && !strings.HasPrefix(search.terms[0], "+") {
			operator = " | "
		}
		terms := make([]string, len(search.terms))
		for i, term := range search.terms {
			terms[i] = strings.TrimPrefix(term, "+")
		}
		return fmt.Sprintf("%v @@ to_tsquery('simple', '%v')", reviewsFulltext, strings.Join(terms, operator))
	default:
		predicates := make([]string, len(search.terms))
		for i, term := range search.terms {
			predicates[i] = fmt.Sprintf("review_comment_message LIKE '%%%v%%'", strings.TrimPrefix(term, "+"))
		}
		return strings.Join(predicates, " AND ")
	}
}

type IndexStatement struct {
	Statement   string
	Description string
}

var indexesCommon = []IndexStatement{
	{"CREATE INDEX idx_order_items_price ON order_items(price)", "Index on order_items.price"},
	{"CREATE INDEX idx_order_items_freight ON order_items(freight_value)", "Index on order_items.freight_value"},
	{"CREATE INDEX idx_orders_purchase_timestamp ON orders(order_purchase_timestamp)", "Index on orders.order_purchase_timestamp"},
	{"CREATE INDEX idx_order_items_order_price ON order_items(order_id, price)", "Composite index on order_id, price"},
	{"CREATE INDEX idx_reviews_score ON order_reviews(review_score)", "Index on order_reviews.review_score"},
}

func (d Dialect) IndexStatements() []IndexStatement {
	statements := append([]IndexStatement{}, indexesCommon...)
	switch d {
	case DialectSqlite:
		statements = append(statements, IndexStatement{
			"CREATE INDEX idx_reviews_message ON order_reviews(review_comment_message)",
			"Index on review_comment_message",
		})
	case DialectPostgres:
		statements = append(statements, IndexStatement{
			fmt.Sprintf("CREATE INDEX idx_reviews_fulltext ON order_reviews USING GIN (%v)", reviewsFulltext),
			"Full-text index on review title and message",
		})
	}
	return statements
}
