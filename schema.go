package main

import (
	"context"
	"fmt"
	"strings"
)

type columnKind int

const (
	kindKey columnKind = iota
	kindText
	kindInt
	kindMoney
	kindFloat
	kindTimestamp
)

type Column struct {
	Name string
	Kind columnKind
}

type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

type ForeignKey struct {
	Column    string
	Reference string
}

// Tables lists the Olist schema in dependency order.
var Tables = []Table{
	{
		Name: "product_category_name_translation",
		Columns: []Column{
			{"product_category_name", kindKey},
			{"product_category_name_english", kindText},
		},
		PrimaryKey: []string{"product_category_name"},
	},
	{
		Name: "customers",
		Columns: []Column{
			{"customer_id", kindKey},
			{"customer_unique_id", kindKey},
			{"customer_zip_code_prefix", kindInt},
			{"customer_city", kindText},
			{"customer_state", kindText},
		},
		PrimaryKey: []string{"customer_id"},
	},
	{
		Name: "sellers",
		Columns: []Column{
			{"seller_id", kindKey},
			{"seller_zip_code_prefix", kindInt},
			{"seller_city", kindText},
			{"seller_state", kindText},
		},
		PrimaryKey: []string{"seller_id"},
	},
	{
		Name: "products",
		Columns: []Column{
			{"product_id", kindKey},
			{"product_category_name", kindKey},
			{"product_name_lenght", kindInt},
			{"product_description_lenght", kindInt},
			{"product_photos_qty", kindInt},
			{"product_weight_g", kindInt},
			{"product_length_cm", kindInt},
			{"product_height_cm", kindInt},
			{"product_width_cm", kindInt},
		},
		PrimaryKey: []string{"product_id"},
	},
	{
		Name: "orders",
		Columns: []Column{
			{"order_id", kindKey},
			{"customer_id", kindKey},
			{"order_status", kindText},
			{"order_purchase_timestamp", kindTimestamp},
			{"order_approved_at", kindTimestamp},
			{"order_delivered_carrier_date", kindTimestamp},
			{"order_delivered_customer_date", kindTimestamp},
			{"order_estimated_delivery_date", kindTimestamp},
		},
		PrimaryKey:  []string{"order_id"},
		ForeignKeys: []ForeignKey{{"customer_id", "customers"}},
	},
	{
		Name: "order_items",
		Columns: []Column{
			{"order_id", kindKey},
			{"order_item_id", kindInt},
			{"product_id", kindKey},
			{"seller_id", kindKey},
			{"shipping_limit_date", kindTimestamp},
			{"price", kindMoney},
			{"freight_value", kindMoney},
		},
		PrimaryKey: []string{"order_id", "order_item_id"},
		ForeignKeys: []ForeignKey{
			{"order_id", "orders"},
			{"product_id", "products"},
			{"seller_id", "sellers"},
		},
	},
	{
		Name: "order_payments",
		Columns: []Column{
			{"order_id", kindKey},
			{"payment_sequential", kindInt},
			{"payment_type", kindText},
			{"payment_installments", kindInt},
			{"payment_value", kindMoney},
		},
		PrimaryKey:  []string{"order_id", "payment_sequential"},
		ForeignKeys: []ForeignKey{{"order_id", "orders"}},
	},
	{
		Name: "order_reviews",
		Columns: []Column{
			{"review_id", kindKey},
			{"order_id", kindKey},
			{"review_score", kindInt},
			{"review_comment_title", kindText},
			{"review_comment_message", kindText},
			{"review_creation_date", kindTimestamp},
			{"review_answer_timestamp", kindTimestamp},
		},
		PrimaryKey:  []string{"review_id"},
		ForeignKeys: []ForeignKey{{"order_id", "orders"}},
	},
	{
		Name: "geolocation",
		Columns: []Column{
			{"geolocation_zip_code_prefix", kindInt},
			{"geolocation_lat", kindFloat},
			{"geolocation_lng", kindFloat},
			{"geolocation_city", kindText},
			{"geolocation_state", kindText},
		},
	},
}

func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, column := range t.Columns {
		names[i] = column.Name
	}
	return names
}

func (d Dialect) columnType(kind columnKind) string {
	switch d {
	case DialectMysql:
		return [...]string{"VARCHAR(64)", "TEXT", "INT", "DECIMAL(10,2)", "DOUBLE", "DATETIME"}[kind]
	case DialectPostgres:
		return [...]string{"VARCHAR(64)", "TEXT", "INTEGER", "NUMERIC(10,2)", "DOUBLE PRECISION", "TIMESTAMP"}[kind]
	default:
		return [...]string{"TEXT", "TEXT", "INTEGER", "REAL", "REAL", "TEXT"}[kind]
	}
}

func (d Dialect) CreateTable(table Table) string {
	lines := make([]string, 0, len(table.Columns)+len(table.ForeignKeys)+2)
	for _, column := range table.Columns {
		lines = append(lines, fmt.Sprintf("%v %v", column.Name, d.columnType(column.Kind)))
	}
	if len(table.PrimaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%v)", strings.Join(table.PrimaryKey, ", ")))
	}
	for _, fk := range table.ForeignKeys {
		target := Lookup(fk.Reference)
		lines = append(lines, fmt.Sprintf("FOREIGN KEY (%v) REFERENCES %v(%v)", fk.Column, fk.Reference, target.PrimaryKey[0]))
	}
	if d == DialectMysql && table.Name == "order_reviews" {
		lines = append(lines, "FULLTEXT KEY ft_reviews_comment (review_comment_title, review_comment_message)")
	}
	return fmt.Sprintf("CREATE TABLE %v (\n\t%v\n)", table.Name, strings.Join(lines, ",\n\t"))
}

// SchemaStatements drops every table (children first) and recreates them.
func (d Dialect) SchemaStatements() []string {
	statements := make([]string, 0, 2*len(Tables))
	for i := len(Tables) - 1; i >= 0; i-- {
		statements = append(statements, fmt.Sprintf("DROP TABLE IF EXISTS %v", Tables[i].Name))
	}
	for _, table := range Tables {
		statements = append(statements, d.CreateTable(table))
	}
	return statements
}

func Lookup(name string) Table {
	for _, table := range Tables {
		if table.Name == name {
			return table
		}
	}
	panic(fmt.Sprintf("unknown table %v", name))
}

func CreateSchema(ctx context.Context, instance Instance) error {
	for _, statement := range instance.Dialect().SchemaStatements() {
		if err := instance.Exec(ctx, statement); err != nil {
			return fmt.Errorf("schema statement failed: %w, statement=%v", err, firstLine(statement))
		}
	}
	Logger.Infof("created schema with %v tables on %v", len(Tables), instance.Name())
	return nil
}

func firstLine(statement string) string {
	line, _, _ := strings.Cut(statement, "\n")
	return line
}
