package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, instance Instance, table string) int {
	rows, err := instance.Query(context.Background(), "SELECT COUNT(*) FROM "+table)
	require.Nil(t, err)
	count, err := strconv.Atoi(FormatValue(rows.Values[0][0]))
	require.Nil(t, err)
	return count
}

func TestSyntheticDataset(t *testing.T) {
	instance := loadSynthetic(t)

	require.Equal(t, 5, countRows(t, instance, "product_category_name_translation"))
	require.Equal(t, 500, countRows(t, instance, "customers"))
	require.Equal(t, 50, countRows(t, instance, "sellers"))
	require.Equal(t, 200, countRows(t, instance, "products"))
	require.Equal(t, 1000, countRows(t, instance, "orders"))
	require.Equal(t, 1000, countRows(t, instance, "order_payments"))
	require.Equal(t, 800, countRows(t, instance, "order_reviews"))
	require.Equal(t, 100, countRows(t, instance, "geolocation"))
	items := countRows(t, instance, "order_items")
	require.GreaterOrEqual(t, items, 1000)
	require.LessOrEqual(t, items, 5000)
}

func TestSyntheticDeterministic(t *testing.T) {
	first := (&DatasetSynthetic{Seed: 42}).Generate()
	second := (&DatasetSynthetic{Seed: 42}).Generate()
	require.Equal(t, first, second)

	other := (&DatasetSynthetic{Seed: 7}).Generate()
	require.NotEqual(t, first["order_items"], other["order_items"])

	for _, table := range Tables {
		for _, row := range first[table.Name] {
			require.Len(t, row, len(table.Columns), table.Name)
		}
	}
	for _, review := range first["order_reviews"] {
		require.Contains(t, syntheticComments, review[4])
	}
}

func TestSyntheticItemsPerOrder(t *testing.T) {
	histogram := make(map[int]int)
	orders := 0
	for seed := int64(1); seed <= 10; seed++ {
		data := (&DatasetSynthetic{Seed: seed}).Generate()
		perOrder := make(map[any]int)
		for _, item := range data["order_items"] {
			perOrder[item[0]]++
			require.Equal(t, perOrder[item[0]], item[1], "item ids are sequential within an order")
		}
		require.Len(t, perOrder, len(data["orders"]))
		for _, count := range perOrder {
			histogram[count]++
		}
		orders += len(data["orders"])
	}

	require.Len(t, histogram, DefaultSyntheticSizes.MaxItems)
	expected := orders / DefaultSyntheticSizes.MaxItems
	for count := 1; count <= DefaultSyntheticSizes.MaxItems; count++ {
		require.InDelta(t, expected, histogram[count], float64(expected)/4, "orders with %v items", count)
	}
}

func TestSyntheticReload(t *testing.T) {
	instance := loadSynthetic(t)
	require.Nil(t, (&DatasetSynthetic{Seed: 1}).Load(context.Background(), instance))
	require.Equal(t, 1000, countRows(t, instance, "orders"))
}

func TestInsertRowsBatches(t *testing.T) {
	instance := openSqlite(t)
	ctx := context.Background()
	require.Nil(t, instance.Exec(ctx, "CREATE TABLE numbers (n INTEGER, label TEXT)"))

	rows := make([][]any, 2500)
	for i := range rows {
		rows[i] = []any{i, nil}
	}
	require.Nil(t, InsertRows(ctx, instance, "numbers", []string{"n", "label"}, rows))
	require.Equal(t, 2500, countRows(t, instance, "numbers"))

	err := InsertRows(ctx, instance, "numbers", []string{"n", "label"}, [][]any{{1}})
	require.ErrorContains(t, err, "row has 1 values for 2 columns")
}

func writeCsv(t *testing.T, dir, name, content string) {
	require.Nil(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func writeOlistCsv(t *testing.T, dir string) {
	writeCsv(t, dir, "product_category_name_translation.csv", "\ufeffproduct_category_name,product_category_name_english\ncasa,home\n")
	writeCsv(t, dir, "olist_customers_dataset.csv", "customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state\nc1,u1,1000,sao paulo,SP\n")
	writeCsv(t, dir, "olist_sellers_dataset.csv", "seller_id,seller_zip_code_prefix,seller_city,seller_state\ns1,2000,rio,RJ\n")
	writeCsv(t, dir, "olist_products_dataset.csv", "product_id,product_category_name,product_name_lenght,product_description_lenght,product_photos_qty,product_weight_g,product_length_cm,product_height_cm,product_width_cm\np1,casa,40,300,1,500,20,10,15\np2,,,,,,,,\n")
	writeCsv(t, dir, "olist_orders_dataset.csv", "order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date\no1,c1,delivered,2018-02-01 10:00:00,2018-02-01 11:00:00,,,2018-02-10 00:00:00\n")
	writeCsv(t, dir, "olist_order_items_dataset.csv", "order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value\no1,1,p1,s1,2018-02-05 00:00:00,120.50,15.10\no1,2,p2,s1,2018-02-05 00:00:00,80.00,22.00\n")
	writeCsv(t, dir, "olist_order_payments_dataset.csv", "order_id,payment_sequential,payment_type,payment_installments,payment_value\no1,1,credit_card,3,237.60\n")
	writeCsv(t, dir, "olist_order_reviews_dataset.csv", "review_id,order_id,review_score,review_comment_title,review_comment_message,review_creation_date,review_answer_timestamp\nr1,o1,5,,\"Produto excelente,\nentrega rápida\",2018-02-11 00:00:00,2018-02-12 00:00:00\nr1,o1,4,,duplicate,2018-02-11 00:00:00,2018-02-12 00:00:00\n")
	writeCsv(t, dir, "olist_geolocation_dataset.csv", "geolocation_zip_code_prefix,geolocation_lat,geolocation_lng,geolocation_city,geolocation_state\n1000,-23.5,-46.6,sao paulo,SP\n1000,-23.5,-46.6,sao paulo,SP\n")
}

func TestCsvDataset(t *testing.T) {
	instance := openSqlite(t)
	dir := t.TempDir()
	writeOlistCsv(t, dir)

	dataset := &DatasetCsv{Dir: dir}
	require.Empty(t, dataset.Missing())
	require.Nil(t, dataset.Load(context.Background(), instance))

	require.Equal(t, 2, countRows(t, instance, "products"))
	require.Equal(t, 2, countRows(t, instance, "order_items"))
	require.Equal(t, 1, countRows(t, instance, "order_reviews"))
	require.Equal(t, 2, countRows(t, instance, "geolocation"))

	rows, err := instance.Query(context.Background(), "SELECT review_comment_title, review_comment_message FROM order_reviews")
	require.Nil(t, err)
	require.Nil(t, rows.Values[0][0])
	require.Equal(t, "Produto excelente,\nentrega rápida", rows.Values[0][1])

	rows, err = instance.Query(context.Background(), "SELECT product_category_name FROM products WHERE product_id = 'p2'")
	require.Nil(t, err)
	require.Nil(t, rows.Values[0][0])
}

func TestCsvDatasetMissing(t *testing.T) {
	instance := openSqlite(t)
	dir := t.TempDir()
	writeCsv(t, dir, "olist_customers_dataset.csv", "customer_id\n")

	dataset := &DatasetCsv{Dir: dir}
	require.Len(t, dataset.Missing(), 8)
	err := dataset.Load(context.Background(), instance)
	require.ErrorIs(t, err, ErrDatasetMissing)
}

func TestCsvUnknownColumn(t *testing.T) {
	_, err := csvColumns(Lookup("sellers"), []string{"seller_id", "seller_rating"})
	require.ErrorContains(t, err, "seller_rating")
	_, err = csvColumns(Lookup("sellers"), []string{"seller_city"})
	require.ErrorContains(t, err, "primary key column 'seller_id' missing")
}

func TestDatasetFor(t *testing.T) {
	useTestLogger(t)
	config := DefaultConfig()
	config.DataDir = t.TempDir()

	config.Provision = ProvisionAuto
	require.Equal(t, "synthetic", DatasetFor(config).Name())
	writeOlistCsv(t, config.DataDir)
	require.Equal(t, "olist-csv", DatasetFor(config).Name())

	config.Provision = ProvisionSynthetic
	require.Equal(t, "synthetic", DatasetFor(config).Name())
	config.Provision = ProvisionCsv
	require.Equal(t, "olist-csv", DatasetFor(config).Name())
	config.Provision = ProvisionNone
	require.Nil(t, DatasetFor(config))
}
