package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

type SyntheticSizes struct {
	Customers   int
	Sellers     int
	Products    int
	Orders      int
	MaxItems    int
	Reviews     int
	Geolocation int
}

var DefaultSyntheticSizes = SyntheticSizes{
	Customers:   500,
	Sellers:     50,
	Products:    200,
	Orders:      1000,
	MaxItems:    5,
	Reviews:     800,
	Geolocation: 100,
}

var (
	syntheticCategories = [][2]string{
		{"eletrônicos", "electronics"},
		{"roupas", "clothing"},
		{"casa", "home"},
		{"livros", "books"},
		{"esportes", "sports"},
	}
	syntheticCities       = []string{"São Paulo", "Rio de Janeiro", "Brasília", "Salvador", "Fortaleza"}
	syntheticStates       = []string{"SP", "RJ", "DF", "BA", "CE"}
	syntheticStatuses     = []string{"delivered", "shipped", "processing"}
	syntheticPaymentTypes = []string{"credit_card", "boleto", "debit_card"}
	syntheticInstallments = []int{1, 2, 3, 6, 12}
	syntheticComments     = []string{
		"Produto excelente, entrega rápida",
		"Qualidade muito boa, recomendo",
		"Chegou no prazo, produto conforme descrição",
		"Gostei muito da compra",
		"Produto de qualidade, vendedor confiável",
		"Entrega demorou mas produto é bom",
		"Não gostei do produto",
		"Produto veio com defeito",
		"Entrega muito lenta",
		"Produto não confere com a descrição",
	}
)

// DatasetSynthetic generates a small Olist-shaped dataset. The same seed always
// produces the same rows.
type DatasetSynthetic struct {
	Seed  int64
	Sizes SyntheticSizes
}

func (d *DatasetSynthetic) Name() string { return "synthetic" }

func (d *DatasetSynthetic) sizes() SyntheticSizes {
	if d.Sizes == (SyntheticSizes{}) {
		return DefaultSyntheticSizes
	}
	return d.Sizes
}

func (d *DatasetSynthetic) Load(ctx context.Context, instance Instance) error {
	if err := CreateSchema(ctx, instance); err != nil {
		return err
	}
	generated := d.Generate()
	for _, table := range Tables {
		rows := generated[table.Name]
		if err := InsertRows(ctx, instance, table.Name, table.ColumnNames(), rows); err != nil {
			return err
		}
		Logger.Infof("loaded %v rows into %v", len(rows), table.Name)
	}
	return nil
}

type generator struct {
	random *rand.Rand
}

func (g *generator) pick(values []string) string { return values[g.random.Intn(len(values))] }
func (g *generator) between(lo, hi int) int      { return lo + g.random.Intn(hi-lo+1) }
func (g *generator) money(lo, hi float64) float64 {
	return math.Round((lo+g.random.Float64()*(hi-lo))*100) / 100
}

func (g *generator) timestamp() string {
	return fmt.Sprintf("2018-%02d-%02d %02d:%02d:00", g.between(1, 12), g.between(1, 28), g.between(8, 22), g.between(0, 59))
}

// Generate returns the rows of every table keyed by table name, in the column
// order of Tables.
func (d *DatasetSynthetic) Generate() map[string][][]any {
	sizes := d.sizes()
	g := &generator{random: rand.New(rand.NewSource(d.Seed))}
	data := make(map[string][][]any, len(Tables))

	categories := make([][]any, 0, len(syntheticCategories))
	for _, category := range syntheticCategories {
		categories = append(categories, []any{category[0], category[1]})
	}
	data["product_category_name_translation"] = categories

	customers := make([][]any, 0, sizes.Customers)
	for i := 1; i <= sizes.Customers; i++ {
		customers = append(customers, []any{
			fmt.Sprintf("c%v", i), fmt.Sprintf("cu%v", i), g.between(10000, 99999), g.pick(syntheticCities), g.pick(syntheticStates),
		})
	}
	data["customers"] = customers

	sellers := make([][]any, 0, sizes.Sellers)
	for i := 1; i <= sizes.Sellers; i++ {
		sellers = append(sellers, []any{
			fmt.Sprintf("s%v", i), g.between(10000, 99999), g.pick(syntheticCities), g.pick(syntheticStates),
		})
	}
	data["sellers"] = sellers

	products := make([][]any, 0, sizes.Products)
	for i := 1; i <= sizes.Products; i++ {
		products = append(products, []any{
			fmt.Sprintf("p%v", i),
			syntheticCategories[g.random.Intn(len(syntheticCategories))][0],
			g.between(30, 100),
			g.between(100, 500),
			g.between(1, 5),
			g.between(100, 2000),
			g.between(10, 50),
			g.between(5, 30),
			g.between(8, 40),
		})
	}
	data["products"] = products

	orders := make([][]any, 0, sizes.Orders)
	items := make([][]any, 0, sizes.Orders*sizes.MaxItems)
	payments := make([][]any, 0, sizes.Orders)
	for i := 1; i <= sizes.Orders; i++ {
		orderId := fmt.Sprintf("o%v", i)
		orders = append(orders, []any{
			orderId,
			fmt.Sprintf("c%v", g.between(1, sizes.Customers)),
			g.pick(syntheticStatuses),
			g.timestamp(), g.timestamp(), g.timestamp(), g.timestamp(), g.timestamp(),
		})
		count := g.between(1, sizes.MaxItems)
		for j := 1; j <= count; j++ {
			items = append(items, []any{
				orderId,
				j,
				fmt.Sprintf("p%v", g.between(1, sizes.Products)),
				fmt.Sprintf("s%v", g.between(1, sizes.Sellers)),
				fmt.Sprintf("2018-%02d-%02d 23:59:59", g.between(1, 12), g.between(1, 28)),
				g.money(10, 500),
				g.money(5, 50),
			})
		}
		payments = append(payments, []any{
			orderId,
			1,
			g.pick(syntheticPaymentTypes),
			syntheticInstallments[g.random.Intn(len(syntheticInstallments))],
			g.money(20, 1000),
		})
	}
	data["orders"] = orders
	data["order_items"] = items
	data["order_payments"] = payments

	reviews := make([][]any, 0, sizes.Reviews)
	for i := 1; i <= min(sizes.Reviews, sizes.Orders); i++ {
		reviews = append(reviews, []any{
			fmt.Sprintf("r%v", i),
			fmt.Sprintf("o%v", i),
			g.between(1, 5),
			"Avaliação",
			g.pick(syntheticComments),
			g.timestamp(),
			g.timestamp(),
		})
	}
	data["order_reviews"] = reviews

	geolocation := make([][]any, 0, sizes.Geolocation)
	for i := 0; i < sizes.Geolocation; i++ {
		geolocation = append(geolocation, []any{10000 + i, -23.5489, -46.6388, "São Paulo", "SP"})
	}
	data["geolocation"] = geolocation

	return data
}
