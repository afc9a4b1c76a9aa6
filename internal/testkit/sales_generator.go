package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// SalesGeneratorConfig configures the synthetic sales table
type SalesGeneratorConfig struct {
	Rows      int       `json:"rows"`
	StartDate time.Time `json:"start_date"`
	Regions   []string  `json:"regions"`
	Products  []string  `json:"products"`
	Seed      int64     `json:"seed"`
	// OutlierEvery plants an extreme revenue value every N rows when positive.
	OutlierEvery int `json:"outlier_every"`
}

// DefaultSalesConfig returns a small deterministic sales table
func DefaultSalesConfig() SalesGeneratorConfig {
	return SalesGeneratorConfig{
		Rows:      120,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Regions:   []string{"North", "South", "East", "West"},
		Products:  []string{"Widget", "Gadget", "Gizmo"},
		Seed:      42,
	}
}

// SalesDataGenerator produces a CSV with date, region, product, units,
// revenue and cost columns. Revenue grows with units and over time so the
// table carries a trend and a strong correlation.
type SalesDataGenerator struct {
	config SalesGeneratorConfig
	rng    *rand.Rand
}

// NewSalesDataGenerator creates a generator with a fixed seed
func NewSalesDataGenerator(config SalesGeneratorConfig) *SalesDataGenerator {
	return &SalesDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateCSV renders the table as CSV bytes
func (g *SalesDataGenerator) GenerateCSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"date", "region", "product", "units", "revenue", "cost"})

	for i := 0; i < g.config.Rows; i++ {
		day := g.config.StartDate.AddDate(0, 0, i)
		region := g.config.Regions[i%len(g.config.Regions)]
		product := g.config.Products[g.rng.Intn(len(g.config.Products))]

		units := 10 + g.rng.Intn(20) + i/4
		revenue := float64(units)*25 + g.rng.NormFloat64()*10
		if g.config.OutlierEvery > 0 && i%g.config.OutlierEvery == 0 {
			revenue *= 40
		}
		cost := revenue * (0.55 + g.rng.Float64()*0.1)

		_ = w.Write([]string{
			day.Format("2006-01-02"),
			region,
			product,
			fmt.Sprintf("%d", units),
			fmt.Sprintf("%.2f", math.Round(revenue*100)/100),
			fmt.Sprintf("%.2f", math.Round(cost*100)/100),
		})
	}
	w.Flush()
	return buf.Bytes()
}
