package profiling

import (
	"strings"

	"autosense/domain/dataset"
)

// BusinessMetrics groups columns by the business quantity their name suggests.
type BusinessMetrics struct {
	Revenue []string `json:"revenue"`
	Cost    []string `json:"cost"`
	Profit  []string `json:"profit"`
	Count   []string `json:"count"`
	Rate    []string `json:"rate"`
	Time    []string `json:"time"`
}

var (
	revenueKeywords = []string{"revenue", "income", "sales", "earnings", "amount", "price", "value"}
	costKeywords    = []string{"cost", "expense", "budget", "spend", "fee"}
	profitKeywords  = []string{"profit", "margin", "roi", "return"}
	countKeywords   = []string{"count", "quantity", "volume", "number", "total", "qty"}
	rateKeywords    = []string{"rate", "ratio", "percent", "conversion", "%"}
	timeKeywords    = []string{"date", "time", "month", "year", "quarter", "day", "week"}
)

// DetectBusinessMetrics classifies columns by name. Only numeric columns are
// considered for the quantity groups; Time accepts any column.
func DetectBusinessMetrics(profiles dataset.Profiles) BusinessMetrics {
	var m BusinessMetrics
	for _, p := range profiles {
		name := strings.ToLower(p.Name)
		numeric := p.Role == dataset.RoleNumeric
		if numeric && containsAny(name, revenueKeywords) {
			m.Revenue = append(m.Revenue, p.Name)
		}
		if numeric && containsAny(name, costKeywords) {
			m.Cost = append(m.Cost, p.Name)
		}
		if numeric && containsAny(name, profitKeywords) {
			m.Profit = append(m.Profit, p.Name)
		}
		if numeric && containsAny(name, countKeywords) {
			m.Count = append(m.Count, p.Name)
		}
		if numeric && containsAny(name, rateKeywords) {
			m.Rate = append(m.Rate, p.Name)
		}
		if containsAny(name, timeKeywords) {
			m.Time = append(m.Time, p.Name)
		}
	}
	return m
}

// HasFinancial reports whether any revenue or profit column was found.
func (m BusinessMetrics) HasFinancial() bool {
	return len(m.Revenue) > 0 || len(m.Profit) > 0
}

// IsRevenueLike reports whether a column name reads as a revenue measure.
func IsRevenueLike(name string) bool {
	return containsAny(strings.ToLower(name), revenueKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
