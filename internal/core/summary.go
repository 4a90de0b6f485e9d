package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// Summary totals a list of expenses. Records whose amount text does not parse
// are counted but left out of the totals.
type Summary struct {
	Count      int              `json:"count"`
	Total      decimal.Decimal  `json:"total"`
	Skipped    int              `json:"skipped"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// Summarize aggregates records; ByCategory follows Categories() order and omits
// empty categories.
func Summarize(records []Expense) Summary {
	s := Summary{Total: decimal.Zero}
	byCat := make(map[Category]*CategoryAmount)

	for _, e := range records {
		s.Count++
		amount, err := ParseAmount(e.Amount)
		if err != nil {
			s.Skipped++
			continue
		}
		s.Total = s.Total.Add(amount)

		cat := e.normalize().Category
		ca, ok := byCat[cat]
		if !ok {
			ca = &CategoryAmount{Category: cat, Total: decimal.Zero}
			byCat[cat] = ca
		}
		ca.Count++
		ca.Total = ca.Total.Add(amount)
	}

	for _, c := range Categories() {
		if ca, ok := byCat[c]; ok {
			s.ByCategory = append(s.ByCategory, *ca)
		}
	}
	return s
}
