package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

const USD = "USD"

// RateTable converts currency amounts to USD. Rates are USD per one unit of currency.
type RateTable struct {
	rates map[string]decimal.Decimal
}

func NewRateTable(rates map[string]float64) *RateTable {
	t := &RateTable{rates: make(map[string]decimal.Decimal, len(rates)+1)}
	for code, rate := range rates {
		if rate <= 0 {
			continue
		}
		t.rates[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	t.rates[USD] = decimal.NewFromInt(1)
	return t
}

// Rate returns the USD rate of code. Unknown codes return 1 and false.
func (t *RateTable) Rate(code string) (decimal.Decimal, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return decimal.NewFromInt(1), false
	}
	rate, ok := t.rates[code]
	if !ok {
		return decimal.NewFromInt(1), false
	}
	return rate, true
}

func (t *RateTable) ToUSD(amount decimal.Decimal, code string) (decimal.Decimal, bool) {
	rate, ok := t.Rate(code)
	return amount.Mul(rate), ok
}
