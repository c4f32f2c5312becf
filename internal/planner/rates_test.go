package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vzolin/cashplan-service/internal/models"
)

func TestRatesDefaultsToOneWithoutSettings(t *testing.T) {
	rates := Rates(nil)
	assert.Equal(t, 1.0, rates[CurrencyRUB])
	assert.Equal(t, 1.0, rates[CurrencyCNY])
}

func TestRatesUsesConfiguredCNYRate(t *testing.T) {
	rates := Rates(&models.AppSettings{CNYRate: 12.5})
	assert.Equal(t, 1.0, rates[CurrencyRUB])
	assert.Equal(t, 12.5, rates[CurrencyCNY])
}

func TestRatesCoercesInvalidCNYRate(t *testing.T) {
	cases := []struct {
		name string
		rate float64
	}{
		{"zero", 0},
		{"negative", -3},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rates := Rates(&models.AppSettings{CNYRate: tc.rate})
			assert.Equal(t, 1.0, rates[CurrencyCNY])
		})
	}
}
