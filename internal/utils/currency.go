package utils

import (
	"fmt"
	"strings"
)

type Currency struct {
	Code     string `json:"code"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exponent int    `json:"exponent"`
}

var SupportedCurrencies = map[string]Currency{
	"GBP": {Code: "GBP", Symbol: "£", Name: "British Pound", Exponent: 2},
	"USD": {Code: "USD", Symbol: "$", Name: "US Dollar", Exponent: 2},
	"EUR": {Code: "EUR", Symbol: "€", Name: "Euro", Exponent: 2},
	"CAD": {Code: "CAD", Symbol: "C$", Name: "Canadian Dollar", Exponent: 2},
	"AUD": {Code: "AUD", Symbol: "A$", Name: "Australian Dollar", Exponent: 2},
	"INR": {Code: "INR", Symbol: "₹", Name: "Indian Rupee", Exponent: 2},
	"JPY": {Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Exponent: 0},
}

// FormatMinorUnits renders an amount held in the currency's smallest unit, e.g. 1050 GBP as £10.50.
func FormatMinorUnits(amount int64, currencyCode string) string {
	currency, exists := SupportedCurrencies[strings.ToUpper(currencyCode)]
	if !exists {
		currency = SupportedCurrencies[DefaultCurrency]
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	if currency.Exponent == 0 {
		return fmt.Sprintf("%s%s%d", sign, currency.Symbol, amount)
	}

	scale := int64(1)
	for i := 0; i < currency.Exponent; i++ {
		scale *= 10
	}
	return fmt.Sprintf("%s%s%d.%0*d", sign, currency.Symbol, amount/scale, currency.Exponent, amount%scale)
}

func GetCurrencySymbol(currencyCode string) string {
	currency, exists := SupportedCurrencies[strings.ToUpper(currencyCode)]
	if !exists {
		return SupportedCurrencies[DefaultCurrency].Symbol
	}
	return currency.Symbol
}

func ValidateCurrencyCode(code string) bool {
	_, exists := SupportedCurrencies[code]
	return exists
}

// ApplyBasisPoints returns value * bps / 10000 rounded half away from zero to the
// nearest minor unit. Integer arithmetic only.
func ApplyBasisPoints(value, bps int64) int64 {
	negative := (value < 0) != (bps < 0)
	if value < 0 {
		value = -value
	}
	if bps < 0 {
		bps = -bps
	}

	amount := (value*bps + BasisPointsDenominator/2) / BasisPointsDenominator
	if negative {
		return -amount
	}
	return amount
}
