package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency formata com agrupamento en-US e 2 casas: "1,234.50 AGORA"
func FormatCurrency(a Amount, c Currency) string {
	if c == "" {
		c = AGORA
	}
	v := roundPlaces(a, 2).Float()
	return printer.Sprint(number.Decimal(v, number.Scale(2))) + " " + string(c)
}

// FormatAmount formata sem moeda com o número de casas pedido
func FormatAmount(a Amount, decimals int32) string { return a.StringFixed(decimals) }

// ToPreciseBalances converte um mapa de saldos para strings com 2 casas
func ToPreciseBalances(balances map[string]Amount) map[string]string {
	out := make(map[string]string, len(balances))
	for cur, v := range balances {
		out[cur] = v.StringFixed(2)
	}
	return out
}
