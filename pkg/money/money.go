// Package money implementa aritmética de ponto fixo para valores monetários.
//
// Todo valor é um inteiro escalado por Scale (4 casas decimais). Entradas são
// convertidas para a escala, combinadas como inteiros e só então formatadas
// de volta, evitando o arredondamento binário de float nas taxas.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale é o fator de escala (10.000 = 4 casas decimais)
const Scale = 10000

// Amount é um valor monetário em unidades de 1/Scale
type Amount int64

type Currency string

const (
	AGORA  Currency = "AGORA"
	USDC   Currency = "USDC"
	LINERA Currency = "LINERA"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrDivisionByZero = errors.New("division by zero")
	// ErrOutOfRange indica valor que não cabe em um Amount
	ErrOutOfRange = fmt.Errorf("%w: out of range", ErrInvalidAmount)
)

var (
	scaleDec = decimal.NewFromInt(Scale)
	half     = decimal.NewFromFloat(0.5)
	maxDec   = decimal.NewFromInt(math.MaxInt64)
	minDec   = decimal.NewFromInt(math.MinInt64)
)

// roundHalfUp arredonda para o inteiro mais próximo, empates para +∞
func roundHalfUp(d decimal.Decimal) decimal.Decimal { return d.Add(half).Floor() }

// toAmount arredonda um valor já escalado e rejeita o que excede int64
func toAmount(scaled decimal.Decimal) (Amount, error) {
	r := roundHalfUp(scaled)
	if r.GreaterThan(maxDec) || r.LessThan(minDec) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, scaled.Shift(-4).String())
	}
	return Amount(r.IntPart()), nil
}

// clamp arredonda um valor escalado saturando nos limites de int64
func clamp(scaled decimal.Decimal) Amount {
	r := roundHalfUp(scaled)
	switch {
	case r.GreaterThan(maxDec):
		return math.MaxInt64
	case r.LessThan(minDec):
		return math.MinInt64
	}
	return Amount(r.IntPart())
}

func fromDecimal(d decimal.Decimal) (Amount, error) {
	return toAmount(d.Shift(4))
}

// ToInt converte uma string decimal para a representação escalada
func ToInt(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return fromDecimal(d)
}

// FromFloat converte um float para a escala. NaN e ±Inf são rejeitados.
func FromFloat(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	return fromDecimal(decimal.NewFromFloat(f))
}

// MustParse é ToInt para literais conhecidos; entra em pânico se inválido.
func MustParse(s string) Amount {
	a, err := ToInt(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Units cria um Amount a partir de unidades inteiras (ex.: 1000 AGORA)
func Units(n int64) Amount { return Amount(n * Scale) }

// Bn normaliza um float passando pela escala (4 casas)
func Bn(f float64) float64 {
	a, err := FromFloat(f)
	if err != nil {
		return f
	}
	return a.Float()
}

// Float converte de volta para decimal (fromInt)
func (a Amount) Float() float64 { return float64(a) / Scale }

// Decimal expõe o valor como decimal.Decimal sem perda
func (a Amount) Decimal() decimal.Decimal { return decimal.New(int64(a), -4) }

// String formata com 4 casas decimais
func (a Amount) String() string { return a.StringFixed(4) }

// StringFixed formata com o número de casas pedido
func (a Amount) StringFixed(places int32) string {
	return roundPlaces(a, places).Decimal().StringFixed(places)
}

// roundPlaces arredonda half-up para places casas (places <= 4)
func roundPlaces(a Amount, places int32) Amount {
	if places >= 4 {
		return a
	}
	unit := decimal.NewFromInt(int64(math.Pow10(int(4 - places))))
	return clamp(divRound(int64(a), unit).Mul(unit))
}

// divRound divide n por d arredondando half-up
func divRound(n int64, d decimal.Decimal) decimal.Decimal {
	return roundHalfUp(decimal.NewFromInt(n).Div(d))
}

// MarshalJSON emite o valor como número JSON (ex.: 996.5)
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal().String()), nil
}

// UnmarshalJSON aceita número ou string decimal
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := ToInt(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func Add(a, b Amount) Amount { return a + b }

// addSat soma saturando nos limites de int64
func addSat(a, b Amount) Amount {
	return clamp(decimal.NewFromInt(int64(a)).Add(decimal.NewFromInt(int64(b))))
}

func Sub(a, b Amount) Amount { return a - b }

// Mul multiplica dois valores escalados; o resultado volta para a escala e
// satura nos limites de Amount.
func Mul(a, factor Amount) Amount {
	p := decimal.NewFromInt(int64(a)).Mul(decimal.NewFromInt(int64(factor))).Div(scaleDec)
	return clamp(p)
}

// Div divide a por divisor mantendo 4 casas
func Div(a, divisor Amount) (Amount, error) {
	if divisor == 0 {
		return 0, ErrDivisionByZero
	}
	q := decimal.NewFromInt(int64(a)).Mul(scaleDec).Div(decimal.NewFromInt(int64(divisor)))
	return toAmount(q)
}

// PercentOf calcula percentage% de a (percentage em 0-100)
func PercentOf(a Amount, percentage float64) Amount {
	p := decimal.NewFromInt(int64(a)).Mul(decimal.NewFromFloat(percentage)).Div(decimal.NewFromInt(100))
	return clamp(p)
}

// RoundTo arredonda para o múltiplo mais próximo de increment (ex.: 0.01)
func RoundTo(a, increment Amount) (Amount, error) {
	if increment == 0 {
		return 0, ErrDivisionByZero
	}
	inc := decimal.NewFromInt(int64(increment))
	return toAmount(divRound(int64(a), inc).Mul(inc))
}

// Compare retorna -1, 0 ou 1
func Compare(a, b Amount) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

func Max(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}

// Direction indica débito ou crédito em UpdateBalance
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// UpdateBalance aplica um débito ou crédito ao saldo atual
func UpdateBalance(current, amount Amount, dir Direction) Amount {
	if dir == Debit {
		return current - amount
	}
	return current + amount
}
