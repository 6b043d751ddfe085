package money

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestCalculateBetFees(t *testing.T) {
	got := CalculateBetFees(Units(1000))

	want := FeeBreakdown{
		Amount:      "1000.00",
		MakerFee:    "1.0000",
		TakerFee:    "2.0000",
		ProtocolFee: "0.5000",
		TotalFees:   "3.5000",
		TotalCost:   "1003.50",
		Net:         "996.50",
	}
	if got.Amount != want.Amount || got.MakerFee != want.MakerFee || got.TakerFee != want.TakerFee ||
		got.ProtocolFee != want.ProtocolFee || got.TotalFees != want.TotalFees ||
		got.TotalCost != want.TotalCost || got.Net != want.Net {
		t.Fatalf("CalculateBetFees(1000) = %+v, want %+v", got, want)
	}
	if got.Fees.Total != got.Fees.Maker+got.Fees.Taker+got.Fees.Protocol {
		t.Fatalf("total fees %d is not the sum of components", got.Fees.Total)
	}
}

func TestCalculateBetFees_RoundsEachComponent(t *testing.T) {
	// 0.3333 * 0.0005 = 0.00016665 -> 0.0002 ; maker 0.00033 -> 0.0003 ; taker 0.00067 -> 0.0007
	got := CalculateBetFees(MustParse("0.3333"))
	if got.MakerFee != "0.0003" || got.TakerFee != "0.0007" || got.ProtocolFee != "0.0002" {
		t.Fatalf("fees = %s/%s/%s", got.MakerFee, got.TakerFee, got.ProtocolFee)
	}
	if got.TotalFees != "0.0012" {
		t.Fatalf("total = %s want 0.0012", got.TotalFees)
	}
}

func TestHasSufficientBalance(t *testing.T) {
	tests := []struct {
		name    string
		amount  Amount
		balance Amount
		want    bool
	}{
		{"fees push cost above balance", Units(100), Units(100), false},
		{"covers cost", Units(100), Units(104), true},
		{"exact cost", Units(100), MustParse("100.35"), true},
		{"one cent short", Units(100), MustParse("100.34"), false},
		{"zero amount", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasSufficientBalance(tt.amount, tt.balance); got != tt.want {
				t.Errorf("HasSufficientBalance(%s, %s) = %v, want %v", tt.amount, tt.balance, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, in := range []string{"0", "1", "0.1", "0.2", "12.3456", "-7.5", "999999.9999"} {
		a, err := ToInt(in)
		if err != nil {
			t.Fatalf("ToInt(%q): %v", in, err)
		}
		back, err := ToInt(a.String())
		if err != nil || back != a {
			t.Fatalf("round trip %q -> %s -> %d", in, a, back)
		}
	}

	a, _ := ToInt("1.23456")
	if a.String() != "1.2346" {
		t.Fatalf("ToInt(1.23456) = %s, want 1.2346", a)
	}
}

func TestFromFloat(t *testing.T) {
	a, err := FromFloat(0.1 + 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if a.String() != "0.3000" {
		t.Fatalf("FromFloat(0.1+0.2) = %s", a)
	}
	if got := Bn(0.1 + 0.2); got != 0.3 {
		t.Fatalf("Bn = %v", got)
	}
	if _, err := FromFloat(1.0 / zero()); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("FromFloat(+Inf) err = %v", err)
	}
}

func zero() float64 { return 0 }

func TestOutOfRange(t *testing.T) {
	// 2^64 / Scale: a versão escalada dá a volta em int64
	for _, in := range []string{"1844674407371055.1616", "922337203685477.5808", "-922337203685477.5809"} {
		if _, err := ToInt(in); !errors.Is(err, ErrOutOfRange) || !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ToInt(%s) err = %v", in, err)
		}
	}
	if a, err := ToInt("922337203685477.5807"); err != nil || a != math.MaxInt64 {
		t.Errorf("ToInt(max) = %d, %v", a, err)
	}
	if _, err := FromFloat(1.8e15); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("FromFloat(1.8e15) err = %v", err)
	}
	if _, err := Div(math.MaxInt64, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Div err = %v", err)
	}
	if got := Mul(math.MaxInt64, Units(2)); got != math.MaxInt64 {
		t.Errorf("Mul saturates = %d", got)
	}
	if got := PercentOf(math.MinInt64, 200); got != math.MinInt64 {
		t.Errorf("PercentOf saturates = %d", got)
	}

	huge := Amount(math.MaxInt64 - 100)
	if fb := CalculateBetFees(huge); fb.TotalCostValue < huge {
		t.Errorf("total cost wrapped: %d", fb.TotalCostValue)
	}
	if HasSufficientBalance(huge, Units(1000)) {
		t.Error("huge amount covered by a 1000 balance")
	}
	if _, err := CalculatePayout(huge, 50); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("CalculatePayout err = %v", err)
	}
}

func TestArithmetic(t *testing.T) {
	a, b := MustParse("10.5"), MustParse("0.25")

	if got := Add(a, b).String(); got != "10.7500" {
		t.Errorf("Add = %s", got)
	}
	if got := Sub(MustParse("0.3"), MustParse("0.1")).String(); got != "0.2000" {
		t.Errorf("Sub = %s", got)
	}
	if got := Mul(a, b).String(); got != "2.6250" {
		t.Errorf("Mul = %s", got)
	}
	q, err := Div(Units(10), Units(3))
	if err != nil || q.String() != "3.3333" {
		t.Errorf("Div = %s, %v", q, err)
	}
	q, _ = Div(Units(20), Units(3))
	if q.String() != "6.6667" {
		t.Errorf("Div 20/3 = %s", q)
	}
	if _, err := Div(a, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("Div by zero err = %v", err)
	}
	if got := PercentOf(Units(200), 12.5).String(); got != "25.0000" {
		t.Errorf("PercentOf = %s", got)
	}
	r, err := RoundTo(MustParse("1.005"), MustParse("0.01"))
	if err != nil || r.String() != "1.0100" {
		t.Errorf("RoundTo = %s, %v", r, err)
	}
	if Compare(a, b) != 1 || Compare(b, a) != -1 || Compare(a, a) != 0 {
		t.Errorf("Compare mismatch")
	}
	if Min(a, b) != b || Max(a, b) != a {
		t.Errorf("Min/Max mismatch")
	}
	if got := UpdateBalance(Units(1000), MustParse("1003.5"), Debit).String(); got != "-3.5000" {
		t.Errorf("UpdateBalance debit = %s", got)
	}
	if got := UpdateBalance(Units(1), MustParse("0.0001"), Credit).String(); got != "1.0001" {
		t.Errorf("UpdateBalance credit = %s", got)
	}
}

func TestCalculatePayout(t *testing.T) {
	p, err := CalculatePayout(Units(100), 50)
	if err != nil {
		t.Fatal(err)
	}
	// 100 / 0.5 = 200 ; fees 0.35
	if p.StringFixed(2) != "199.65" {
		t.Fatalf("payout = %s", p.StringFixed(2))
	}
	if _, err := CalculatePayout(Units(100), 0); err == nil {
		t.Fatal("expected error for zero odds")
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatCurrency(MustParse("1234.5"), AGORA); got != "1,234.50 AGORA" {
		t.Errorf("FormatCurrency = %q", got)
	}
	if got := FormatAmount(MustParse("3.14159"), 2); got != "3.14" {
		t.Errorf("FormatAmount = %q", got)
	}
	got := ToPreciseBalances(map[string]Amount{"USDC": Units(500), "LINERA": MustParse("0.125")})
	if got["USDC"] != "500.00" || got["LINERA"] != "0.13" {
		t.Errorf("ToPreciseBalances = %v", got)
	}
}

func TestAmountJSON(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 996.5, "b": "0.0001"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != MustParse("996.5") || v.B != 1 {
		t.Fatalf("decoded %+v", v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":996.5,"b":0.0001}` {
		t.Fatalf("encoded %s", b)
	}
	if err := json.Unmarshal([]byte(`{"a": "abc"}`), &v); err == nil {
		t.Fatal("expected error for non numeric amount")
	}
}
