package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Taxas expressas na própria escala: 10 = 0.0010 = 0.10%
const (
	MakerRate    Amount = 10 // 0.10%
	TakerRate    Amount = 20 // 0.20%
	ProtocolRate Amount = 5  // 0.05%
	TransferRate Amount = 10 // 0.10%
)

// Fees guarda os componentes de taxa ainda escalados
type Fees struct {
	Maker    Amount `json:"maker"`
	Taker    Amount `json:"taker"`
	Protocol Amount `json:"protocol"`
	Total    Amount `json:"total"`
}

// FeeBreakdown é o detalhamento de uma aposta como strings de precisão fixa.
// Fees/TotalCostValue/NetValue carregam os mesmos números sem formatação.
type FeeBreakdown struct {
	Amount      string `json:"amount"`
	MakerFee    string `json:"makerFee"`
	TakerFee    string `json:"takerFee"`
	ProtocolFee string `json:"protocolFee"`
	TotalFees   string `json:"totalFees"`
	TotalCost   string `json:"totalCost"`
	Net         string `json:"net"`

	AmountValue    Amount `json:"-"`
	Fees           Fees   `json:"-"`
	TotalCostValue Amount `json:"-"`
	NetValue       Amount `json:"-"`
}

// fee aplica uma taxa ao valor, arredondando cada componente isoladamente
func fee(amount, rate Amount) Amount { return Mul(amount, rate) }

// CalculateBetFees calcula maker, taker e protocol de forma independente e soma
// (sem composição). amount/totalCost/net saem com 2 casas, taxas com 4.
func CalculateBetFees(amount Amount) FeeBreakdown {
	f := Fees{
		Maker:    fee(amount, MakerRate),
		Taker:    fee(amount, TakerRate),
		Protocol: fee(amount, ProtocolRate),
	}
	f.Total = addSat(addSat(f.Maker, f.Taker), f.Protocol)
	cost := addSat(amount, f.Total)
	net := addSat(amount, -f.Total)

	return FeeBreakdown{
		Amount:         amount.StringFixed(2),
		MakerFee:       f.Maker.StringFixed(4),
		TakerFee:       f.Taker.StringFixed(4),
		ProtocolFee:    f.Protocol.StringFixed(4),
		TotalFees:      f.Total.StringFixed(4),
		TotalCost:      cost.StringFixed(2),
		Net:            net.StringFixed(2),
		AmountValue:    amount,
		Fees:           f,
		TotalCostValue: cost,
		NetValue:       net,
	}
}

// CalculateTransferFee aplica a taxa de transferência
func CalculateTransferFee(amount Amount) Amount { return fee(amount, TransferRate) }

// CalculatePayout estima o retorno de uma aposta: amount / (odds/100) menos
// as taxas totais. odds é a probabilidade em percentual (1-100).
func CalculatePayout(amount Amount, odds int) (Amount, error) {
	if odds <= 0 || odds > 100 {
		return 0, fmt.Errorf("%w: odds %d", ErrInvalidAmount, odds)
	}
	gross := decimal.NewFromInt(int64(amount)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(odds)))
	payout, err := toAmount(gross)
	if err != nil {
		return 0, err
	}
	return addSat(payout, -CalculateBetFees(amount).Fees.Total), nil
}

// HasSufficientBalance verifica se balance cobre amount + taxas. O custo é
// comparado já arredondado para 2 casas, como é exibido ao usuário.
func HasSufficientBalance(amount, balance Amount) bool {
	if amount > balance {
		return false
	}
	required := roundPlaces(CalculateBetFees(amount).TotalCostValue, 2)
	return balance >= required
}
