package events

// BetPlaced é emitido quando o bet ticket abre uma posição
type BetPlaced struct {
	PositionID string `json:"position_id"`
	MarketID   string `json:"market_id"`
	Side       string `json:"side"` // "YES" | "NO"
	Amount     string `json:"amount"`
	Odds       int    `json:"odds"`
	TotalFees  string `json:"total_fees"`
	TotalCost  string `json:"total_cost"`
	PayoutEst  string `json:"payout_est"`
}
