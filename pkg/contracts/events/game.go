package events

// GameFinished é emitido ao encerrar uma partida de 10 rodadas
type GameFinished struct {
	GameID          string  `json:"game_id"`
	FinalScore      float64 `json:"final_score"`
	PercentileScore float64 `json:"percentile_score"`
	Badge           string  `json:"badge"`
	TotalRounds     int     `json:"total_rounds"`
	Overconfident   bool    `json:"overconfident"`
	Underconfident  bool    `json:"underconfident"`
}

// CounterChanged é emitido pelo demo de contador
type CounterChanged struct {
	Action string `json:"action"` // increment | decrement | reset
	Value  int    `json:"value"`
}
