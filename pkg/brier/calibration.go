package brier

import (
	"math/rand/v2"
	"sync"
)

type Trend string

const (
	TrendOver     Trend = "over"
	TrendUnder    Trend = "under"
	TrendBalanced Trend = "balanced"
)

// CalibrationMargin é a diferença (em pontos percentuais) tolerada entre a
// confiança média e a taxa real de YES
const CalibrationMargin = 10.0

type Advice struct {
	Advice string `json:"advice"`
	Trend  Trend  `json:"trend"`
}

// calibrationDiff retorna confiança média - taxa de YES observada, em %
func calibrationDiff(rounds []Round) float64 {
	var probSum float64
	yes := 0
	for _, r := range rounds {
		probSum += r.Probability
		if r.Outcome {
			yes++
		}
	}
	n := float64(len(rounds))
	return probSum/n - float64(yes)/n*100
}

// GetCalibrationAdvice classifica a tendência do jogador:
// diff > 10 => over, diff < -10 => under, caso contrário balanced.
func GetCalibrationAdvice(rounds []Round) Advice {
	if len(rounds) == 0 {
		return Advice{Advice: "No data yet - play some rounds!", Trend: TrendBalanced}
	}
	diff := calibrationDiff(rounds)
	switch {
	case diff > CalibrationMargin:
		return Advice{
			Advice: "You're predicting with more certainty than your results justify. Try being more conservative.",
			Trend:  TrendOver,
		}
	case diff < -CalibrationMargin:
		return Advice{
			Advice: "You're more accurate than you think! Don't be afraid to express stronger opinions.",
			Trend:  TrendUnder,
		}
	}
	return Advice{Advice: "Well calibrated! Your confidence matches your accuracy.", Trend: TrendBalanced}
}

// IsOverconfident usa o mesmo limite estrito de GetCalibrationAdvice
func IsOverconfident(rounds []Round) bool {
	return len(rounds) > 0 && calibrationDiff(rounds) > CalibrationMargin
}

func IsUnderconfident(rounds []Round) bool {
	return len(rounds) > 0 && calibrationDiff(rounds) < -CalibrationMargin
}

// OutcomeSource sorteia o resultado de uma rodada
type OutcomeSource interface {
	Outcome() bool
}

// CoinFlip é uma moeda honesta (p=0.5), independente da probabilidade
// declarada pelo jogador.
type CoinFlip struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCoinFlip cria uma moeda; seed 0 usa uma semente aleatória
func NewCoinFlip(seed uint64) *CoinFlip {
	if seed == 0 {
		return &CoinFlip{}
	}
	return &CoinFlip{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *CoinFlip) Outcome() bool {
	if c.rng == nil {
		return rand.Float64() < 0.5
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() < 0.5
}

// GenerateRandomOutcome sorteia YES/NO com 50% de chance
func GenerateRandomOutcome() bool { return rand.Float64() < 0.5 }

// OutcomeFunc adapta uma função a OutcomeSource
type OutcomeFunc func() bool

func (f OutcomeFunc) Outcome() bool { return f() }
