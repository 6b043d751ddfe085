// Package brier implementa a pontuação de Brier usada no jogo de calibração.
//
// O score mede a precisão de uma previsão probabilística binária:
// (resultado - probabilidade)², de 0 (perfeito) a 1 (pior).
package brier

import (
	"math"
	"strconv"
)

type Badge string

const (
	BadgeNone     Badge = "none"
	BadgeBronze   Badge = "bronze"
	BadgeSilver   Badge = "silver"
	BadgeGold     Badge = "gold"
	BadgePlatinum Badge = "platinum"
)

// Faixas de percentil (limite inferior inclusivo)
const (
	PlatinumThreshold = 92.0
	GoldThreshold     = 85.0
	SilverThreshold   = 75.0
	BronzeThreshold   = 60.0
)

// Round é uma rodada concluída. Probability é a chance de YES em 0-100.
type Round struct {
	RoundNumber int     `json:"roundNumber"`
	Probability float64 `json:"probability"`
	Outcome     bool    `json:"outcome"`
	BrierScore  float64 `json:"brierScore"`
	Timestamp   int64   `json:"timestamp"`
}

// CalculateBrierScore calcula (outcome - prediction/100)².
// prediction é a probabilidade prevista de YES em percentual.
func CalculateBrierScore(outcome bool, prediction float64) float64 {
	actual := 0.0
	if outcome {
		actual = 1
	}
	d := actual - prediction/100
	return d * d
}

// CalculateAverageScore retorna a média dos scores; 0 para entrada vazia
func CalculateAverageScore(rounds []Round) float64 {
	if len(rounds) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rounds {
		sum += r.BrierScore
	}
	return sum / float64(len(rounds))
}

// ToPercentileScore converte um Brier (0-1) em percentil (0-100, maior é melhor)
func ToPercentileScore(brier float64) float64 { return (1 - brier) * 100 }

// CalculateBadge classifica o percentil nas faixas de badge
func CalculateBadge(percentile float64) Badge {
	switch {
	case percentile >= PlatinumThreshold:
		return BadgePlatinum
	case percentile >= GoldThreshold:
		return BadgeGold
	case percentile >= SilverThreshold:
		return BadgeSilver
	case percentile >= BronzeThreshold:
		return BadgeBronze
	}
	return BadgeNone
}

// Info traz os dados de exibição de um badge
type Info struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

func BadgeInfo(b Badge) Info {
	switch b {
	case BadgePlatinum:
		return Info{Name: "Platinum", Emoji: "💎", Description: "Elite calibration - top 8% of predictors"}
	case BadgeGold:
		return Info{Name: "Gold", Emoji: "🥇", Description: "Excellent accuracy - top 15% of predictors"}
	case BadgeSilver:
		return Info{Name: "Silver", Emoji: "🥈", Description: "Strong performance - top 25% of predictors"}
	case BadgeBronze:
		return Info{Name: "Bronze", Emoji: "🥉", Description: "Good calibration - top 40% of predictors"}
	}
	return Info{Name: "None", Emoji: "📊", Description: "Keep practicing to earn a badge"}
}

// FormatScore formata um Brier com 3 casas ("0.847")
func FormatScore(score float64) string { return strconv.FormatFloat(score, 'f', 3, 64) }

// Valid reports whether b is one of the known tiers.
func (b Badge) Valid() bool {
	switch b {
	case BadgeNone, BadgeBronze, BadgeSilver, BadgeGold, BadgePlatinum:
		return true
	}
	return false
}

// Side é o lado escolhido na rodada
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Limites do slider de confiança
const (
	MinProbability  = 5
	MaxProbability  = 95
	ProbabilityStep = 5
)

// ValidProbability aceita 5..95 em passos de 5
func ValidProbability(p float64) bool {
	if p < MinProbability || p > MaxProbability || p != math.Trunc(p) {
		return false
	}
	return int(p)%ProbabilityStep == 0
}

// ProbabilityForSide converte a confiança no lado escolhido em probabilidade de YES.
// Prever NO com 70% equivale a 30% de YES.
func ProbabilityForSide(side Side, confidence float64) float64 {
	if side == SideNo {
		return 100 - confidence
	}
	return confidence
}
