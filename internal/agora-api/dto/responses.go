package dto

import (
	"github.com/radieske/agora-market-poc/internal/game"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/pkg/brier"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StateResponse é o snapshot completo com o contador de não lidas derivado
type StateResponse struct {
	state.State
	UnreadCount int `json:"unreadCount"`
}

type MarketDetailResponse struct {
	Market    state.Market     `json:"market"`
	Positions []state.Position `json:"positions"`
}

type NotificationsResponse struct {
	Notifications []state.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unreadCount"`
}

type CounterResponse struct {
	Value int `json:"value"`
}

type ToggleResponse struct {
	ShowNotificationFeed   bool `json:"showNotificationFeed"`
	ShowPerformanceMetrics bool `json:"showPerformanceMetrics"`
}

type GameResponse struct {
	Active      bool               `json:"active"`
	CurrentGame *state.CurrentGame `json:"currentGame"`
	Score       *game.Score        `json:"score,omitempty"`
}

type RoundResponse struct {
	Round brier.Round `json:"round"`
	Score game.Score  `json:"score"`
}

type FinishResponse struct {
	Result    state.GameResult `json:"result"`
	BadgeInfo brier.Info       `json:"badgeInfo"`
	Advice    brier.Advice     `json:"advice"`
}

type HistoryResponse struct {
	game.Stats
	Advice *brier.Advice `json:"advice,omitempty"`
}

type BalancesResponse struct {
	Balances map[string]string `json:"balances"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
