package state

import (
	"encoding/json"
	"fmt"

	"github.com/radieske/agora-market-poc/pkg/money"
)

// Persisted é o subconjunto do estado gravado no blob JSON
type Persisted struct {
	ChainID       string                  `json:"chainId"`
	Address       string                  `json:"address"`
	IsConnected   bool                    `json:"isConnected"`
	Transport     Transport               `json:"transport"`
	Notifications []Notification          `json:"notifications"`
	CounterValue  int                     `json:"counterValue"`
	Balances      map[string]money.Amount `json:"balances"`
	UserPositions []Position              `json:"userPositions"`
	BestScore     float64                 `json:"bestScore"`
	TotalGames    int                     `json:"totalGames"`
	GameHistory   []GameResult            `json:"gameHistory"`
	CurrentGame   *CurrentGame            `json:"currentGame"`
}

// blob é o envelope gravado na chave (estado + versão)
type blob struct {
	State   Persisted `json:"state"`
	Version int       `json:"version"`
}

// Partialize recorta o estado para persistência (20 notificações, 20 partidas)
func Partialize(s State) Persisted {
	return Persisted{
		ChainID:       s.ChainID,
		Address:       s.Address,
		IsConnected:   s.IsConnected,
		Transport:     s.Transport,
		Notifications: s.Notifications[:min(len(s.Notifications), MaxPersistedNotifications)],
		CounterValue:  s.CounterValue,
		Balances:      s.Balances,
		UserPositions: s.UserPositions,
		BestScore:     s.BestScore,
		TotalGames:    s.TotalGames,
		GameHistory:   s.GameHistory[:min(len(s.GameHistory), MaxPersistedGameHistory)],
		CurrentGame:   s.CurrentGame,
	}
}

// Encode serializa o recorte persistido
func Encode(s State) ([]byte, error) {
	return json.Marshal(blob{State: Partialize(s), Version: 0})
}

// Decode aplica um blob salvo sobre base. Campos ausentes mantêm o valor de base;
// coleções presentes substituem as de base por inteiro.
func Decode(base State, b []byte) (State, error) {
	s := base.Clone()
	in := blob{State: Partialize(s)}
	in.State.Notifications, in.State.UserPositions, in.State.GameHistory = nil, nil, nil
	in.State.Balances = nil
	if err := json.Unmarshal(b, &in); err != nil {
		return base, fmt.Errorf("decode state blob: %w", err)
	}
	p := in.State
	s.ChainID, s.Address, s.IsConnected = p.ChainID, p.Address, p.IsConnected
	s.Transport = p.Transport
	s.CounterValue = p.CounterValue
	s.BestScore, s.TotalGames = p.BestScore, p.TotalGames
	s.CurrentGame = p.CurrentGame
	if p.Notifications != nil {
		s.Notifications = p.Notifications
	}
	if p.Balances != nil {
		s.Balances = p.Balances
	}
	if p.UserPositions != nil {
		s.UserPositions = p.UserPositions
	}
	if p.GameHistory != nil {
		s.GameHistory = p.GameHistory
	}
	return s, nil
}
