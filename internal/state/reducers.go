package state

import (
	"errors"
	"fmt"
	"slices"

	"github.com/radieske/agora-market-poc/pkg/brier"
	"github.com/radieske/agora-market-poc/pkg/money"
)

var (
	ErrNoActiveGame         = errors.New("no active game")
	ErrGameComplete         = errors.New("all rounds already played")
	ErrGameIncomplete       = errors.New("game has unplayed rounds")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrMarketNotFound       = errors.New("market not found")
	ErrPositionNotFound     = errors.New("position not found")
	ErrUnknownToken         = errors.New("unknown token")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidInput         = errors.New("invalid input")
)

// Reducer recebe o estado atual e devolve o próximo. Não altera a entrada.
type Reducer func(State) (State, error)

func connectChain(id, address string) Reducer {
	return func(s State) (State, error) {
		if id == "" || address == "" {
			return s, fmt.Errorf("%w: chain id and address are required", ErrInvalidInput)
		}
		s.ChainID, s.Address, s.IsConnected = id, address, true
		return s, nil
	}
}

func disconnectChain() Reducer {
	return func(s State) (State, error) {
		s.ChainID, s.Address, s.IsConnected = "", "", false
		return s, nil
	}
}

// addNotification insere no início e mantém as MaxNotifications mais novas
func addNotification(n Notification) Reducer {
	return func(s State) (State, error) {
		next := make([]Notification, 0, min(len(s.Notifications)+1, MaxNotifications))
		next = append(next, n)
		next = append(next, s.Notifications[:min(len(s.Notifications), MaxNotifications-1)]...)
		s.Notifications = next
		return s, nil
	}
}

func markNotificationRead(id string) Reducer {
	return func(s State) (State, error) {
		i := slices.IndexFunc(s.Notifications, func(n Notification) bool { return n.ID == id })
		if i < 0 {
			return s, ErrNotificationNotFound
		}
		s.Notifications = slices.Clone(s.Notifications)
		s.Notifications[i].Read = true
		return s, nil
	}
}

func markAllNotificationsRead() Reducer {
	return func(s State) (State, error) {
		next := slices.Clone(s.Notifications)
		for i := range next {
			next[i].Read = true
		}
		s.Notifications = next
		return s, nil
	}
}

func clearNotifications() Reducer {
	return func(s State) (State, error) {
		s.Notifications = []Notification{}
		return s, nil
	}
}

func updateLatency(p LatencyPatch) Reducer {
	return func(s State) (State, error) {
		if p.Mutation != nil {
			s.Latency.Mutation = max(0, *p.Mutation)
		}
		if p.Notification != nil {
			s.Latency.Notification = max(0, *p.Notification)
		}
		if p.EndToEnd != nil {
			s.Latency.EndToEnd = max(0, *p.EndToEnd)
		}
		return s, nil
	}
}

func setMarkets(markets []Market) Reducer {
	return func(s State) (State, error) {
		s.Markets = slices.Clone(markets)
		return s, nil
	}
}

func updateMarket(id string, p MarketPatch) Reducer {
	return func(s State) (State, error) {
		i := slices.IndexFunc(s.Markets, func(m Market) bool { return m.ID == id })
		if i < 0 {
			return s, ErrMarketNotFound
		}
		s.Markets = slices.Clone(s.Markets)
		m := &s.Markets[i]
		if p.Question != nil {
			m.Question = *p.Question
		}
		if p.Category != nil {
			m.Category = *p.Category
		}
		if p.YesOdds != nil {
			m.YesOdds = *p.YesOdds
		}
		if p.NoOdds != nil {
			m.NoOdds = *p.NoOdds
		}
		if p.Volume != nil {
			m.Volume = *p.Volume
		}
		if p.Participants != nil {
			m.Participants = *p.Participants
		}
		if p.EndsIn != nil {
			m.EndsIn = *p.EndsIn
		}
		if p.Trending != nil {
			m.Trending = *p.Trending
		}
		return s, nil
	}
}

func addPosition(p Position) Reducer {
	return func(s State) (State, error) {
		s.UserPositions = append([]Position{p}, s.UserPositions...)
		return s, nil
	}
}

// openPosition adiciona a posição e debita o custo do token numa só transição
func openPosition(p Position, token string, cost money.Amount) Reducer {
	return func(s State) (State, error) {
		bal, ok := s.Balances[token]
		if !ok {
			return s, fmt.Errorf("%w: %s", ErrUnknownToken, token)
		}
		if bal < cost {
			return s, ErrInsufficientBalance
		}
		s, _ = addPosition(p)(s)
		s.Balances = cloneBalances(s.Balances)
		s.Balances[token] = money.UpdateBalance(bal, cost, money.Debit)
		return s, nil
	}
}

func updatePosition(id string, p PositionPatch) Reducer {
	return func(s State) (State, error) {
		i := slices.IndexFunc(s.UserPositions, func(x Position) bool { return x.ID == id })
		if i < 0 {
			return s, ErrPositionNotFound
		}
		if p.Status != nil && !p.Status.Valid() {
			return s, fmt.Errorf("%w: status %q", ErrInvalidInput, *p.Status)
		}
		s.UserPositions = slices.Clone(s.UserPositions)
		pos := &s.UserPositions[i]
		if p.Status != nil {
			pos.Status = *p.Status
		}
		if p.PayoutEst != nil {
			pos.PayoutEst = *p.PayoutEst
		}
		if p.Odds != nil {
			pos.Odds = *p.Odds
		}
		return s, nil
	}
}

func addCounter(delta int) Reducer {
	return func(s State) (State, error) {
		s.CounterValue += delta
		return s, nil
	}
}

func resetCounter() Reducer {
	return func(s State) (State, error) {
		s.CounterValue = 0
		return s, nil
	}
}

func cloneBalances(b map[string]money.Amount) map[string]money.Amount {
	out := make(map[string]money.Amount, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// sendTokens debita amount do token (mock de envio para outra chain)
func sendTokens(token string, amount money.Amount) Reducer {
	return func(s State) (State, error) {
		bal, ok := s.Balances[token]
		if !ok {
			return s, fmt.Errorf("%w: %s", ErrUnknownToken, token)
		}
		if amount <= 0 {
			return s, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
		}
		s.Balances = cloneBalances(s.Balances)
		s.Balances[token] = money.UpdateBalance(bal, amount, money.Debit)
		return s, nil
	}
}

func debitBalance(token string, amount money.Amount) Reducer {
	return func(s State) (State, error) {
		bal, ok := s.Balances[token]
		if !ok {
			return s, fmt.Errorf("%w: %s", ErrUnknownToken, token)
		}
		if amount <= 0 {
			return s, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
		}
		if bal < amount {
			return s, ErrInsufficientBalance
		}
		s.Balances = cloneBalances(s.Balances)
		s.Balances[token] = money.UpdateBalance(bal, amount, money.Debit)
		return s, nil
	}
}

// updateBalance define o saldo do token (cria se não existir)
func updateBalance(token string, amount money.Amount) Reducer {
	return func(s State) (State, error) {
		if token == "" {
			return s, fmt.Errorf("%w: token is required", ErrInvalidInput)
		}
		s.Balances = cloneBalances(s.Balances)
		s.Balances[token] = amount
		return s, nil
	}
}

// startGame abre uma nova partida; uma partida em andamento é descartada
func startGame(now int64) Reducer {
	return func(s State) (State, error) {
		s.CurrentGame = &CurrentGame{RoundNumber: 1, Rounds: []brier.Round{}, StartedAt: now}
		return s, nil
	}
}

func submitRound(probability float64, outcome bool, score float64, now int64) Reducer {
	return func(s State) (State, error) {
		cg := s.CurrentGame
		if cg == nil {
			return s, ErrNoActiveGame
		}
		if len(cg.Rounds) >= GameRounds {
			return s, ErrGameComplete
		}
		r := brier.Round{
			RoundNumber: cg.RoundNumber,
			Probability: probability,
			Outcome:     outcome,
			BrierScore:  score,
			Timestamp:   now,
		}
		rounds := make([]brier.Round, 0, len(cg.Rounds)+1)
		rounds = append(append(rounds, cg.Rounds...), r)
		s.CurrentGame = &CurrentGame{
			RoundNumber: cg.RoundNumber + 1,
			Rounds:      rounds,
			StartedAt:   cg.StartedAt,
		}
		return s, nil
	}
}

// finishGame grava o resultado, atualiza best score/total e volta para idle
func finishGame(id string, finalScore, percentile float64, badge brier.Badge, now int64) Reducer {
	return func(s State) (State, error) {
		cg := s.CurrentGame
		if cg == nil {
			return s, ErrNoActiveGame
		}
		if len(cg.Rounds) < GameRounds {
			return s, fmt.Errorf("%w: %d of %d played", ErrGameIncomplete, len(cg.Rounds), GameRounds)
		}
		result := GameResult{
			ID:              id,
			FinalScore:      finalScore,
			PercentileScore: percentile,
			Badge:           badge,
			TotalRounds:     len(cg.Rounds),
			Rounds:          slices.Clone(cg.Rounds),
			Timestamp:       now,
			Overconfident:   brier.IsOverconfident(cg.Rounds),
			Underconfident:  brier.IsUnderconfident(cg.Rounds),
		}
		history := make([]GameResult, 0, min(len(s.GameHistory)+1, MaxGameHistory))
		history = append(history, result)
		history = append(history, s.GameHistory[:min(len(s.GameHistory), MaxGameHistory-1)]...)

		s.CurrentGame = nil
		s.TotalGames++
		s.BestScore = max(s.BestScore, percentile)
		s.GameHistory = history
		return s, nil
	}
}

func abandonGame() Reducer {
	return func(s State) (State, error) {
		if s.CurrentGame == nil {
			return s, ErrNoActiveGame
		}
		s.CurrentGame = nil
		return s, nil
	}
}

func setTransport(p TransportPatch) Reducer {
	return func(s State) (State, error) {
		if p.Mode != nil {
			if !p.Mode.Valid() {
				return s, fmt.Errorf("%w: transport mode %q", ErrInvalidInput, *p.Mode)
			}
			s.Transport.Mode = *p.Mode
		}
		if p.FaucetURL != nil {
			s.Transport.FaucetURL = *p.FaucetURL
		}
		if p.ValidatorURL != nil {
			s.Transport.ValidatorURL = *p.ValidatorURL
		}
		return s, nil
	}
}

func toggleNotificationFeed() Reducer {
	return func(s State) (State, error) {
		s.ShowNotificationFeed = !s.ShowNotificationFeed
		return s, nil
	}
}

func togglePerformanceMetrics() Reducer {
	return func(s State) (State, error) {
		s.ShowPerformanceMetrics = !s.ShowPerformanceMetrics
		return s, nil
	}
}
