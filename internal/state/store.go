package state

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/state/repo"
	"github.com/radieske/agora-market-poc/pkg/brier"
	"github.com/radieske/agora-market-poc/pkg/money"
)

// Persister grava e lê o blob JSON de estado
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
}

// Store é o dono do estado. Cada mutação roda um Reducer sobre uma cópia,
// troca o estado e persiste o recorte parcial.
type Store struct {
	log     *zap.Logger
	persist Persister
	key     string

	mu sync.RWMutex
	st State

	// OnPersistError é chamado quando Save falha (métricas)
	OnPersistError func()

	now   func() time.Time
	newID func(prefix string) string
}

type Option func(*Store)

// WithClock troca o relógio (testes)
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDs troca o gerador de ids (testes)
func WithIDs(f func(prefix string) string) Option { return func(s *Store) { s.newID = f } }

// WithInitial troca o estado inicial
func WithInitial(st State) Option { return func(s *Store) { s.st = st } }

func New(log *zap.Logger, p Persister, key string, opts ...Option) *Store {
	s := &Store{
		log:     log,
		persist: p,
		key:     key,
		st:      Initial(),
		now:     time.Now,
		newID:   func(prefix string) string { return prefix + "_" + uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load hidrata o estado a partir do persister. Chave ausente mantém os
// defaults; blob ilegível é ignorado (não há migração de schema).
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	b, err := s.persist.Load(ctx, s.key)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := Decode(s.st, b)
	if err != nil {
		s.log.Warn("discarding unreadable state blob", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	s.st = next
	return nil
}

// dispatch aplica r e persiste. Falha de persistência só é logada.
func (s *Store) dispatch(ctx context.Context, action string, r Reducer) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := r(s.st.Clone())
	if err != nil {
		return s.st.Clone(), err
	}
	s.st = next
	s.save(ctx, action)
	return next.Clone(), nil
}

func (s *Store) save(ctx context.Context, action string) {
	if s.persist == nil {
		return
	}
	b, err := Encode(s.st)
	if err == nil {
		err = s.persist.Save(ctx, s.key, b)
	}
	if err != nil {
		s.log.Warn("persist state failed", zap.String("action", action), zap.Error(err))
		if s.OnPersistError != nil {
			s.OnPersistError()
		}
	}
}

// Snapshot devolve uma cópia do estado atual
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Clone()
}

func (s *Store) nowMs() int64 { return s.now().UnixMilli() }

// Chain

func (s *Store) ConnectChain(ctx context.Context, id, address string) error {
	_, err := s.dispatch(ctx, "connectChain", connectChain(id, address))
	return err
}

func (s *Store) DisconnectChain(ctx context.Context) {
	_, _ = s.dispatch(ctx, "disconnectChain", disconnectChain())
}

// Notificações

func (s *Store) AddNotification(ctx context.Context, in NotificationInput) (Notification, error) {
	if !in.Type.Valid() {
		return Notification{}, fmt.Errorf("%w: notification type %q", ErrInvalidInput, in.Type)
	}
	n := Notification{
		ID:        s.newID("notif"),
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Timestamp: s.nowMs(),
		Data:      in.Data,
	}
	_, err := s.dispatch(ctx, "addNotification", addNotification(n))
	return n, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.dispatch(ctx, "markNotificationRead", markNotificationRead(id))
	return err
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context) {
	_, _ = s.dispatch(ctx, "markAllNotificationsRead", markAllNotificationsRead())
}

func (s *Store) ClearNotifications(ctx context.Context) {
	_, _ = s.dispatch(ctx, "clearNotifications", clearNotifications())
}

func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.Notifications)
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.UnreadCount()
}

// Latência

func (s *Store) Latency() Latency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Latency
}

func (s *Store) UpdateLatency(ctx context.Context, p LatencyPatch) Latency {
	st, _ := s.dispatch(ctx, "updateLatency", updateLatency(p))
	return st.Latency
}

// JitterLatency sorteia novos tempos: 50..249ms cada, endToEnd soma dois sorteios.
// intn nil usa math/rand/v2.
func (s *Store) JitterLatency(ctx context.Context, intn func(n int) int) Latency {
	if intn == nil {
		intn = rand.IntN
	}
	jitter := func() int { return intn(200) + 50 }
	mut, notif, e2e := jitter(), jitter(), jitter()+jitter()
	return s.UpdateLatency(ctx, LatencyPatch{Mutation: &mut, Notification: &notif, EndToEnd: &e2e})
}

// Mercados

func (s *Store) SetMarkets(ctx context.Context, markets []Market) {
	_, _ = s.dispatch(ctx, "setMarkets", setMarkets(markets))
}

func (s *Store) UpdateMarket(ctx context.Context, id string, p MarketPatch) error {
	_, err := s.dispatch(ctx, "updateMarket", updateMarket(id, p))
	return err
}

func (s *Store) Markets() []Market {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.Markets)
}

func (s *Store) Market(id string) (Market, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.st.Markets, func(m Market) bool { return m.ID == id })
	if i < 0 {
		return Market{}, false
	}
	return s.st.Markets[i], true
}

// Posições

func (s *Store) newPosition(in PositionInput) Position {
	status := in.Status
	if status == "" {
		status = PositionOpen
	}
	return Position{
		ID:        s.newID("pos"),
		MarketID:  in.MarketID,
		Side:      in.Side,
		Amount:    in.Amount,
		Odds:      in.Odds,
		Fees:      in.Fees,
		PayoutEst: in.PayoutEst,
		Timestamp: s.nowMs(),
		Status:    status,
	}
}

func (s *Store) AddPosition(ctx context.Context, in PositionInput) Position {
	p := s.newPosition(in)
	_, _ = s.dispatch(ctx, "addPosition", addPosition(p))
	return p
}

// OpenPosition adiciona a posição e debita cost de token atomicamente.
// Retorna ErrInsufficientBalance se o saldo não cobrir o custo.
func (s *Store) OpenPosition(ctx context.Context, in PositionInput, token string, cost money.Amount) (Position, error) {
	p := s.newPosition(in)
	if _, err := s.dispatch(ctx, "openPosition", openPosition(p, token, cost)); err != nil {
		return Position{}, err
	}
	return p, nil
}

func (s *Store) UpdatePosition(ctx context.Context, id string, p PositionPatch) error {
	_, err := s.dispatch(ctx, "updatePosition", updatePosition(id, p))
	return err
}

func (s *Store) Positions() []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.UserPositions)
}

func (s *Store) PositionsByMarket(marketID string) []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Position{}
	for _, p := range s.st.UserPositions {
		if p.MarketID == marketID {
			out = append(out, p)
		}
	}
	return out
}

// Contador

func (s *Store) IncrementCounter(ctx context.Context) int {
	st, _ := s.dispatch(ctx, "incrementCounter", addCounter(1))
	return st.CounterValue
}

func (s *Store) DecrementCounter(ctx context.Context) int {
	st, _ := s.dispatch(ctx, "decrementCounter", addCounter(-1))
	return st.CounterValue
}

func (s *Store) ResetCounter(ctx context.Context) int {
	st, _ := s.dispatch(ctx, "resetCounter", resetCounter())
	return st.CounterValue
}

// Carteira

func (s *Store) Balances() map[string]money.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBalances(s.st.Balances)
}

func (s *Store) Balance(token string) (money.Amount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.st.Balances[token]
	return v, ok
}

// SendTokens debita amount do token (envio mock)
func (s *Store) SendTokens(ctx context.Context, token string, amount money.Amount) (money.Amount, error) {
	st, err := s.dispatch(ctx, "sendTokens", sendTokens(token, amount))
	if err != nil {
		return 0, err
	}
	return st.Balances[token], nil
}

// DebitBalance debita amount do token exigindo saldo suficiente
func (s *Store) DebitBalance(ctx context.Context, token string, amount money.Amount) (money.Amount, error) {
	st, err := s.dispatch(ctx, "debitBalance", debitBalance(token, amount))
	if err != nil {
		return 0, err
	}
	return st.Balances[token], nil
}

func (s *Store) UpdateBalance(ctx context.Context, token string, amount money.Amount) error {
	_, err := s.dispatch(ctx, "updateBalance", updateBalance(token, amount))
	return err
}

// Jogo

func (s *Store) StartGame(ctx context.Context) CurrentGame {
	st, _ := s.dispatch(ctx, "startGame", startGame(s.nowMs()))
	return *st.CurrentGame
}

// SubmitRound registra uma rodada já pontuada e avança RoundNumber
func (s *Store) SubmitRound(ctx context.Context, probability float64, outcome bool, score float64) (brier.Round, error) {
	st, err := s.dispatch(ctx, "submitRound", submitRound(probability, outcome, score, s.nowMs()))
	if err != nil {
		return brier.Round{}, err
	}
	rounds := st.CurrentGame.Rounds
	return rounds[len(rounds)-1], nil
}

// FinishGame grava o resultado e volta para idle
func (s *Store) FinishGame(ctx context.Context, finalScore, percentile float64, badge brier.Badge) (GameResult, error) {
	st, err := s.dispatch(ctx, "finishGame", finishGame(s.newID("game"), finalScore, percentile, badge, s.nowMs()))
	if err != nil {
		return GameResult{}, err
	}
	return st.GameHistory[0], nil
}

func (s *Store) AbandonGame(ctx context.Context) error {
	_, err := s.dispatch(ctx, "abandonGame", abandonGame())
	return err
}

func (s *Store) CurrentGame() (CurrentGame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.st.CurrentGame == nil {
		return CurrentGame{}, false
	}
	cg := *s.st.CurrentGame
	cg.Rounds = slices.Clone(cg.Rounds)
	return cg, true
}

// Developer

func (s *Store) SetTransport(ctx context.Context, p TransportPatch) (Transport, error) {
	st, err := s.dispatch(ctx, "setTransport", setTransport(p))
	return st.Transport, err
}

func (s *Store) ToggleNotificationFeed(ctx context.Context) bool {
	st, _ := s.dispatch(ctx, "toggleNotificationFeed", toggleNotificationFeed())
	return st.ShowNotificationFeed
}

func (s *Store) TogglePerformanceMetrics(ctx context.Context) bool {
	st, _ := s.dispatch(ctx, "togglePerformanceMetrics", togglePerformanceMetrics())
	return st.ShowPerformanceMetrics
}
