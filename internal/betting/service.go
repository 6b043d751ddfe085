// Package betting implementa o bet ticket: valida a aposta, abre a posição
// com o detalhamento de taxas e debita o custo total do saldo AGORA.
package betting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/shared/validation"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/pkg/brier"
	"github.com/radieske/agora-market-poc/pkg/contracts/events"
	"github.com/radieske/agora-market-poc/pkg/money"
)

// Token usado para apostas
const Token = string(money.AGORA)

var ErrInsufficientBalance = errors.New("insufficient balance")

type Publisher interface {
	Publish(ctx context.Context, typ, key string, payload any) error
}

// Notifier entrega uma notificação após delay; startedAt marca o início da
// operação para medir a latência ponta a ponta (zero = não medir)
type Notifier interface {
	Notify(in state.NotificationInput, delay time.Duration, startedAt time.Time)
}

type Metrics interface {
	IncBet(amount float64)
}

type BetRequest struct {
	MarketID string     `json:"marketId" validate:"required" msg:"required=Market is required"`
	Side     brier.Side `json:"side" validate:"required,oneof=YES NO" msg:"required=Pick YES or NO;oneof=Pick YES or NO"`
	Amount   float64    `json:"amount" validate:"gt=0,min=1" msg:"gt=Amount must be positive;min=Minimum bet is 1"`
}

type BetResult struct {
	Position state.Position     `json:"position"`
	Fees     money.FeeBreakdown `json:"fees"`
	Balance  money.Amount       `json:"balance"`
}

// Quote é a prévia exibida antes de confirmar
type Quote struct {
	Fees      money.FeeBreakdown `json:"fees"`
	Odds      int                `json:"odds"`
	PayoutEst string             `json:"payoutEst"`
}

type Service struct {
	log      *zap.Logger
	store    *state.Store
	pub      Publisher
	notifier Notifier
	metrics  Metrics
	sleep    func(time.Duration)
	now      func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option { return func(s *Service) { s.pub = p } }
func WithNotifier(n Notifier) Option   { return func(s *Service) { s.notifier = n } }
func WithMetrics(m Metrics) Option     { return func(s *Service) { s.metrics = m } }

// WithSleep troca a espera da latência simulada (testes)
func WithSleep(f func(time.Duration)) Option { return func(s *Service) { s.sleep = f } }

func NewService(log *zap.Logger, store *state.Store, opts ...Option) *Service {
	s := &Service{log: log, store: store, sleep: time.Sleep, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// QuoteBet calcula taxas e payout estimado sem tocar no estado
func QuoteBet(amount money.Amount, odds int) (Quote, error) {
	payout, err := money.CalculatePayout(amount, odds)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Fees: money.CalculateBetFees(amount), Odds: odds, PayoutEst: payout.StringFixed(2)}, nil
}

// PlaceBet valida e abre a posição. Depois de iniciada a espera de latência
// a operação vai até o fim mesmo que ctx seja cancelado.
func (s *Service) PlaceBet(ctx context.Context, req BetRequest) (BetResult, error) {
	start := s.now()

	if err := validation.Struct(req); err != nil {
		return BetResult{}, err
	}
	market, ok := s.store.Market(req.MarketID)
	if !ok {
		return BetResult{}, fmt.Errorf("%w: %s", state.ErrMarketNotFound, req.MarketID)
	}
	amount, err := money.FromFloat(req.Amount)
	if errors.Is(err, money.ErrOutOfRange) {
		return BetResult{}, ErrInsufficientBalance
	}
	if err != nil {
		return BetResult{}, &validation.Error{Field: "amount", Message: "Amount must be a valid number"}
	}
	balance, _ := s.store.Balance(Token)
	if !money.HasSufficientBalance(amount, balance) {
		return BetResult{}, ErrInsufficientBalance
	}

	odds := market.OddsFor(req.Side)
	payout, err := money.CalculatePayout(amount, odds)
	if err != nil {
		return BetResult{}, fmt.Errorf("%w: market %s has odds %d", state.ErrInvalidInput, market.ID, odds)
	}
	fb := money.CalculateBetFees(amount)
	// debita o custo como exibido (2 casas)
	cost, err := money.ToInt(fb.TotalCost)
	if err != nil {
		return BetResult{}, err
	}

	ctx = context.WithoutCancel(ctx)
	s.sleep(s.store.Latency().MutationDelay())

	pos, err := s.store.OpenPosition(ctx, state.PositionInput{
		MarketID:  market.ID,
		Side:      req.Side,
		Amount:    amount,
		Odds:      odds,
		Fees:      fb.Fees,
		PayoutEst: payout,
		Status:    state.PositionOpen,
	}, Token, cost)
	if errors.Is(err, state.ErrInsufficientBalance) {
		return BetResult{}, ErrInsufficientBalance
	}
	if err != nil {
		return BetResult{}, err
	}

	if s.metrics != nil {
		s.metrics.IncBet(amount.Float())
	}
	if s.pub != nil {
		err := s.pub.Publish(ctx, events.TypeBetPlaced, pos.ID, events.BetPlaced{
			PositionID: pos.ID,
			MarketID:   market.ID,
			Side:       string(req.Side),
			Amount:     amount.String(),
			Odds:       odds,
			TotalFees:  fb.TotalFees,
			TotalCost:  fb.TotalCost,
			PayoutEst:  payout.String(),
		})
		if err != nil {
			s.log.Warn("publish bet_placed failed", zap.String("position_id", pos.ID), zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(state.NotificationInput{
			Type:    state.NotificationBetPlaced,
			Title:   "Bet Placed Successfully",
			Message: fmt.Sprintf("%s on %q for %s AGORA", req.Side, market.Question, amount.Decimal().String()),
			Data: map[string]any{
				"marketId": market.ID,
				"side":     string(req.Side),
				"amount":   amount.Float(),
			},
		}, s.store.Latency().NotificationDelay(), start)
	}

	bal, _ := s.store.Balance(Token)
	s.log.Info("bet placed",
		zap.String("position_id", pos.ID),
		zap.String("market_id", market.ID),
		zap.String("side", string(req.Side)),
		zap.String("amount", amount.String()),
		zap.String("total_cost", fb.TotalCost),
	)
	return BetResult{Position: pos, Fees: fb, Balance: bal}, nil
}
