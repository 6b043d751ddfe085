// Package wallet implementa o demo de transferência cross-chain. Nenhuma rede é
// acessada: as etapas só consomem a latência simulada e o saldo é debitado
// no store.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/shared/validation"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/pkg/contracts/events"
	"github.com/radieske/agora-market-poc/pkg/money"
)

// FailureRate é a chance de a transferência falhar
const FailureRate = 0.05

type Step string

const (
	StepIdle       Step = "idle"
	StepBuilding   Step = "building"
	StepSubmitting Step = "submitting"
	StepSettling   Step = "settling"
	StepSuccess    Step = "success"
	StepError      Step = "error"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrChainFailure é a falha simulada de building/submitting
	ErrChainFailure = errors.New("simulated chain failure")
)

type Publisher interface {
	Publish(ctx context.Context, typ, key string, payload any) error
}

type Notifier interface {
	Notify(in state.NotificationInput, delay time.Duration, startedAt time.Time)
}

type Metrics interface {
	IncTransfer(result string)
}

// Rand é a fonte dos sorteios de falha
type Rand interface {
	Float64() float64
}

type TransferRequest struct {
	Token     string  `json:"token" validate:"required" msg:"required=Please select a token"`
	Amount    float64 `json:"amount" validate:"gt=0" msg:"gt=Amount must be positive"`
	ToAddress string  `json:"toAddress" validate:"min=10,max=100" msg:"min=Address must be at least 10 characters;max=Address too long"`
}

// TransferResult informa até onde a transferência chegou
type TransferResult struct {
	Step      Step         `json:"step"`
	Steps     []Step       `json:"steps"`
	Error     string       `json:"error,omitempty"`
	Balance   money.Amount `json:"balance"`
	Fee       money.Amount `json:"fee"`
	ElapsedMs int64        `json:"elapsedMs"`
}

type Service struct {
	log      *zap.Logger
	store    *state.Store
	pub      Publisher
	notifier Notifier
	metrics  Metrics
	rng      Rand
	sleep    func(time.Duration)
	now      func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option       { return func(s *Service) { s.pub = p } }
func WithNotifier(n Notifier) Option         { return func(s *Service) { s.notifier = n } }
func WithMetrics(m Metrics) Option           { return func(s *Service) { s.metrics = m } }
func WithRand(r Rand) Option                 { return func(s *Service) { s.rng = r } }
func WithSleep(f func(time.Duration)) Option { return func(s *Service) { s.sleep = f } }

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

func NewService(log *zap.Logger, store *state.Store, opts ...Option) *Service {
	s := &Service{log: log, store: store, rng: globalRand{}, sleep: time.Sleep, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) validate(req TransferRequest) (money.Amount, error) {
	if err := validation.Struct(req); err != nil {
		return 0, err
	}
	amount, err := money.FromFloat(req.Amount)
	if errors.Is(err, money.ErrOutOfRange) {
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, &validation.Error{Field: "amount", Message: "Amount must be a valid number"}
	}
	bal, ok := s.store.Balance(req.Token)
	if !ok {
		return 0, &validation.Error{Field: "token", Message: fmt.Sprintf("Unknown token %s", req.Token)}
	}
	if amount > bal {
		return 0, ErrInsufficientBalance
	}
	return amount, nil
}

// Transfer executa building (40% da latência de mutação), submitting (30%) e
// settling (30%). Um único sorteio decide se falha; metade das falhas ocorre
// no building. Falhas não revertem nada porque o débito só acontece no settling.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	start := s.now()
	amount, err := s.validate(req)
	if err != nil {
		return TransferResult{Step: StepIdle}, err
	}

	ctx = context.WithoutCancel(ctx)
	mutation := s.store.Latency().MutationDelay()
	shouldFail := s.rng.Float64() < FailureRate
	res := TransferResult{Fee: money.CalculateTransferFee(amount)}

	res.Steps = append(res.Steps, StepBuilding)
	s.sleep(mutation * 4 / 10)
	if shouldFail && s.rng.Float64() > 0.5 {
		return s.fail(ctx, start, req, amount, res, StepBuilding, "Transaction building failed")
	}

	res.Steps = append(res.Steps, StepSubmitting)
	s.sleep(mutation * 3 / 10)
	if shouldFail {
		return s.fail(ctx, start, req, amount, res, StepSubmitting, "Transaction submission failed")
	}

	res.Steps = append(res.Steps, StepSettling)
	bal, err := s.store.SendTokens(ctx, req.Token, amount)
	if err != nil {
		return s.fail(ctx, start, req, amount, res, StepSettling, err.Error())
	}
	s.sleep(mutation * 3 / 10)

	res.Step = StepSuccess
	res.Balance = bal
	res.ElapsedMs = s.now().Sub(start).Milliseconds()

	if s.metrics != nil {
		s.metrics.IncTransfer("success")
	}
	s.publish(ctx, events.TypeTransferCompleted, events.TransferCompleted{
		Token:     req.Token,
		Amount:    amount.String(),
		ToAddress: req.ToAddress,
		ElapsedMs: res.ElapsedMs,
	})
	if s.notifier != nil {
		s.notifier.Notify(state.NotificationInput{
			Type:    state.NotificationChainMessage,
			Title:   "Transfer Completed",
			Message: fmt.Sprintf("Successfully sent %s %s to %s...", amount.Decimal().String(), req.Token, req.ToAddress[:10]),
		}, s.store.Latency().NotificationDelay(), start)
	}
	s.log.Info("transfer completed",
		zap.String("token", req.Token),
		zap.String("amount", amount.String()),
		zap.String("to", req.ToAddress),
		zap.Int64("elapsed_ms", res.ElapsedMs),
	)
	return res, nil
}

// fail registra a falha: notificação system imediata, sem rollback
func (s *Service) fail(ctx context.Context, start time.Time, req TransferRequest, amount money.Amount, res TransferResult, at Step, msg string) (TransferResult, error) {
	res.Step = StepError
	res.Error = msg
	res.Balance, _ = s.store.Balance(req.Token)
	res.ElapsedMs = s.now().Sub(start).Milliseconds()

	if s.metrics != nil {
		s.metrics.IncTransfer("failed")
	}
	s.publish(ctx, events.TypeTransferFailed, events.TransferFailed{
		Token:     req.Token,
		Amount:    amount.String(),
		ToAddress: req.ToAddress,
		Step:      string(at),
		Reason:    msg,
	})
	if s.notifier != nil {
		s.notifier.Notify(state.NotificationInput{
			Type:    state.NotificationSystem,
			Title:   "Transfer Failed",
			Message: msg,
		}, 0, time.Time{})
	}
	s.log.Warn("transfer failed", zap.String("token", req.Token), zap.String("step", string(at)), zap.String("reason", msg))
	return res, fmt.Errorf("%w: %s", ErrChainFailure, msg)
}

func (s *Service) publish(ctx context.Context, typ string, payload any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, typ, "wallet", payload); err != nil {
		s.log.Warn("publish failed", zap.String("type", typ), zap.Error(err))
	}
}

// Balances devolve os saldos com 2 casas
func (s *Service) Balances() map[string]string {
	return money.ToPreciseBalances(s.store.Balances())
}
