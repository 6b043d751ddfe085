// Package game conduz o jogo de calibração: 10 rodadas, cada uma com um lado
// (YES/NO) e uma confiança, pontuadas pelo Brier score.
package game

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/shared/validation"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/pkg/brier"
	"github.com/radieske/agora-market-poc/pkg/contracts/events"
)

// Publisher publica eventos de domínio (Kafka ou nop)
type Publisher interface {
	Publish(ctx context.Context, typ, key string, payload any) error
}

// Metrics é o subconjunto de coletores usado pelo jogo
type Metrics interface {
	IncGameRound()
	IncGameFinished(badge string)
}

// SubmitRequest é o payload de uma rodada
type SubmitRequest struct {
	Side       brier.Side `json:"side" validate:"required,oneof=YES NO" msg:"required=Pick YES or NO;oneof=Pick YES or NO"`
	Confidence float64    `json:"confidence" validate:"required" msg:"required=Confidence is required"`
}

// Score resume as rodadas jogadas até agora
type Score struct {
	Rounds     int     `json:"rounds"`
	Brier      float64 `json:"brier"`
	Percentile float64 `json:"percentile"`
	Formatted  string  `json:"formatted"`
}

type Engine struct {
	log      *zap.Logger
	store    *state.Store
	outcomes brier.OutcomeSource
	pub      Publisher
	metrics  Metrics
}

type Option func(*Engine)

func WithPublisher(p Publisher) Option { return func(e *Engine) { e.pub = p } }
func WithMetrics(m Metrics) Option     { return func(e *Engine) { e.metrics = m } }

// NewEngine cria o motor; outcomes nil usa uma moeda honesta
func NewEngine(log *zap.Logger, store *state.Store, outcomes brier.OutcomeSource, opts ...Option) *Engine {
	if outcomes == nil {
		outcomes = brier.NewCoinFlip(0)
	}
	e := &Engine{log: log, store: store, outcomes: outcomes}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start abre uma partida nova (descarta a que estiver em andamento)
func (e *Engine) Start(ctx context.Context) state.CurrentGame {
	cg := e.store.StartGame(ctx)
	e.log.Debug("game started", zap.Int64("started_at", cg.StartedAt))
	return cg
}

// Submit joga uma rodada. A confiança no lado escolhido vira probabilidade de YES;
// o resultado vem da OutcomeSource e independe da confiança.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (brier.Round, error) {
	if err := validation.Struct(req); err != nil {
		return brier.Round{}, err
	}
	if !brier.ValidProbability(req.Confidence) {
		return brier.Round{}, &validation.Error{
			Field:   "confidence",
			Message: fmt.Sprintf("Confidence must be between %d and %d in steps of %d", brier.MinProbability, brier.MaxProbability, brier.ProbabilityStep),
		}
	}
	if _, ok := e.store.CurrentGame(); !ok {
		return brier.Round{}, state.ErrNoActiveGame
	}

	prob := brier.ProbabilityForSide(req.Side, req.Confidence)
	outcome := e.outcomes.Outcome()
	score := brier.CalculateBrierScore(outcome, prob)

	r, err := e.store.SubmitRound(ctx, prob, outcome, score)
	if err != nil {
		return brier.Round{}, err
	}
	if e.metrics != nil {
		e.metrics.IncGameRound()
	}
	return r, nil
}

// Finish fecha a partida após a 10ª rodada e grava o resultado
func (e *Engine) Finish(ctx context.Context) (state.GameResult, error) {
	cg, ok := e.store.CurrentGame()
	if !ok {
		return state.GameResult{}, state.ErrNoActiveGame
	}
	avg := brier.CalculateAverageScore(cg.Rounds)
	pct := brier.ToPercentileScore(avg)
	badge := brier.CalculateBadge(pct)

	res, err := e.store.FinishGame(ctx, avg, pct, badge)
	if err != nil {
		return state.GameResult{}, err
	}

	if e.metrics != nil {
		e.metrics.IncGameFinished(string(badge))
	}
	if e.pub != nil {
		err := e.pub.Publish(ctx, events.TypeGameFinished, res.ID, events.GameFinished{
			GameID:          res.ID,
			FinalScore:      res.FinalScore,
			PercentileScore: res.PercentileScore,
			Badge:           string(res.Badge),
			TotalRounds:     res.TotalRounds,
			Overconfident:   res.Overconfident,
			Underconfident:  res.Underconfident,
		})
		if err != nil {
			e.log.Warn("publish game_finished failed", zap.String("game_id", res.ID), zap.Error(err))
		}
	}
	e.log.Info("game finished",
		zap.String("game_id", res.ID),
		zap.String("score", brier.FormatScore(avg)),
		zap.String("badge", string(badge)),
	)
	return res, nil
}

func (e *Engine) Abandon(ctx context.Context) error {
	return e.store.AbandonGame(ctx)
}

func (e *Engine) Current() (state.CurrentGame, bool) {
	return e.store.CurrentGame()
}

// RunningScore é a média parcial da partida em andamento
func (e *Engine) RunningScore() (Score, error) {
	cg, ok := e.store.CurrentGame()
	if !ok {
		return Score{}, state.ErrNoActiveGame
	}
	return scoreOf(cg.Rounds), nil
}

func scoreOf(rounds []brier.Round) Score {
	avg := brier.CalculateAverageScore(rounds)
	return Score{
		Rounds:     len(rounds),
		Brier:      avg,
		Percentile: brier.ToPercentileScore(avg),
		Formatted:  brier.FormatScore(avg),
	}
}

// ErrNoHistory indica que nenhuma partida foi concluída
var ErrNoHistory = errors.New("no finished games")

// Advice avalia a calibração da partida mais recente
func (e *Engine) Advice() (brier.Advice, error) {
	hist := e.store.Snapshot().GameHistory
	if len(hist) == 0 {
		return brier.Advice{}, ErrNoHistory
	}
	return brier.GetCalibrationAdvice(hist[0].Rounds), nil
}

// Stats agrega o histórico de partidas
type Stats struct {
	BestScore   float64            `json:"bestScore"`
	TotalGames  int                `json:"totalGames"`
	GameHistory []state.GameResult `json:"gameHistory"`
}

func (e *Engine) History() Stats {
	st := e.store.Snapshot()
	return Stats{BestScore: st.BestScore, TotalGames: st.TotalGames, GameHistory: st.GameHistory}
}

// Simulate joga uma partida completa com uma estratégia fixa (CLI e testes).
// pick recebe o número da rodada e devolve lado e confiança.
func (e *Engine) Simulate(ctx context.Context, pick func(round int) SubmitRequest) (state.GameResult, error) {
	e.Start(ctx)
	for i := 1; i <= state.GameRounds; i++ {
		if _, err := e.Submit(ctx, pick(i)); err != nil {
			return state.GameResult{}, fmt.Errorf("round %d: %w", i, err)
		}
	}
	return e.Finish(ctx)
}
