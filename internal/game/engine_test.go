package game

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/shared/validation"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/pkg/brier"
	"github.com/radieske/agora-market-poc/pkg/contracts/events"
)

type fakePublisher struct {
	types []string
	last  any
}

func (f *fakePublisher) Publish(_ context.Context, typ, _ string, payload any) error {
	f.types = append(f.types, typ)
	f.last = payload
	return nil
}

type fakeMetrics struct {
	rounds int
	badges []string
}

func (f *fakeMetrics) IncGameRound()                { f.rounds++ }
func (f *fakeMetrics) IncGameFinished(badge string) { f.badges = append(f.badges, badge) }

func always(v bool) brier.OutcomeSource {
	return brier.OutcomeFunc(func() bool { return v })
}

func newEngine(outcome bool) (*Engine, *fakePublisher, *fakeMetrics) {
	pub, m := &fakePublisher{}, &fakeMetrics{}
	st := state.New(zap.NewNop(), nil, "k")
	return NewEngine(zap.NewNop(), st, always(outcome), WithPublisher(pub), WithMetrics(m)), pub, m
}

func TestSubmitValidation(t *testing.T) {
	e, _, _ := newEngine(true)
	ctx := context.Background()

	if _, err := e.Submit(ctx, SubmitRequest{Side: brier.SideYes, Confidence: 50}); !errors.Is(err, state.ErrNoActiveGame) {
		t.Fatalf("no game err = %v", err)
	}
	e.Start(ctx)

	for _, tt := range []SubmitRequest{
		{Side: "MAYBE", Confidence: 50},
		{Side: brier.SideYes, Confidence: 0},
		{Side: brier.SideYes, Confidence: 97},
		{Side: brier.SideYes, Confidence: 52},
		{Side: brier.SideNo, Confidence: 100},
	} {
		var verr *validation.Error
		if _, err := e.Submit(ctx, tt); !errors.As(err, &verr) {
			t.Errorf("Submit(%+v) err = %v, want validation error", tt, err)
		}
	}
}

func TestSubmitScoresRound(t *testing.T) {
	e, _, m := newEngine(false)
	ctx := context.Background()
	e.Start(ctx)

	// NO com 70% => 30% de YES; resultado NO => (0.3-0)^2
	r, err := e.Submit(ctx, SubmitRequest{Side: brier.SideNo, Confidence: 70})
	if err != nil {
		t.Fatal(err)
	}
	if r.Probability != 30 || r.Outcome || math.Abs(r.BrierScore-0.09) > 1e-12 || r.RoundNumber != 1 {
		t.Errorf("round = %+v", r)
	}
	sc, err := e.RunningScore()
	if err != nil || sc.Rounds != 1 || sc.Formatted != "0.090" {
		t.Errorf("running = %+v, %v", sc, err)
	}
	if m.rounds != 1 {
		t.Errorf("round metric = %d", m.rounds)
	}
}

func TestFinishPublishesResult(t *testing.T) {
	e, pub, m := newEngine(true)
	ctx := context.Background()

	if _, err := e.Finish(ctx); !errors.Is(err, state.ErrNoActiveGame) {
		t.Fatalf("finish idle err = %v", err)
	}
	if _, err := e.Advice(); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("advice err = %v", err)
	}

	res, err := e.Simulate(ctx, func(int) SubmitRequest {
		return SubmitRequest{Side: brier.SideYes, Confidence: 95}
	})
	if err != nil {
		t.Fatal(err)
	}
	// 95% YES, sempre YES: brier 0.0025, percentil 99.75
	if math.Abs(res.FinalScore-0.0025) > 1e-9 || res.Badge != brier.BadgePlatinum {
		t.Errorf("result = %+v", res)
	}
	if len(pub.types) != 1 || pub.types[0] != events.TypeGameFinished {
		t.Errorf("published = %v", pub.types)
	}
	if ev, ok := pub.last.(events.GameFinished); !ok || ev.GameID != res.ID {
		t.Errorf("payload = %+v", pub.last)
	}
	if len(m.badges) != 1 || m.badges[0] != "platinum" {
		t.Errorf("badges = %v", m.badges)
	}
	if _, ok := e.Current(); ok {
		t.Error("expected idle after finish")
	}

	adv, err := e.Advice()
	if err != nil {
		t.Fatal(err)
	}
	// 95 - 100 = -5: dentro da margem
	if adv.Trend != brier.TrendBalanced {
		t.Errorf("trend = %s", adv.Trend)
	}

	h := e.History()
	if h.TotalGames != 1 || math.Abs(h.BestScore-99.75) > 1e-9 {
		t.Errorf("history = %+v", h)
	}
}

func TestFinishEarlyFails(t *testing.T) {
	e, pub, _ := newEngine(true)
	ctx := context.Background()
	e.Start(ctx)
	if _, err := e.Submit(ctx, SubmitRequest{Side: brier.SideYes, Confidence: 60}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Finish(ctx); !errors.Is(err, state.ErrGameIncomplete) {
		t.Fatalf("err = %v", err)
	}
	if len(pub.types) != 0 {
		t.Error("nothing should be published")
	}
	if err := e.Abandon(ctx); err != nil {
		t.Fatal(err)
	}
	if e.History().TotalGames != 0 {
		t.Error("abandon must not record a game")
	}
}
