// Package simulator gera notificações de demonstração em intervalo fixo.
package simulator

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/state"
)

type Notifier interface {
	Notify(in state.NotificationInput, delay time.Duration, startedAt time.Time)
}

// Templates são as notificações sorteadas pelo feed
var Templates = []state.NotificationInput{
	{
		Type:    state.NotificationBetPlaced,
		Title:   "Bet Placed",
		Message: `Your bet on "Bitcoin reaches $100k" has been placed successfully`,
	},
	{
		Type:    state.NotificationMarketResolved,
		Title:   "Market Resolved",
		Message: `The market "AI solves protein folding" has been resolved`,
	},
	{
		Type:    state.NotificationPositionUpdated,
		Title:   "Position Updated",
		Message: "Your position value has increased by 12%",
	},
	{
		Type:    state.NotificationChainMessage,
		Title:   "Cross-Chain Message",
		Message: "Received settlement from market chain",
	},
}

type Feed struct {
	Log      *zap.Logger
	Notifier Notifier
	Interval time.Duration
	IntN     func(n int) int // nil usa math/rand/v2
}

// Tick entrega uma notificação sorteada
func (f *Feed) Tick() state.NotificationInput {
	intn := f.IntN
	if intn == nil {
		intn = rand.IntN
	}
	in := Templates[intn(len(Templates))]
	f.Notifier.Notify(in, 0, time.Time{})
	return in
}

// Run dispara Tick a cada Interval até ctx ser cancelado
func (f *Feed) Run(ctx context.Context) {
	interval := f.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	f.Log.Info("notification feed simulator started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			in := f.Tick()
			f.Log.Debug("simulated notification", zap.String("type", string(in.Type)))
		}
	}
}
