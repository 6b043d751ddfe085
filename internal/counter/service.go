// Package counter é o demo de mutação simples: incrementa, decrementa ou
// zera um contador persistido, sempre atrás da latência simulada.
package counter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/pkg/contracts/events"
)

type Action string

const (
	Increment Action = "increment"
	Decrement Action = "decrement"
	Reset     Action = "reset"
)

// label é o nome exibido na notificação ("Counter Incremented")
func (a Action) label() string {
	switch a {
	case Increment:
		return "Incremented"
	case Decrement:
		return "Decremented"
	case Reset:
		return "Reset"
	}
	return ""
}

func (a Action) Valid() bool { return a.label() != "" }

type Publisher interface {
	Publish(ctx context.Context, typ, key string, payload any) error
}

type Notifier interface {
	Notify(in state.NotificationInput, delay time.Duration, startedAt time.Time)
}

type Service struct {
	log      *zap.Logger
	store    *state.Store
	pub      Publisher
	notifier Notifier
	sleep    func(time.Duration)
	now      func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option       { return func(s *Service) { s.pub = p } }
func WithNotifier(n Notifier) Option         { return func(s *Service) { s.notifier = n } }
func WithSleep(f func(time.Duration)) Option { return func(s *Service) { s.sleep = f } }

func NewService(log *zap.Logger, store *state.Store, opts ...Option) *Service {
	s := &Service{log: log, store: store, sleep: time.Sleep, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Apply espera a latência de mutação, aplica a ação e agenda a notificação
func (s *Service) Apply(ctx context.Context, a Action) (int, error) {
	if !a.Valid() {
		return 0, fmt.Errorf("%w: counter action %q", state.ErrInvalidInput, a)
	}
	start := s.now()
	ctx = context.WithoutCancel(ctx)
	s.sleep(s.store.Latency().MutationDelay())

	var v int
	switch a {
	case Increment:
		v = s.store.IncrementCounter(ctx)
	case Decrement:
		v = s.store.DecrementCounter(ctx)
	case Reset:
		v = s.store.ResetCounter(ctx)
	}

	if s.pub != nil {
		if err := s.pub.Publish(ctx, events.TypeCounterChanged, "counter", events.CounterChanged{Action: string(a), Value: v}); err != nil {
			s.log.Warn("publish counter_changed failed", zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(state.NotificationInput{
			Type:    state.NotificationSystem,
			Title:   "Counter " + a.label(),
			Message: fmt.Sprintf("Counter value updated to %d", v),
		}, s.store.Latency().NotificationDelay(), start)
	}
	return v, nil
}
