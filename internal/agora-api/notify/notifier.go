// Package notify entrega notificações com o atraso simulado: grava no store,
// atualiza a latência ponta a ponta e avisa os clientes WebSocket.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/agora-api/ws"
	"github.com/radieske/agora-market-poc/internal/state"
)

type Broadcaster interface {
	Broadcast(msg ws.Message)
}

type Metrics interface {
	IncNotification(typ string)
	ObserveEndToEnd(d time.Duration)
}

type Notifier struct {
	log   *zap.Logger
	store *state.Store
	hub   Broadcaster

	// com Redis a mensagem vai para o canal e o subscriber de cada réplica
	// faz o broadcast; sem Redis vai direto para o hub local
	redis   *redis.Client
	channel string

	metrics Metrics
	after   func(d time.Duration, f func())
	now     func() time.Time
	wg      sync.WaitGroup
}

type Option func(*Notifier)

func WithRedis(r *redis.Client, channel string) Option {
	return func(n *Notifier) { n.redis, n.channel = r, channel }
}

func WithMetrics(m Metrics) Option { return func(n *Notifier) { n.metrics = m } }

// WithAfter troca o agendamento (testes usam execução imediata)
func WithAfter(f func(d time.Duration, fn func())) Option { return func(n *Notifier) { n.after = f } }

func WithClock(now func() time.Time) Option { return func(n *Notifier) { n.now = now } }

func New(log *zap.Logger, store *state.Store, hub Broadcaster, opts ...Option) *Notifier {
	n := &Notifier{
		log:   log,
		store: store,
		hub:   hub,
		after: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:   time.Now,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Notify agenda a entrega para daqui a delay. Se startedAt não for zero, a
// latência endToEnd passa a ser o tempo entre startedAt e a entrega.
func (n *Notifier) Notify(in state.NotificationInput, delay time.Duration, startedAt time.Time) {
	n.wg.Add(1)
	n.after(max(delay, 0), func() {
		defer n.wg.Done()
		n.deliver(in, startedAt)
	})
}

func (n *Notifier) deliver(in state.NotificationInput, startedAt time.Time) {
	ctx := context.Background()
	notif, err := n.store.AddNotification(ctx, in)
	if err != nil {
		n.log.Warn("add notification failed", zap.String("type", string(in.Type)), zap.Error(err))
		return
	}
	if n.metrics != nil {
		n.metrics.IncNotification(string(notif.Type))
	}
	n.publish(ctx, ws.Message{Topic: ws.TopicNotifications, Payload: notif})

	if startedAt.IsZero() {
		return
	}
	e2e := n.now().Sub(startedAt)
	ms := int(e2e.Milliseconds())
	lat := n.store.UpdateLatency(ctx, state.LatencyPatch{EndToEnd: &ms})
	if n.metrics != nil {
		n.metrics.ObserveEndToEnd(e2e)
	}
	n.publish(ctx, ws.Message{Topic: ws.TopicLatency, Payload: lat})
}

func (n *Notifier) publish(ctx context.Context, msg ws.Message) {
	if n.redis == nil {
		if n.hub != nil {
			n.hub.Broadcast(msg)
		}
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		n.log.Warn("marshal ws message failed", zap.Error(err))
		return
	}
	if err := n.redis.Publish(ctx, n.channel, b).Err(); err != nil {
		// Redis fora: entrega ao menos aos clientes desta réplica
		n.log.Warn("redis publish failed", zap.String("channel", n.channel), zap.Error(err))
		if n.hub != nil {
			n.hub.Broadcast(msg)
		}
	}
}

// Wait bloqueia até todas as entregas agendadas terminarem (shutdown)
func (n *Notifier) Wait() { n.wg.Wait() }
