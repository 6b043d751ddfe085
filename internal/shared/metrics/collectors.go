package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Agora agrupa os coletores da API. Um Agora nil é válido e não registra nada.
type Agora struct {
	BetsPlaced    prometheus.Counter
	BetVolume     prometheus.Counter
	Transfers     *prometheus.CounterVec // result=success|failed
	GamesFinished *prometheus.CounterVec // badge
	GameRounds    prometheus.Counter
	Notifications *prometheus.CounterVec // type
	EndToEnd      prometheus.Histogram
	PersistErrors prometheus.Counter
	PublishErrors prometheus.Counter
	WSClients     prometheus.Gauge
}

func NewAgora(reg prometheus.Registerer) *Agora {
	m := &Agora{
		BetsPlaced: prometheus.NewCounter(prometheus.CounterOpts{Name: "agora_bets_placed_total", Help: "apostas abertas"}),
		BetVolume:  prometheus.NewCounter(prometheus.CounterOpts{Name: "agora_bet_volume_agora_total", Help: "volume apostado em AGORA"}),
		Transfers: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "agora_transfers_total", Help: "transferências por resultado"},
			[]string{"result"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "agora_games_finished_total", Help: "partidas encerradas por badge"},
			[]string{"badge"}),
		GameRounds: prometheus.NewCounter(prometheus.CounterOpts{Name: "agora_game_rounds_total", Help: "rodadas jogadas"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "agora_notifications_total", Help: "notificações entregues por tipo"},
			[]string{"type"}),
		EndToEnd: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agora_end_to_end_latency_seconds",
			Help:    "latência simulada de ponta a ponta (mutação + notificação)",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{Name: "agora_state_persist_errors_total", Help: "falhas ao salvar o blob de estado"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{Name: "agora_event_publish_errors_total", Help: "falhas ao publicar eventos"}),
		WSClients:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "agora_ws_clients", Help: "clientes websocket conectados"}),
	}
	if reg != nil {
		reg.MustRegister(m.BetsPlaced, m.BetVolume, m.Transfers, m.GamesFinished, m.GameRounds,
			m.Notifications, m.EndToEnd, m.PersistErrors, m.PublishErrors, m.WSClients)
	}
	return m
}

func (m *Agora) ObserveEndToEnd(d time.Duration) {
	if m == nil {
		return
	}
	m.EndToEnd.Observe(d.Seconds())
}

func (m *Agora) IncPersistError() {
	if m == nil {
		return
	}
	m.PersistErrors.Inc()
}

func (m *Agora) IncPublishError() {
	if m == nil {
		return
	}
	m.PublishErrors.Inc()
}

func (m *Agora) IncNotification(typ string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(typ).Inc()
}

func (m *Agora) IncBet(amount float64) {
	if m == nil {
		return
	}
	m.BetsPlaced.Inc()
	m.BetVolume.Add(amount)
}

func (m *Agora) IncTransfer(result string) {
	if m == nil {
		return
	}
	m.Transfers.WithLabelValues(result).Inc()
}

func (m *Agora) IncGameRound() {
	if m == nil {
		return
	}
	m.GameRounds.Inc()
}

func (m *Agora) IncGameFinished(badge string) {
	if m == nil {
		return
	}
	m.GamesFinished.WithLabelValues(badge).Inc()
}

func (m *Agora) AddWSClients(delta float64) {
	if m == nil {
		return
	}
	m.WSClients.Add(delta)
}

// Ledger agrupa os coletores do ledger-worker
type Ledger struct {
	Consumed  *prometheus.CounterVec // type
	Persisted prometheus.Counter
	Errors    *prometheus.CounterVec // phase=read|decode|db
	DLQ       prometheus.Counter
}

func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		Consumed: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_events_consumed_total", Help: "eventos lidos do kafka por tipo"},
			[]string{"type"}),
		Persisted: prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_events_persisted_total", Help: "eventos gravados no event_ledger"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_errors_total", Help: "falhas por fase"},
			[]string{"phase"}),
		DLQ: prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_dlq_total", Help: "mensagens enviadas para a DLQ"}),
	}
	if reg != nil {
		reg.MustRegister(m.Consumed, m.Persisted, m.Errors, m.DLQ)
	}
	return m
}
