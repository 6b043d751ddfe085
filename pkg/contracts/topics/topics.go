package topics

const (
	// Eventos de domínio (bet_placed, transfer_*, game_finished, counter_changed)
	AgoraEvents = "agora_events"

	// DLQs
	AgoraEventsDLQ = "agora_events_dlq"
)

// Canal Redis Pub/Sub usado para replicar notificações entre réplicas da API
const NotificationsChannel = "agora_notifications_broadcast"
