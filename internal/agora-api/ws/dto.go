package ws

// Tópicos que o cliente pode assinar
const (
	TopicNotifications = "notifications"
	TopicLatency       = "latency"
)

// ClientMsg representa uma mensagem recebida do cliente WebSocket
type ClientMsg struct {
	Type  string `json:"type"`  // subscribe | unsubscribe | ping
	Topic string `json:"topic"` // requerido em subscribe/unsubscribe
}

// Message é o que o servidor envia (e o que trafega no Redis Pub/Sub)
type Message struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}
