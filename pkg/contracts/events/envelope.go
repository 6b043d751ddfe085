package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tipos de evento publicados no tópico agora_events
const (
	TypeBetPlaced         = "bet_placed"
	TypeTransferCompleted = "transfer_completed"
	TypeTransferFailed    = "transfer_failed"
	TypeGameFinished      = "game_finished"
	TypeCounterChanged    = "counter_changed"
)

// Envelope embrulha qualquer evento de domínio com tipo e timestamp
type Envelope struct {
	Type     string          `json:"type"`
	Key      string          `json:"key,omitempty"`
	Payload  json.RawMessage `json:"payload"`
	TsUnixMs int64           `json:"ts_unix_ms"`
}

// Wrap serializa o payload dentro de um Envelope
func Wrap(typ, key string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Envelope{Type: typ, Key: key, Payload: b, TsUnixMs: time.Now().UnixMilli()}, nil
}

// Known reports whether typ is one of the event types above.
func Known(typ string) bool {
	switch typ {
	case TypeBetPlaced, TypeTransferCompleted, TypeTransferFailed, TypeGameFinished, TypeCounterChanged:
		return true
	}
	return false
}
