package producer

import (
	"context"

	"github.com/segmentio/kafka-go"

	skafka "github.com/radieske/agora-market-poc/internal/shared/kafka"
	"github.com/radieske/agora-market-poc/pkg/contracts/events"
)

// KafkaPublisher embrulha eventos de domínio em events.Envelope e grava no tópico
type KafkaPublisher struct {
	Writer *kafka.Writer

	OnError func() // métricas
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, typ, key string, payload any) error {
	env, err := events.Wrap(typ, key, payload)
	if err == nil {
		err = skafka.WriteEnvelope(ctx, p.Writer, env)
	}
	if err != nil && p.OnError != nil {
		p.OnError()
	}
	return err
}

func (p *KafkaPublisher) Close() error { return p.Writer.Close() }

// Nop descarta eventos (KAFKA_BROKERS vazio)
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                       { return nil }
