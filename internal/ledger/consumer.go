// Package ledger consome os eventos de domínio publicados pela API e os
// acumula no Postgres. Mensagens ilegíveis vão para a DLQ.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/pkg/contracts/events"
)

var ErrUnknownType = errors.New("unknown event type")

type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Repo interface {
	Append(ctx context.Context, e Entry) error
}

// Processor lê do tópico de eventos e grava no ledger. Callbacks de métricas
// são opcionais.
type Processor struct {
	Log    *zap.Logger
	Reader Reader
	Repo   Repo
	DLQ    Writer // nil descarta

	Retries int           // tentativas extras de gravação
	Backoff time.Duration // base do backoff linear

	OnConsumed func(typ string)
	OnPersist  func()
	OnError    func(phase string)
	OnDLQ      func()
}

// Run consome até ctx ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			if err := wait(ctx, 500*time.Millisecond); err != nil {
				return err
			}
			continue
		}
		if err := p.Handle(ctx, m); err != nil {
			p.Log.Warn("event not persisted", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

// Handle processa uma mensagem: decodifica o envelope, grava com retry e, se
// não houver jeito, encaminha para a DLQ
func (p *Processor) Handle(ctx context.Context, m kafka.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		p.fail("decode")
		return p.deadLetter(ctx, m, fmt.Errorf("decode envelope: %w", err))
	}
	if !events.Known(env.Type) || len(env.Payload) == 0 {
		p.fail("decode")
		return p.deadLetter(ctx, m, fmt.Errorf("%w: %q", ErrUnknownType, env.Type))
	}
	if p.OnConsumed != nil {
		p.OnConsumed(env.Type)
	}

	e := Entry{Type: env.Type, Key: env.Key, Payload: env.Payload, TsUnixMs: env.TsUnixMs, KafkaOffset: m.Offset}
	err := p.Repo.Append(ctx, e)
	for i := 0; err != nil && i < p.Retries; i++ {
		if werr := wait(ctx, p.Backoff*time.Duration(i+1)); werr != nil {
			// sem DLQ: a mensagem volta na próxima leitura
			return fmt.Errorf("append %s: %w", env.Type, werr)
		}
		err = p.Repo.Append(ctx, e)
	}
	if err != nil {
		p.fail("db")
		return p.deadLetter(ctx, m, fmt.Errorf("append %s: %w", env.Type, err))
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}
	p.Log.Debug("event persisted", zap.String("type", env.Type), zap.String("key", env.Key), zap.Int64("offset", m.Offset))
	return nil
}

// wait dorme d ou até ctx ser cancelado
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, cause error) error {
	if p.DLQ == nil {
		return cause
	}
	dlq := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Time:  time.Now(),
		Headers: append(append([]kafka.Header(nil), m.Headers...),
			kafka.Header{Key: "error", Value: []byte(cause.Error())}),
	}
	if err := p.DLQ.WriteMessages(ctx, dlq); err != nil {
		return errors.Join(cause, fmt.Errorf("dlq write: %w", err))
	}
	if p.OnDLQ != nil {
		p.OnDLQ()
	}
	return cause
}

func (p *Processor) fail(phase string) {
	if p.OnError != nil {
		p.OnError(phase)
	}
}
