// Package repo guarda o blob JSON de estado em um armazenamento chave-valor.
package repo

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound indica que a chave ainda não foi gravada
var ErrNotFound = errors.New("not found")

// Memory mantém os blobs em memória (default local e testes)
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory { return &Memory{data: make(map[string][]byte)} }

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Save(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), blob...)
	return nil
}
