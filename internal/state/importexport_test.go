package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/radieske/agora-market-poc/internal/shared/validation"
	"github.com/radieske/agora-market-poc/pkg/money"
)

func TestExport(t *testing.T) {
	s := newTestStore(t, nil)
	s.IncrementCounter(context.Background())

	f := s.Export(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	if f.ExportedAt != "2025-03-01T12:00:00.000Z" {
		t.Errorf("exportedAt = %s", f.ExportedAt)
	}
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	_ = json.Unmarshal(b, &raw)
	for _, k := range []string{"counterValue", "balances", "userPositions", "transport", "exportedAt"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("missing key %s in %s", k, b)
		}
	}
	if raw["counterValue"].(float64) != 1 {
		t.Errorf("counterValue = %v", raw["counterValue"])
	}
}

func TestImport(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		wantMsg string
	}{
		{name: "malformed", data: `{"counterValue": `, wantErr: ErrInvalidJSON},
		{name: "not json", data: `hello`, wantErr: ErrInvalidJSON},
		{name: "bad mode", data: `{"transport":{"mode":"grpc","faucetUrl":"a","validatorUrl":"b"}}`,
			wantMsg: "transport.mode must be one of mock, local-replica, custom"},
		{name: "missing url", data: `{"transport":{"mode":"mock","faucetUrl":"a"}}`,
			wantMsg: "transport.validatorUrl is required"},
		{name: "wrong type", data: `{"counterValue":"seven"}`, wantMsg: "counterValue: expected int, received string"},
		{name: "string balance", data: `{"balances":{"AGORA":"100"}}`, wantMsg: "balances.AGORA: expected number, received string"},
		{name: "null balance", data: `{"balances":{"USDC":null}}`, wantMsg: "balances.USDC: expected number, received null"},
		{name: "balance overflow", data: `{"balances":{"AGORA":1844674407371055.1616}}`,
			wantMsg: "balances.AGORA: invalid amount: out of range: 1844674407371055.1616"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, nil)
			_, err := s.Import(context.Background(), []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v (%T), want validation error", err, err)
			}
			if verr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", verr.Message, tt.wantMsg)
			}
		})
	}
}

func TestImportMergesFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	s.IncrementCounter(ctx)

	data := `{
		"balances": {"AGORA": 12.5, "USDC": 3},
		"transport": {"mode": "custom", "faucetUrl": "http://f", "validatorUrl": "http://v"},
		"unknownField": true
	}`
	st, err := s.Import(ctx, []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if st.CounterValue != 1 {
		t.Errorf("absent counterValue changed to %d", st.CounterValue)
	}
	if st.Balances["AGORA"] != money.MustParse("12.5") || len(st.Balances) != 2 {
		t.Errorf("balances = %v", st.Balances)
	}
	if st.Transport.Mode != TransportCustom || st.Transport.FaucetURL != "http://f" {
		t.Errorf("transport = %+v", st.Transport)
	}

	// round trip pelo export
	exported, _ := json.Marshal(s.Export(time.Now()))
	other := newTestStore(t, nil)
	got, err := other.Import(ctx, exported)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balances["USDC"] != money.Units(3) || got.Transport.ValidatorURL != "http://v" {
		t.Errorf("round trip = %+v", got)
	}
}
