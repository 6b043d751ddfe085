package wallet

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/shared/validation"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/pkg/contracts/events"
	"github.com/radieske/agora-market-poc/pkg/money"
)

// seqRand devolve os valores na ordem dada
type seqRand struct{ vals []float64 }

func (r *seqRand) Float64() float64 {
	v := r.vals[0]
	r.vals = r.vals[1:]
	return v
}

type recPublisher struct{ types []string }

func (r *recPublisher) Publish(_ context.Context, typ, _ string, _ any) error {
	r.types = append(r.types, typ)
	return nil
}

type recNotifier struct {
	got    []state.NotificationInput
	delays []time.Duration
}

func (r *recNotifier) Notify(in state.NotificationInput, d time.Duration, _ time.Time) {
	r.got = append(r.got, in)
	r.delays = append(r.delays, d)
}

const addr = "0x1234567890abcdef"

func newService(vals ...float64) (*Service, *state.Store, *recPublisher, *recNotifier, *[]time.Duration) {
	st := state.New(zap.NewNop(), nil, "k")
	pub, notif := &recPublisher{}, &recNotifier{}
	var slept []time.Duration
	svc := NewService(zap.NewNop(), st,
		WithPublisher(pub),
		WithNotifier(notif),
		WithRand(&seqRand{vals: vals}),
		WithSleep(func(d time.Duration) { slept = append(slept, d) }),
	)
	return svc, st, pub, notif, &slept
}

func TestTransferValidation(t *testing.T) {
	svc, _, _, _, _ := newService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  TransferRequest
		msg  string
	}{
		{"no token", TransferRequest{Amount: 1, ToAddress: addr}, "Please select a token"},
		{"zero amount", TransferRequest{Token: "USDC", Amount: 0, ToAddress: addr}, "Amount must be positive"},
		{"short address", TransferRequest{Token: "USDC", Amount: 1, ToAddress: "0x12"}, "Address must be at least 10 characters"},
		{"long address", TransferRequest{Token: "USDC", Amount: 1, ToAddress: strings.Repeat("a", 101)}, "Address too long"},
		{"unknown token", TransferRequest{Token: "DOGE", Amount: 1, ToAddress: addr}, "Unknown token DOGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Transfer(ctx, tt.req)
			var verr *validation.Error
			if !errors.As(err, &verr) || verr.Message != tt.msg {
				t.Fatalf("err = %v, want %q", err, tt.msg)
			}
			if res.Step != StepIdle {
				t.Errorf("step = %s", res.Step)
			}
		})
	}

	if _, err := svc.Transfer(ctx, TransferRequest{Token: "LINERA", Amount: 250.01, ToAddress: addr}); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("overdraft err = %v", err)
	}
	// escalado passa de int64
	if _, err := svc.Transfer(ctx, TransferRequest{Token: "USDC", Amount: 1844674407371055.25, ToAddress: addr}); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("huge amount err = %v", err)
	}
}

func TestTransferSuccess(t *testing.T) {
	svc, st, pub, notif, slept := newService(0.9)

	res, err := svc.Transfer(context.Background(), TransferRequest{Token: "USDC", Amount: 125.5, ToAddress: addr})
	if err != nil {
		t.Fatal(err)
	}
	if res.Step != StepSuccess || len(res.Steps) != 3 {
		t.Errorf("result = %+v", res)
	}
	if bal, _ := st.Balance("USDC"); bal != money.MustParse("374.5") || res.Balance != bal {
		t.Errorf("balance = %s", bal)
	}
	// 247ms * 40/30/30%
	want := []time.Duration{98800 * time.Microsecond, 74100 * time.Microsecond, 74100 * time.Microsecond}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep %d = %v, want %v", i, (*slept)[i], d)
		}
	}
	if len(pub.types) != 1 || pub.types[0] != events.TypeTransferCompleted {
		t.Errorf("published = %v", pub.types)
	}
	if len(notif.got) != 1 || notif.got[0].Type != state.NotificationChainMessage {
		t.Fatalf("notifications = %+v", notif.got)
	}
	if notif.got[0].Message != "Successfully sent 125.5 USDC to 0x12345678..." {
		t.Errorf("message = %q", notif.got[0].Message)
	}
}

func TestTransferFailures(t *testing.T) {
	tests := []struct {
		name  string
		vals  []float64
		step  Step
		msg   string
		steps int
	}{
		{"building", []float64{0.01, 0.9}, StepBuilding, "Transaction building failed", 1},
		{"submitting", []float64{0.01, 0.2}, StepSubmitting, "Transaction submission failed", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st, pub, notif, _ := newService(tt.vals...)
			res, err := svc.Transfer(context.Background(), TransferRequest{Token: "AGORA", Amount: 10, ToAddress: addr})
			if !errors.Is(err, ErrChainFailure) {
				t.Fatalf("err = %v", err)
			}
			if res.Step != StepError || res.Error != tt.msg || len(res.Steps) != tt.steps {
				t.Errorf("result = %+v", res)
			}
			if bal, _ := st.Balance("AGORA"); bal != money.Units(1000) {
				t.Errorf("balance changed to %s", bal)
			}
			if len(pub.types) != 1 || pub.types[0] != events.TypeTransferFailed {
				t.Errorf("published = %v", pub.types)
			}
			if len(notif.got) != 1 || notif.got[0].Type != state.NotificationSystem || notif.delays[0] != 0 {
				t.Errorf("notification = %+v %v", notif.got, notif.delays)
			}
		})
	}
}

func TestBalances(t *testing.T) {
	svc, _, _, _, _ := newService()
	got := svc.Balances()
	if got["AGORA"] != "1000.00" || got["LINERA"] != "250.00" {
		t.Errorf("balances = %v", got)
	}
}
