package betting

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/shared/validation"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/pkg/brier"
	"github.com/radieske/agora-market-poc/pkg/contracts/events"
	"github.com/radieske/agora-market-poc/pkg/money"
)

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

func newService(t *testing.T) (*Service, *state.Store, *recPublisher, *recNotifier, *[]time.Duration) {
	t.Helper()
	st := state.New(zap.NewNop(), nil, "k")
	pub, notif := &recPublisher{}, &recNotifier{}
	var slept []time.Duration
	svc := NewService(zap.NewNop(), st,
		WithPublisher(pub),
		WithNotifier(notif),
		WithSleep(func(d time.Duration) { slept = append(slept, d) }),
	)
	return svc, st, pub, notif, &slept
}

func TestPlaceBetValidation(t *testing.T) {
	svc, st, _, _, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  BetRequest
		msg  string
	}{
		{"zero", BetRequest{MarketID: "market_1", Side: brier.SideYes, Amount: 0}, "Amount must be positive"},
		{"negative", BetRequest{MarketID: "market_1", Side: brier.SideYes, Amount: -3}, "Amount must be positive"},
		{"below minimum", BetRequest{MarketID: "market_1", Side: brier.SideYes, Amount: 0.5}, "Minimum bet is 1"},
		{"bad side", BetRequest{MarketID: "market_1", Side: "MAYBE", Amount: 10}, "Pick YES or NO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceBet(ctx, tt.req)
			var verr *validation.Error
			if !errors.As(err, &verr) || verr.Message != tt.msg {
				t.Fatalf("err = %v, want %q", err, tt.msg)
			}
		})
	}

	if _, err := svc.PlaceBet(ctx, BetRequest{MarketID: "nope", Side: brier.SideYes, Amount: 10}); !errors.Is(err, state.ErrMarketNotFound) {
		t.Errorf("unknown market err = %v", err)
	}
	// 1000 + 3.5 de taxas > 1000
	if _, err := svc.PlaceBet(ctx, BetRequest{MarketID: "market_1", Side: brier.SideYes, Amount: 1000}); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("overdraft err = %v", err)
	}
	if len(st.Positions()) != 0 {
		t.Error("failed bets must not open positions")
	}
}

func TestPlaceBetRejectsHugeAmounts(t *testing.T) {
	svc, st, pub, _, _ := newService(t)
	ctx := context.Background()

	// só a primeira passa de int64 depois de escalada
	for _, amount := range []float64{1844674407371055.25, 9e14, 1e12} {
		_, err := svc.PlaceBet(ctx, BetRequest{MarketID: "market_1", Side: brier.SideYes, Amount: amount})
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("PlaceBet(%v) err = %v", amount, err)
		}
	}
	if bal, _ := st.Balance(Token); bal != money.Units(1000) {
		t.Errorf("balance = %s", bal)
	}
	if len(st.Positions()) != 0 || len(pub.types) != 0 {
		t.Errorf("positions = %d published = %v", len(st.Positions()), pub.types)
	}
}

func TestPlaceBetDebitsTotalCost(t *testing.T) {
	svc, st, pub, notif, slept := newService(t)

	res, err := svc.PlaceBet(context.Background(), BetRequest{MarketID: "market_2", Side: brier.SideNo, Amount: 100})
	if err != nil {
		t.Fatal(err)
	}
	// 100 + 0.10 + 0.20 + 0.05
	if res.Fees.TotalCost != "100.35" || res.Balance != money.MustParse("899.65") {
		t.Errorf("cost = %s balance = %s", res.Fees.TotalCost, res.Balance)
	}
	pos := res.Position
	if pos.Odds != 58 || pos.Side != brier.SideNo || pos.Status != state.PositionOpen {
		t.Errorf("position = %+v", pos)
	}
	// 100 / 0.58 = 172.4138 - 0.35
	if pos.PayoutEst != money.MustParse("172.0638") {
		t.Errorf("payoutEst = %s", pos.PayoutEst)
	}
	if pos.Fees.Total != money.MustParse("0.35") {
		t.Errorf("fees = %+v", pos.Fees)
	}
	if len(st.Positions()) != 1 {
		t.Error("position not stored")
	}

	if len(*slept) != 1 || (*slept)[0] != 247*time.Millisecond {
		t.Errorf("slept = %v", *slept)
	}
	if len(pub.types) != 1 || pub.types[0] != events.TypeBetPlaced {
		t.Errorf("published = %v", pub.types)
	}
	if len(notif.got) != 1 || notif.got[0].Type != state.NotificationBetPlaced || notif.delays[0] != 89*time.Millisecond {
		t.Errorf("notifications = %+v %v", notif.got, notif.delays)
	}
	if want := `NO on "Will AI solve protein folding this year?" for 100 AGORA`; notif.got[0].Message != want {
		t.Errorf("message = %q", notif.got[0].Message)
	}
}

func TestQuoteBet(t *testing.T) {
	q, err := QuoteBet(money.Units(1000), 67)
	if err != nil {
		t.Fatal(err)
	}
	if q.Fees.TotalFees != "3.5000" || q.PayoutEst != "1489.04" {
		t.Errorf("quote = %+v", q)
	}
	if _, err := QuoteBet(money.Units(1), 0); !errors.Is(err, money.ErrInvalidAmount) {
		t.Errorf("zero odds err = %v", err)
	}
}
