package counter

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/state"
)

type recNotifier struct{ got []state.NotificationInput }

func (r *recNotifier) Notify(in state.NotificationInput, _ time.Duration, _ time.Time) {
	r.got = append(r.got, in)
}

func TestApply(t *testing.T) {
	st := state.New(zap.NewNop(), nil, "k")
	n := &recNotifier{}
	svc := NewService(zap.NewNop(), st, WithNotifier(n), WithSleep(func(time.Duration) {}))
	ctx := context.Background()

	steps := []struct {
		action Action
		want   int
	}{
		{Increment, 1},
		{Increment, 2},
		{Decrement, 1},
		{Reset, 0},
		{Decrement, -1},
	}
	for _, s := range steps {
		got, err := svc.Apply(ctx, s.action)
		if err != nil || got != s.want {
			t.Fatalf("%s = %d, %v; want %d", s.action, got, err, s.want)
		}
	}
	if len(n.got) != len(steps) {
		t.Fatalf("notifications = %d", len(n.got))
	}
	if n.got[2].Title != "Counter Decremented" || n.got[2].Message != "Counter value updated to 1" {
		t.Errorf("notification = %+v", n.got[2])
	}
	if _, err := svc.Apply(ctx, "double"); !errors.Is(err, state.ErrInvalidInput) {
		t.Errorf("bad action err = %v", err)
	}
}
